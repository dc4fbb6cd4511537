package station

import (
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"aprsgw/internal/aprs"
	"aprsgw/internal/classify"
	"aprsgw/internal/dedupe"
)

// ObserveInput describes one decoded AX.25 UI frame ready for station-store
// ingestion.
type ObserveInput struct {
	Source         string
	DestCall       string   // destination tocall, SSID stripped by caller
	DigipeaterPath []string // AX.25 path as heard, H-bit markers ('*') preserved
	RelayCall      string   // non-empty for a third-party/iGate-relayed frame
	Info           string
	FrameNumber    int
	At             time.Time
}

// ObserveResult reports what ObservePacket did with a frame.
type ObserveResult struct {
	Station    *Station
	Payload    aprs.Payload
	Duplicate  bool
	NewStation bool
}

// Store is the in-memory station database: a map of callsign to Station,
// guarded by a single mutex, matching the original's single
// threads-contend-on-one-dict shape.
type Store struct {
	mu       sync.RWMutex
	stations map[string]*Station
	dedupe   *dedupe.Detector

	digipeaterStats digipeaterStats
}

// New creates an empty Store with the given duplicate-suppression window.
func New(dedupeWindow time.Duration) *Store {
	return &Store{
		stations: make(map[string]*Station),
		dedupe:   dedupe.New(dedupeWindow),
		digipeaterStats: digipeaterStats{
			SessionStart: time.Now(),
			TopStations:  make(map[string]int),
			PathUsage:    make(map[string]int),
		},
	}
}

// ObservePacket runs the full ingestion pipeline for one received frame:
// duplicate detection, payload classification, reception-event append, and
// history retention. Duplicate frames still record a lightweight reception
// event (for digipeater coverage accuracy) but do not increment the packet
// counter or update last-position/weather/status.
func (st *Store) ObservePacket(in ObserveInput) ObserveResult {
	callsign := normalizeCallsign(in.Source)
	path := normalizePath(in.DigipeaterPath)
	hopCount := computeHopCount(in.DigipeaterPath, in.RelayCall)

	duplicate := st.dedupe.IsDuplicate(callsign, in.Info, in.At)

	st.mu.Lock()
	defer st.mu.Unlock()

	sta, isNew := st.getOrCreate(callsign, in.At)

	if in.At.Before(sta.FirstHeard) {
		sta.FirstHeard = in.At
	}
	if in.At.After(sta.LastHeard) {
		sta.LastHeard = in.At
	}
	if !duplicate {
		sta.PacketsHeard++
	}

	event := ReceptionEvent{
		Timestamp:      in.At,
		HopCount:       hopCount,
		DirectRF:       in.RelayCall == "",
		RelayCall:      strings.ToUpper(in.RelayCall),
		DigipeaterPath: path,
		PacketType:     "unknown",
		FrameNumber:    in.FrameNumber,
	}

	var payload aprs.Payload
	if !duplicate {
		payload = classify.Payload(in.DestCall, in.Info)
		event.PacketType = string(payload.Kind())
		st.applyPayload(sta, payload, in.At)
	}

	sta.Receptions = append(sta.Receptions, event)
	if len(sta.Receptions) > maxReceptions {
		sta.Receptions = sta.Receptions[len(sta.Receptions)-maxReceptions:]
	}

	st.markDigipeaters(sta, path, in.RelayCall, callsign)

	if !duplicate && len(path) > 0 {
		st.recordDigipeaterActivity(callsign, path, in.FrameNumber, in.At)
	}

	return ObserveResult{Station: sta, Payload: payload, Duplicate: duplicate, NewStation: isNew}
}

func (st *Store) getOrCreate(callsign string, at time.Time) (*Station, bool) {
	if sta, ok := st.stations[callsign]; ok {
		return sta, false
	}
	sta := &Station{
		Callsign:   callsign,
		FirstHeard: at,
		LastHeard:  at,
	}
	st.stations[callsign] = sta
	return sta, true
}

func (st *Store) applyPayload(sta *Station, payload aprs.Payload, at time.Time) {
	switch p := payload.(type) {
	case aprs.Position:
		st.addPositionToHistory(sta, PositionSample{Timestamp: at, Position: p})
		if p.Weather != nil {
			st.addWeatherToHistory(sta, WeatherSample{Timestamp: at, Weather: *p.Weather})
		}
	case aprs.Weather:
		st.addWeatherToHistory(sta, WeatherSample{Timestamp: at, Weather: p})
	case aprs.Status:
		sta.LastStatus = p.Text
		sta.LastStatusAt = at
		sta.HasLastStatus = true
	case aprs.Telemetry:
		sample := TelemetrySample{Timestamp: at, Telemetry: p}
		sta.LastTelemetry = &sample
		sta.TelemetrySequence = append(sta.TelemetrySequence, sample)
		if len(sta.TelemetrySequence) > maxReceptions {
			sta.TelemetrySequence = sta.TelemetrySequence[len(sta.TelemetrySequence)-maxReceptions:]
		}
	case aprs.MicE:
		st.addPositionToHistory(sta, PositionSample{Timestamp: at, Position: p.Position})
		if p.StatusText != "" {
			sta.LastStatus = p.StatusText
			sta.LastStatusAt = at
			sta.HasLastStatus = true
		}
	case aprs.Message:
		sta.MessagesReceived++
	case aprs.Object:
		st.addPositionToHistory(sta, PositionSample{Timestamp: at, Position: p.Position})
	case aprs.Item:
		st.addPositionToHistory(sta, PositionSample{Timestamp: at, Position: p.Position})
	case aprs.ThirdParty:
		if p.Inner != nil {
			st.applyPayload(sta, p.Inner, at)
		}
	}
}

// addWeatherToHistory appends a weather sample, derives the 3-hour pressure
// tendency, and applies the three-tier time-decayed retention policy: full
// detail for the last hour, a 15-minute cadence out to a day, and an hourly
// cadence beyond that.
func (st *Store) addWeatherToHistory(sta *Station, sample WeatherSample) {
	if sample.Weather.HasPressure {
		st.derivePressureTendency(sta, &sample)
	}

	sta.WeatherHistory = append(sta.WeatherHistory, sample)
	latest := sample
	sta.LastWeather = &latest

	sort.Slice(sta.WeatherHistory, func(i, j int) bool {
		return sta.WeatherHistory[i].Timestamp.After(sta.WeatherHistory[j].Timestamp)
	})

	if len(sta.WeatherHistory) <= historyPruneThreshold {
		return
	}

	now := sample.Timestamp
	retained := make([]WeatherSample, 0, len(sta.WeatherHistory))
	var last15min, lastHour time.Time
	have15, haveHour := false, false

	for _, w := range sta.WeatherHistory {
		age := now.Sub(w.Timestamp)
		switch {
		case age <= time.Hour:
			retained = append(retained, w)
		case age <= 24*time.Hour:
			if !have15 || last15min.Sub(w.Timestamp) >= 15*time.Minute {
				retained = append(retained, w)
				last15min = w.Timestamp
				have15 = true
			}
		default:
			if !haveHour || lastHour.Sub(w.Timestamp) >= time.Hour {
				retained = append(retained, w)
				lastHour = w.Timestamp
				haveHour = true
			}
		}
	}
	sta.WeatherHistory = retained
}

// derivePressureTendency finds the weather sample closest to 3 hours before
// now (within a 30-minute tolerance) and classifies the pressure trend.
func (st *Store) derivePressureTendency(sta *Station, sample *WeatherSample) {
	target := sample.Timestamp.Add(-3 * time.Hour)
	const tolerance = 30 * time.Minute

	var match *WeatherSample
	var bestAge time.Duration
	for i := len(sta.WeatherHistory) - 1; i >= 0; i-- {
		old := &sta.WeatherHistory[i]
		if !old.Weather.HasPressure {
			continue
		}
		age := old.Timestamp.Sub(target)
		if age < 0 {
			age = -age
		}
		if age > tolerance {
			continue
		}
		if match == nil || age < bestAge {
			match, bestAge = old, age
		}
	}
	if match != nil {
		change := sample.Weather.PressureMb - match.Weather.PressureMb
		sample.Weather.HasPressureChange = true
		sample.Weather.PressureChange3h = change
		switch {
		case change > 0.5:
			sample.Weather.PressureTendency = aprs.TendencyRising
		case change < -0.5:
			sample.Weather.PressureTendency = aprs.TendencyFalling
		default:
			sample.Weather.PressureTendency = aprs.TendencySteady
		}
	}
}

// RecomputePressureTendency re-derives PressureTendency/PressureChange3h for
// every sample in a station's weather history, using the same
// nearest-3h-within-30min-tolerance comparison as derivePressureTendency
// applies at ingestion time. Used by internal/migrate to backfill or fix
// stale tendency fields on a loaded snapshot; WeatherHistory is assumed
// sorted newest-first, as addWeatherToHistory leaves it.
func (sta *Station) RecomputePressureTendency() int {
	const tolerance = 30 * time.Minute
	changed := 0

	for i := range sta.WeatherHistory {
		cur := &sta.WeatherHistory[i]
		if !cur.Weather.HasPressure {
			continue
		}
		target := cur.Timestamp.Add(-3 * time.Hour)

		var match *WeatherSample
		var bestAge time.Duration
		for j := i + 1; j < len(sta.WeatherHistory); j++ {
			old := &sta.WeatherHistory[j]
			if !old.Weather.HasPressure {
				continue
			}
			age := old.Timestamp.Sub(target)
			if age < 0 {
				age = -age
			}
			if age <= tolerance && (match == nil || age < bestAge) {
				match, bestAge = old, age
			}
		}
		if match == nil {
			continue
		}

		change := cur.Weather.PressureMb - match.Weather.PressureMb
		before := cur.Weather.PressureTendency
		cur.Weather.HasPressureChange = true
		cur.Weather.PressureChange3h = change
		switch {
		case change > 0.5:
			cur.Weather.PressureTendency = aprs.TendencyRising
		case change < -0.5:
			cur.Weather.PressureTendency = aprs.TendencyFalling
		default:
			cur.Weather.PressureTendency = aprs.TendencySteady
		}
		if before != cur.Weather.PressureTendency {
			changed++
		}
	}

	if sta.LastWeather != nil && len(sta.WeatherHistory) > 0 {
		latest := sta.WeatherHistory[0]
		sta.LastWeather = &latest
	}
	return changed
}

// addPositionToHistory appends a position sample and applies the
// movement-aware three-tier retention policy: full detail for the last
// hour, keep-if-moved-100m-or-15min out to a day, keep-if-moved-500m-or-1h
// beyond that.
func (st *Store) addPositionToHistory(sta *Station, sample PositionSample) {
	sta.PositionHistory = append(sta.PositionHistory, sample)
	latest := sample
	sta.LastPosition = &latest

	sort.Slice(sta.PositionHistory, func(i, j int) bool {
		return sta.PositionHistory[i].Timestamp.After(sta.PositionHistory[j].Timestamp)
	})

	if len(sta.PositionHistory) <= historyPruneThreshold {
		return
	}

	now := sample.Timestamp
	retained := make([]PositionSample, 0, len(sta.PositionHistory))
	var lastKept *PositionSample

	for i := range sta.PositionHistory {
		p := sta.PositionHistory[i]
		age := now.Sub(p.Timestamp)

		switch {
		case age <= time.Hour:
			retained = append(retained, p)
			lastKept = &sta.PositionHistory[i]
		case age <= 24*time.Hour:
			if keepByMovement(lastKept, &p, 100, 15*time.Minute) {
				retained = append(retained, p)
				lastKept = &sta.PositionHistory[i]
			}
		default:
			if keepByMovement(lastKept, &p, 500, time.Hour) {
				retained = append(retained, p)
				lastKept = &sta.PositionHistory[i]
			}
		}
	}
	sta.PositionHistory = retained
}

func keepByMovement(last, cur *PositionSample, minMeters float64, minElapsed time.Duration) bool {
	if last == nil {
		return true
	}
	dist := haversineMeters(last.Position.Lat, last.Position.Lon, cur.Position.Lat, cur.Position.Lon)
	elapsed := last.Timestamp.Sub(cur.Timestamp)
	return dist > minMeters || elapsed >= minElapsed
}

// haversineMeters computes great-circle distance between two lat/lon pairs.
func haversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusM = 6371000.0
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusM * c
}

// markDigipeaters flags every station in path as a digipeater and records
// the first hop in callsign's digipeaters-heard-by list, for coverage
// mapping — only for direct RF frames whose first path entry carries the
// H-bit (it actually repeated the packet).
func (st *Store) markDigipeaters(sta *Station, path []string, relayCall, callsign string) {
	for _, digi := range path {
		digiCall := strings.TrimSuffix(digi, "*")
		if digiCall == "" || digiCall == callsign {
			continue
		}
		if d, ok := st.stations[digiCall]; ok {
			d.IsDigipeater = true
		}
	}

	if relayCall != "" || len(path) == 0 || !strings.HasSuffix(path[0], "*") {
		return
	}
	firstDigi := strings.TrimSuffix(path[0], "*")
	if firstDigi == "" {
		return
	}
	for _, existing := range sta.DigipeatersHeardBy {
		if existing == firstDigi {
			return
		}
	}
	sta.DigipeatersHeardBy = append(sta.DigipeatersHeardBy, firstDigi)
}

// computeHopCount derives a reception's hop count from the AX.25 path: 999
// for a third-party/iGate relay (unknown RF hop distance), otherwise the
// number of digipeaters that actually repeated the packet (H-bit set).
func computeHopCount(path []string, relayCall string) int {
	if relayCall != "" {
		return 999
	}
	n := 0
	for _, hop := range path {
		if strings.HasSuffix(hop, "*") {
			n++
		}
	}
	return n
}

func normalizeCallsign(call string) string {
	return strings.TrimSuffix(strings.ToUpper(call), "*")
}

func normalizePath(path []string) []string {
	out := make([]string, len(path))
	for i, p := range path {
		hbit := strings.HasSuffix(p, "*")
		call := strings.ToUpper(strings.TrimSuffix(p, "*"))
		if hbit {
			out[i] = call + "*"
		} else {
			out[i] = call
		}
	}
	return out
}

// Get returns the station for callsign, if known.
func (st *Store) Get(callsign string) (*Station, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	sta, ok := st.stations[normalizeCallsign(callsign)]
	return sta, ok
}

// All returns every known station, in no particular order.
func (st *Store) All() []*Station {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]*Station, 0, len(st.stations))
	for _, sta := range st.stations {
		out = append(out, sta)
	}
	return out
}

// Count returns the number of known stations.
func (st *Store) Count() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.stations)
}

// ClearDatabase drops every known station and resets digipeater session
// statistics, without touching the duplicate-suppression cache.
func (st *Store) ClearDatabase() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.stations = make(map[string]*Station)
	st.digipeaterStats = digipeaterStats{
		SessionStart: time.Now(),
		TopStations:  make(map[string]int),
		PathUsage:    make(map[string]int),
	}
}

// RestoreStation inserts a station built from a loaded snapshot directly
// into the store, bypassing ObservePacket's ingestion pipeline. Used only
// by internal/snapshot while loading a saved database.
func (st *Store) RestoreStation(sta *Station) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.stations[normalizeCallsign(sta.Callsign)] = sta
}

// RestoreDigipeaterStats replaces the session digipeater statistics with a
// loaded snapshot's values. Used only by internal/snapshot while loading.
func (st *Store) RestoreDigipeaterStats(snap DigipeaterStatsSnapshot, activities []DigipeaterActivity) {
	st.mu.Lock()
	defer st.mu.Unlock()
	top := make(map[string]int, len(snap.TopStations))
	for k, v := range snap.TopStations {
		top[k] = v
	}
	usage := make(map[string]int, len(snap.PathUsage))
	for k, v := range snap.PathUsage {
		usage[k] = v
	}
	st.digipeaterStats = digipeaterStats{
		SessionStart:      snap.SessionStart,
		PacketsDigipeated: snap.PacketsDigipeated,
		Activities:        activities,
		TopStations:       top,
		PathUsage:         usage,
	}
}

// PruneDatabase removes stations whose last reception is older than the
// given retention window (days).
func (st *Store) PruneDatabase(days int) int {
	st.mu.Lock()
	defer st.mu.Unlock()
	cutoff := time.Now().Add(-time.Duration(days) * 24 * time.Hour)
	removed := 0
	for call, sta := range st.stations {
		if sta.LastHeard.Before(cutoff) {
			delete(st.stations, call)
			removed++
		}
	}
	return removed
}
