// Package snapshot implements the station database's on-disk persistence:
// an atomic gzip-compressed JSON snapshot of every known station, tracked
// message, and digipeater statistic, with a legacy-uncompressed read path
// and a pressure-reparse migration applied while loading. Ported from
// save_database/load_database in manager.py.
package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/gzip"

	"aprsgw/internal/aprs"
	"aprsgw/internal/aprsdialect/wx"
	"aprsgw/internal/msgtrack"
	"aprsgw/internal/station"
)

// gzipCompressionLevel matches the original's fast, low-ratio setting,
// favoring save latency over file size.
const gzipCompressionLevel = gzip.BestSpeed

type fileData struct {
	Stations        map[string]stationData `json:"stations"`
	Messages        []messageData          `json:"messages"`
	Migrations      migrationsData         `json:"migrations"`
	DigipeaterStats digipeaterStatsData    `json:"digipeater_stats"`
	SavedAt         string                 `json:"saved_at"`
}

type stationData struct {
	Callsign           string           `json:"callsign"`
	FirstHeard         string           `json:"first_heard"`
	LastHeard          string           `json:"last_heard"`
	MessagesReceived   int              `json:"messages_received"`
	MessagesSent       int              `json:"messages_sent"`
	PacketsHeard       int              `json:"packets_heard"`
	Device             string           `json:"device,omitempty"`
	IsDigipeater       bool             `json:"is_digipeater"`
	DigipeatersHeardBy []string         `json:"digipeaters_heard_by,omitempty"`
	LastPosition       *positionData    `json:"last_position,omitempty"`
	PositionHistory    []positionData   `json:"position_history,omitempty"`
	LastWeather        *weatherData     `json:"last_weather,omitempty"`
	WeatherHistory     []weatherData    `json:"weather_history,omitempty"`
	LastStatus         *statusData      `json:"last_status,omitempty"`
	LastTelemetry      *telemetryData   `json:"last_telemetry,omitempty"`
	TelemetrySequence  []telemetryData  `json:"telemetry_sequence,omitempty"`
	Receptions         []receptionData  `json:"receptions,omitempty"`
}

type positionData struct {
	Timestamp   string   `json:"timestamp"`
	Station     string   `json:"station"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	Altitude    *float64 `json:"altitude,omitempty"`
	SymbolTable string   `json:"symbol_table"`
	SymbolCode  string   `json:"symbol_code"`
	Comment     string   `json:"comment"`
	GridSquare  string   `json:"grid_square"`
}

type weatherData struct {
	Timestamp         string   `json:"timestamp"`
	Station           string   `json:"station"`
	Temperature       *float64 `json:"temperature,omitempty"`
	Humidity          *int     `json:"humidity,omitempty"`
	Pressure          *float64 `json:"pressure,omitempty"`
	WindSpeed         *float64 `json:"wind_speed,omitempty"`
	WindDirection     *int     `json:"wind_direction,omitempty"`
	WindGust          *float64 `json:"wind_gust,omitempty"`
	Rain1h            *float64 `json:"rain_1h,omitempty"`
	Rain24h           *float64 `json:"rain_24h,omitempty"`
	RainSinceMidnight *float64 `json:"rain_since_midnight,omitempty"`
	RawData           string   `json:"raw_data"`
}

type statusData struct {
	Timestamp  string `json:"timestamp"`
	Station    string `json:"station"`
	StatusText string `json:"status_text"`
}

type telemetryData struct {
	Timestamp string `json:"timestamp"`
	Station   string `json:"station"`
	Sequence  int    `json:"sequence"`
	Analog    [5]int `json:"analog"`
	Digital   string `json:"digital"`
}

type receptionData struct {
	Timestamp      string   `json:"timestamp"`
	HopCount       int      `json:"hop_count"`
	DirectRF       bool     `json:"direct_rf"`
	RelayCall      string   `json:"relay_call,omitempty"`
	DigipeaterPath []string `json:"digipeater_path,omitempty"`
	PacketType     string   `json:"packet_type"`
	FrameNumber    int      `json:"frame_number,omitempty"`
}

type messageData struct {
	Timestamp   string `json:"timestamp"`
	FromCall    string `json:"from_call"`
	ToCall      string `json:"to_call"`
	Message     string `json:"message"`
	MessageID   string `json:"message_id,omitempty"`
	Direction   string `json:"direction"`
	AckReceived bool   `json:"ack_received"`
	Failed      bool   `json:"failed"`
	RetryCount  int    `json:"retry_count"`
	LastSent    string `json:"last_sent,omitempty"`
	Read        bool   `json:"read"`
}

type migrationsData struct {
	MigrationsApplied map[string]bool `json:"migrations_applied"`
}

type activityData struct {
	Timestamp    string   `json:"timestamp"`
	StationCall  string   `json:"station_call"`
	PathType     string   `json:"path_type"`
	OriginalPath []string `json:"original_path"`
	FrameNumber  int      `json:"frame_number,omitempty"`
}

type digipeaterStatsData struct {
	SessionStart      string         `json:"session_start"`
	PacketsDigipeated int            `json:"packets_digipeated"`
	Activities        []activityData `json:"activities,omitempty"`
	TopStations       map[string]int `json:"top_stations,omitempty"`
	PathUsage         map[string]int `json:"path_usage,omitempty"`
}

// MigrationState is the applied-migration bookkeeping persisted alongside
// the station database, consumed and updated by internal/migrate.
type MigrationState struct {
	Applied map[string]bool
}

func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t.UTC()
}

// Save writes the complete station and message state to path as a
// gzip-compressed JSON document, via a temp-file-then-rename so a reader
// never observes a partially written file. Matches save_database's
// compresslevel=1 "fast save" choice and its dictionary-copy-before-iterate
// race avoidance (achieved here simply by holding Store/Tracker's own
// locks for the duration of each All()/Messages() call rather than across
// the whole encode).
func Save(path string, store *station.Store, tracker *msgtrack.Tracker, migrations MigrationState, digiStats station.DigipeaterStatsSnapshot, at time.Time) (int, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("snapshot: create directory %s: %w", dir, err)
	}

	data := fileData{
		Stations: make(map[string]stationData),
		SavedAt:  fmtTime(at),
		Migrations: migrationsData{
			MigrationsApplied: migrations.Applied,
		},
		DigipeaterStats: toDigipeaterStatsData(digiStats),
	}

	for _, sta := range store.All() {
		data.Stations[sta.Callsign] = toStationData(sta)
	}
	for _, m := range tracker.Messages() {
		data.Messages = append(data.Messages, toMessageData(m))
	}

	var buf bytes.Buffer
	gz, err := gzip.NewWriterLevel(&buf, gzipCompressionLevel)
	if err != nil {
		return 0, fmt.Errorf("snapshot: create gzip writer: %w", err)
	}
	enc := json.NewEncoder(gz)
	if err := enc.Encode(data); err != nil {
		gz.Close()
		return 0, fmt.Errorf("snapshot: encode database: %w", err)
	}
	if err := gz.Close(); err != nil {
		return 0, fmt.Errorf("snapshot: finalize gzip stream: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0o644); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("snapshot: write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("snapshot: rename temp file into place: %w", err)
	}

	return len(data.Stations), nil
}

// Load restores a previously saved database into store and tracker. It
// tries the gzip format first; if path doesn't exist, it falls back to
// legacyPath as a plain (uncompressed) JSON file for backward
// compatibility with databases saved before gzip compression was
// introduced. If path exists but fails to decompress, Load returns an
// error and legacyPath is not read. A missing database (neither file
// present) is not an error: the store starts empty.
func Load(path, legacyPath string, store *station.Store, tracker *msgtrack.Tracker) (MigrationState, error) {
	raw, err := readDatabaseBytes(path, legacyPath)
	if err != nil {
		return MigrationState{Applied: map[string]bool{}}, err
	}
	if raw == nil {
		return MigrationState{Applied: map[string]bool{}}, nil
	}

	var data fileData
	if err := json.Unmarshal(raw, &data); err != nil {
		return MigrationState{Applied: map[string]bool{}}, fmt.Errorf("snapshot: parse database: %w", err)
	}

	for callsign, sd := range data.Stations {
		store.RestoreStation(fromStationData(callsign, sd))
	}
	for _, md := range data.Messages {
		tracker.RestoreMessage(fromMessageData(md))
	}
	store.RestoreDigipeaterStats(fromDigipeaterStatsData(data.DigipeaterStats))

	applied := data.Migrations.MigrationsApplied
	if applied == nil {
		applied = make(map[string]bool)
	}
	return MigrationState{Applied: applied}, nil
}

// readDatabaseBytes reads and decompresses the gzip database at path, or
// falls back to reading legacyPath verbatim. It returns (nil, nil) if
// neither file exists.
func readDatabaseBytes(path, legacyPath string) ([]byte, error) {
	if f, err := os.Open(path); err == nil {
		defer f.Close()
		gz, gzErr := gzip.NewReader(f)
		if gzErr != nil {
			return nil, fmt.Errorf("snapshot: open gzip database: %w", gzErr)
		}
		defer gz.Close()
		raw, readErr := io.ReadAll(gz)
		if readErr != nil {
			return nil, fmt.Errorf("snapshot: decompress database: %w", readErr)
		}
		return raw, nil
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("snapshot: open database: %w", err)
	}

	if legacyPath == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(legacyPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("snapshot: open legacy database: %w", err)
	}
	return raw, nil
}

func toStationData(sta *station.Station) stationData {
	sd := stationData{
		Callsign:           sta.Callsign,
		FirstHeard:         fmtTime(sta.FirstHeard),
		LastHeard:          fmtTime(sta.LastHeard),
		MessagesReceived:   sta.MessagesReceived,
		MessagesSent:       sta.MessagesSent,
		PacketsHeard:       sta.PacketsHeard,
		Device:             sta.Device,
		IsDigipeater:       sta.IsDigipeater,
		DigipeatersHeardBy: sta.DigipeatersHeardBy,
	}

	if sta.LastPosition != nil {
		pd := toPositionData(sta.Callsign, *sta.LastPosition)
		sd.LastPosition = &pd
	}
	for _, p := range sta.PositionHistory {
		sd.PositionHistory = append(sd.PositionHistory, toPositionData(sta.Callsign, p))
	}
	if sta.LastWeather != nil {
		wd := toWeatherData(sta.Callsign, *sta.LastWeather)
		sd.LastWeather = &wd
	}
	for _, w := range sta.WeatherHistory {
		sd.WeatherHistory = append(sd.WeatherHistory, toWeatherData(sta.Callsign, w))
	}
	if sta.HasLastStatus {
		sd.LastStatus = &statusData{
			Timestamp:  fmtTime(sta.LastStatusAt),
			Station:    sta.Callsign,
			StatusText: sta.LastStatus,
		}
	}
	if sta.LastTelemetry != nil {
		td := toTelemetryData(sta.Callsign, *sta.LastTelemetry)
		sd.LastTelemetry = &td
	}
	for _, tel := range sta.TelemetrySequence {
		sd.TelemetrySequence = append(sd.TelemetrySequence, toTelemetryData(sta.Callsign, tel))
	}
	for _, r := range sta.Receptions {
		sd.Receptions = append(sd.Receptions, receptionData{
			Timestamp:      fmtTime(r.Timestamp),
			HopCount:       r.HopCount,
			DirectRF:       r.DirectRF,
			RelayCall:      r.RelayCall,
			DigipeaterPath: r.DigipeaterPath,
			PacketType:     r.PacketType,
			FrameNumber:    r.FrameNumber,
		})
	}
	return sd
}

func fromStationData(callsign string, sd stationData) *station.Station {
	sta := &station.Station{
		Callsign:           sd.Callsign,
		FirstHeard:         parseTime(sd.FirstHeard),
		LastHeard:          parseTime(sd.LastHeard),
		MessagesReceived:   sd.MessagesReceived,
		MessagesSent:       sd.MessagesSent,
		PacketsHeard:       sd.PacketsHeard,
		Device:             sd.Device,
		IsDigipeater:       sd.IsDigipeater,
		DigipeatersHeardBy: sd.DigipeatersHeardBy,
	}
	if sta.Callsign == "" {
		sta.Callsign = callsign
	}

	if sd.LastPosition != nil {
		ps := fromPositionData(*sd.LastPosition)
		sta.LastPosition = &ps
	}
	for _, pd := range sd.PositionHistory {
		sta.PositionHistory = append(sta.PositionHistory, fromPositionData(pd))
	}
	if sd.LastWeather != nil {
		ws := fromWeatherData(*sd.LastWeather)
		sta.LastWeather = &ws
	}
	for _, wd := range sd.WeatherHistory {
		sta.WeatherHistory = append(sta.WeatherHistory, fromWeatherData(wd))
	}
	if sd.LastStatus != nil {
		sta.LastStatus = sd.LastStatus.StatusText
		sta.LastStatusAt = parseTime(sd.LastStatus.Timestamp)
		sta.HasLastStatus = true
	}
	if sd.LastTelemetry != nil {
		ts := fromTelemetryData(*sd.LastTelemetry)
		sta.LastTelemetry = &ts
	}
	for _, td := range sd.TelemetrySequence {
		sta.TelemetrySequence = append(sta.TelemetrySequence, fromTelemetryData(td))
	}
	for _, rd := range sd.Receptions {
		sta.Receptions = append(sta.Receptions, station.ReceptionEvent{
			Timestamp:      parseTime(rd.Timestamp),
			HopCount:       rd.HopCount,
			DirectRF:       rd.DirectRF,
			RelayCall:      rd.RelayCall,
			DigipeaterPath: rd.DigipeaterPath,
			PacketType:     rd.PacketType,
			FrameNumber:    rd.FrameNumber,
		})
	}
	return sta
}

func toPositionData(callsign string, p station.PositionSample) positionData {
	pd := positionData{
		Timestamp:   fmtTime(p.Timestamp),
		Station:     callsign,
		Latitude:    p.Position.Lat,
		Longitude:   p.Position.Lon,
		SymbolTable: string(p.Position.SymbolTable),
		SymbolCode:  string(p.Position.SymbolCode),
		Comment:     p.Position.Comment,
		GridSquare:  p.Position.GridSquare,
	}
	if p.Position.HasAltitude {
		alt := float64(p.Position.AltitudeFt)
		pd.Altitude = &alt
	}
	return pd
}

func fromPositionData(pd positionData) station.PositionSample {
	pos := aprs.Position{
		Lat:        pd.Latitude,
		Lon:        pd.Longitude,
		Comment:    pd.Comment,
		GridSquare: pd.GridSquare,
	}
	if len(pd.SymbolTable) > 0 {
		pos.SymbolTable = pd.SymbolTable[0]
	}
	if len(pd.SymbolCode) > 0 {
		pos.SymbolCode = pd.SymbolCode[0]
	}
	if pd.Altitude != nil {
		pos.HasAltitude = true
		pos.AltitudeFt = int(*pd.Altitude)
	}
	return station.PositionSample{Timestamp: parseTime(pd.Timestamp), Position: pos}
}

func toWeatherData(callsign string, w station.WeatherSample) weatherData {
	wd := weatherData{
		Timestamp: fmtTime(w.Timestamp),
		Station:   callsign,
		RawData:   w.Weather.RawInfo,
	}
	if w.Weather.HasTemperatureF {
		v := float64(w.Weather.TemperatureF)
		wd.Temperature = &v
	}
	if w.Weather.HasHumidity {
		v := w.Weather.HumidityPct
		wd.Humidity = &v
	}
	if w.Weather.HasPressure {
		v := w.Weather.PressureMb
		wd.Pressure = &v
	}
	if w.Weather.HasWindSpeed {
		v := float64(w.Weather.WindSpeedMph)
		wd.WindSpeed = &v
	}
	if w.Weather.HasWindDir {
		v := w.Weather.WindDirDeg
		wd.WindDirection = &v
	}
	if w.Weather.HasWindGust {
		v := float64(w.Weather.WindGustMph)
		wd.WindGust = &v
	}
	if w.Weather.HasRain1h {
		v := w.Weather.Rain1hIn
		wd.Rain1h = &v
	}
	if w.Weather.HasRain24h {
		v := w.Weather.Rain24hIn
		wd.Rain24h = &v
	}
	if w.Weather.HasRainMidnight {
		v := w.Weather.RainMidnightIn
		wd.RainSinceMidnight = &v
	}
	return wd
}

// pressureSanityMin/Max bound a plausible sea-level-scale pressure value;
// anything outside this range on load is assumed to be corrupt from an old
// parsing bug and is reparsed from raw_data, mirroring load_database's
// pressure migration.
const (
	pressureSanityMin = 900.0
	pressureSanityMax = 1100.0
)

func fromWeatherData(wd weatherData) station.WeatherSample {
	w := aprs.Weather{RawInfo: wd.RawData}
	if wd.Temperature != nil {
		w.HasTemperatureF = true
		w.TemperatureF = int(*wd.Temperature)
	}
	if wd.Humidity != nil {
		w.HasHumidity = true
		w.HumidityPct = *wd.Humidity
	}
	if wd.Pressure != nil {
		w.HasPressure = true
		w.PressureMb = *wd.Pressure
		if w.PressureMb < pressureSanityMin || w.PressureMb > pressureSanityMax {
			if corrected, ok := wx.ParsePressureFromRaw(wd.RawData); ok {
				w.PressureMb = corrected
			}
		}
	}
	if wd.WindSpeed != nil {
		w.HasWindSpeed = true
		w.WindSpeedMph = int(*wd.WindSpeed)
	}
	if wd.WindDirection != nil {
		w.HasWindDir = true
		w.WindDirDeg = *wd.WindDirection
	}
	if wd.WindGust != nil {
		w.HasWindGust = true
		w.WindGustMph = int(*wd.WindGust)
	}
	if wd.Rain1h != nil {
		w.HasRain1h = true
		w.Rain1hIn = *wd.Rain1h
	}
	if wd.Rain24h != nil {
		w.HasRain24h = true
		w.Rain24hIn = *wd.Rain24h
	}
	if wd.RainSinceMidnight != nil {
		w.HasRainMidnight = true
		w.RainMidnightIn = *wd.RainSinceMidnight
	}
	return station.WeatherSample{Timestamp: parseTime(wd.Timestamp), Weather: w}
}

func toTelemetryData(callsign string, t station.TelemetrySample) telemetryData {
	return telemetryData{
		Timestamp: fmtTime(t.Timestamp),
		Station:   callsign,
		Sequence:  t.Telemetry.Sequence,
		Analog:    t.Telemetry.Analog,
		Digital:   t.Telemetry.Digital,
	}
}

func fromTelemetryData(td telemetryData) station.TelemetrySample {
	return station.TelemetrySample{
		Timestamp: parseTime(td.Timestamp),
		Telemetry: aprs.Telemetry{
			Sequence: td.Sequence,
			Analog:   td.Analog,
			Digital:  td.Digital,
		},
	}
}

func toMessageData(m *msgtrack.Message) messageData {
	md := messageData{
		Timestamp:   fmtTime(m.Timestamp),
		FromCall:    m.FromCall,
		ToCall:      m.ToCall,
		Message:     m.Text,
		MessageID:   m.MessageID,
		Direction:   string(m.Direction),
		AckReceived: m.AckReceived,
		Failed:      m.Failed,
		RetryCount:  m.RetryCount,
		Read:        m.Read,
	}
	if !m.LastSent.IsZero() {
		md.LastSent = fmtTime(m.LastSent)
	}
	return md
}

func fromMessageData(md messageData) *msgtrack.Message {
	m := &msgtrack.Message{
		Timestamp:   parseTime(md.Timestamp),
		FromCall:    md.FromCall,
		ToCall:      md.ToCall,
		Text:        md.Message,
		MessageID:   md.MessageID,
		Direction:   msgtrack.Direction(md.Direction),
		AckReceived: md.AckReceived,
		Failed:      md.Failed,
		RetryCount:  md.RetryCount,
		Read:        md.Read,
	}
	if m.Direction == "" {
		m.Direction = msgtrack.DirectionReceived
	}
	if md.LastSent != "" {
		m.LastSent = parseTime(md.LastSent)
	}
	return m
}

func toDigipeaterStatsData(snap station.DigipeaterStatsSnapshot) digipeaterStatsData {
	d := digipeaterStatsData{
		SessionStart:      fmtTime(snap.SessionStart),
		PacketsDigipeated: snap.PacketsDigipeated,
		TopStations:       snap.TopStations,
		PathUsage:         snap.PathUsage,
	}
	for _, a := range snap.Activities {
		d.Activities = append(d.Activities, activityData{
			Timestamp:    fmtTime(a.Timestamp),
			StationCall:  a.StationCall,
			PathType:     a.PathType,
			OriginalPath: a.OriginalPath,
			FrameNumber:  a.FrameNumber,
		})
	}
	return d
}

func fromDigipeaterStatsData(d digipeaterStatsData) (station.DigipeaterStatsSnapshot, []station.DigipeaterActivity) {
	snap := station.DigipeaterStatsSnapshot{
		SessionStart:      parseTime(d.SessionStart),
		PacketsDigipeated: d.PacketsDigipeated,
		TopStations:       d.TopStations,
		PathUsage:         d.PathUsage,
	}
	if snap.TopStations == nil {
		snap.TopStations = make(map[string]int)
	}
	if snap.PathUsage == nil {
		snap.PathUsage = make(map[string]int)
	}
	if snap.SessionStart.IsZero() {
		snap.SessionStart = time.Now().UTC()
	}
	var activities []station.DigipeaterActivity
	for _, a := range d.Activities {
		activities = append(activities, station.DigipeaterActivity{
			Timestamp:    parseTime(a.Timestamp),
			StationCall:  a.StationCall,
			PathType:     a.PathType,
			OriginalPath: a.OriginalPath,
			FrameNumber:  a.FrameNumber,
		})
	}
	return snap, activities
}
