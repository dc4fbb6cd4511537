// Package migrate implements the one-shot database migrations that run on
// startup against a loaded station store: id-keyed, idempotent, applied
// state persisted alongside the snapshot. Ported from
// original_source/src/migrations/__init__.py's discover-and-run shape.
//
// Because internal/station computes every station aggregate from its
// ReceptionEvent log rather than maintaining separately mutable fields,
// the migrations that used to mutate stored aggregates directly
// (m002, m004, m005) instead repair or rebuild the underlying event log
// and derived caches that feed those aggregates. m001 and m003 are not
// present in the reference migration set; m001 is authored from this
// repo's own zero-hop derivation (station.Station.HeardZeroHop) and m003
// from the pressure-tendency window logic in internal/station's
// derivePressureTendency/RecomputePressureTendency.
package migrate

import (
	"sort"
	"strings"
	"time"

	"aprsgw/internal/station"
)

// Config carries the identity migrations need to attribute digipeated
// traffic to us, mirroring m005's TNC-config (MYCALL/MYALIAS) lookup.
type Config struct {
	MyCall  string
	MyAlias string
}

// Result reports the outcome of running (or skipping) one migration.
type Result struct {
	ID      string
	Applied bool
	Skipped string
	Stats   map[string]any
}

type migrationFunc func(store *station.Store, cfg Config) map[string]any

type migration struct {
	id   string
	desc string
	run  migrationFunc
}

// registry lists every known migration in application order (m001..m005),
// mirroring discover_migrations' sorted-by-number file discovery.
var registry = []migration{
	{"m001_zero_hop_counts", "Validate zero-hop reception counts", m001ZeroHopCounts},
	{"m002_clear_igated_zero_hop", "Clear zero-hop flags for igated stations", m002ClearIgatedZeroHop},
	{"m003_recompute_pressure_tendency", "Recompute pressure tendency across weather history", m003RecomputePressureTendency},
	{"m004_rebuild_digipeaters_heard_by", "Rebuild digipeaters_heard_by from receptions", m004RebuildDigipeatersHeardBy},
	{"m005_rebuild_digipeater_stats", "Rebuild digipeater statistics from receptions", m005RebuildDigipeaterStats},
}

// RunPending runs every migration in registry order not already marked
// applied, mutating applied in place as each one completes. Safe to call
// on every startup: migrations already recorded in applied are reported as
// skipped rather than re-run.
func RunPending(store *station.Store, cfg Config, applied map[string]bool) []Result {
	results := make([]Result, 0, len(registry))
	for _, m := range registry {
		if applied[m.id] {
			results = append(results, Result{ID: m.id, Skipped: "already applied"})
			continue
		}
		stats := m.run(store, cfg)
		applied[m.id] = true
		results = append(results, Result{ID: m.id, Applied: true, Stats: stats})
	}
	return results
}

// m001ZeroHopCounts validates that every zero-hop reception is also a
// direct-RF reception with no digipeater path, the invariant the original
// frame-buffer scan was trying to establish retroactively. In this store,
// HopCount is derived from the path at ingestion time, so the invariant
// always holds; this migration exists to surface a count for the startup
// report and to catch corrupted data loaded from a legacy snapshot.
func m001ZeroHopCounts(store *station.Store, _ Config) map[string]any {
	stations := store.All()
	zeroHop := 0
	inconsistent := 0
	for _, sta := range stations {
		for _, r := range sta.Receptions {
			if r.HopCount == 0 && r.DirectRF {
				zeroHop++
			}
			if r.HopCount == 0 && len(r.DigipeaterPath) > 0 {
				inconsistent++
			}
		}
	}
	return map[string]any{
		"stations_scanned":    len(stations),
		"zero_hop_receptions": zeroHop,
		"inconsistent":        inconsistent,
	}
}

// m002ClearIgatedZeroHop repairs any reception event that claims to be
// both direct RF and relayed by an iGate at once (RelayCall set, DirectRF
// true) — a contradiction that could only enter the store via a corrupted
// or hand-edited legacy snapshot, since ObservePacket always derives
// DirectRF from RelayCall=="" at ingestion. A station that was legitimately
// heard both directly and via iGate on separate occasions is untouched:
// only the self-contradictory records are cleared.
func m002ClearIgatedZeroHop(store *station.Store, _ Config) map[string]any {
	cleared := 0
	var clearedStations []string
	for _, sta := range store.All() {
		stationCleared := false
		for i := range sta.Receptions {
			r := &sta.Receptions[i]
			if r.RelayCall != "" && r.DirectRF {
				r.DirectRF = false
				if r.HopCount == 0 {
					r.HopCount = 999
				}
				cleared++
				stationCleared = true
			}
		}
		if stationCleared {
			clearedStations = append(clearedStations, sta.Callsign)
		}
	}
	sort.Strings(clearedStations)
	return map[string]any{
		"cleared":  cleared,
		"stations": clearedStations,
	}
}

// m003RecomputePressureTendency re-derives pressure_tendency and
// pressure_change_3h for every station's weather history, for snapshots
// saved before the tendency window logic existed or was fixed.
func m003RecomputePressureTendency(store *station.Store, _ Config) map[string]any {
	stationsChanged := 0
	samplesChanged := 0
	for _, sta := range store.All() {
		n := sta.RecomputePressureTendency()
		if n > 0 {
			stationsChanged++
			samplesChanged += n
		}
	}
	return map[string]any{
		"stations_changed": stationsChanged,
		"samples_changed":  samplesChanged,
	}
}

// m004RebuildDigipeatersHeardBy rebuilds each station's DigipeatersHeardBy
// list from scratch by scanning its reception history: the first
// digipeater in a direct-RF reception's path that carries the H-bit marker
// ('*') is the one that heard the station directly.
func m004RebuildDigipeatersHeardBy(store *station.Store, _ Config) map[string]any {
	rebuilt := 0
	withDigipeaters := 0
	totalFound := 0

	stations := store.All()
	for _, sta := range stations {
		oldCount := len(sta.DigipeatersHeardBy)
		seen := make(map[string]struct{})
		sta.DigipeatersHeardBy = sta.DigipeatersHeardBy[:0]

		for _, r := range sta.Receptions {
			if !r.DirectRF || len(r.DigipeaterPath) == 0 {
				continue
			}
			first := r.DigipeaterPath[0]
			if !strings.HasSuffix(first, "*") {
				continue
			}
			digi := strings.ToUpper(strings.TrimSuffix(first, "*"))
			if digi == "" {
				continue
			}
			if _, ok := seen[digi]; ok {
				continue
			}
			seen[digi] = struct{}{}
			sta.DigipeatersHeardBy = append(sta.DigipeatersHeardBy, digi)
		}

		if len(sta.DigipeatersHeardBy) > 0 {
			withDigipeaters++
			totalFound += len(sta.DigipeatersHeardBy)
		}
		if oldCount != len(sta.DigipeatersHeardBy) {
			rebuilt++
		}
	}

	return map[string]any{
		"stations_processed":         len(stations),
		"stations_rebuilt":           rebuilt,
		"stations_with_digipeaters":  withDigipeaters,
		"total_digipeaters_found":    totalFound,
	}
}

// classifyHopAlias mirrors m005's _classify_path_type: it finds our
// callsign or alias in a digipeater path and reports which generic alias
// pattern routed the packet to us, ignoring the specific digipeater that
// did the repeating.
func classifyHopAlias(path []string, myCall, myAlias string) string {
	if len(path) == 0 {
		return "Direct"
	}

	myCallUpper := strings.ToUpper(myCall)
	myAliasUpper := strings.ToUpper(myAlias)

	var used string
	for _, hop := range path {
		clean := strings.ToUpper(strings.TrimSuffix(hop, "*"))
		if clean == myCallUpper {
			used = myCallUpper
			break
		}
		if myAliasUpper != "" && strings.HasPrefix(clean, myAliasUpper) {
			used = clean
			break
		}
	}

	switch {
	case used == "":
		return "Other"
	case used == myCallUpper:
		return "Direct"
	case strings.HasPrefix(used, "WIDE1-1") || used == "WIDE1":
		return "WIDE1-1"
	case strings.HasPrefix(used, "WIDE2-2"):
		return "WIDE2-2"
	case strings.HasPrefix(used, "WIDE2-1"):
		return "WIDE2-1"
	case strings.HasPrefix(used, "WIDE"):
		if i := strings.IndexByte(used, '-'); i >= 0 {
			return used[:i]
		}
		return used
	default:
		return "Other"
	}
}

const maxRebuiltActivities = 500

// m005RebuildDigipeaterStats scans every station's reception history for
// packets that show our callsign or alias in the digipeater path (meaning
// we repeated them), and rebuilds the session digipeater statistics from
// that ground truth: newest-first, capped at 500 activities, with
// top-station and path-type aggregates recomputed to match.
func m005RebuildDigipeaterStats(store *station.Store, cfg Config) map[string]any {
	if cfg.MyCall == "" {
		return map[string]any{
			"total_activities": 0,
			"skipped":          "MYCALL not configured",
		}
	}

	var activities []station.DigipeaterActivity
	for _, sta := range store.All() {
		for _, r := range sta.Receptions {
			if !r.DirectRF || len(r.DigipeaterPath) == 0 {
				continue
			}
			if !inDigipeaterPath(r.DigipeaterPath, cfg.MyCall, cfg.MyAlias) {
				continue
			}
			activities = append(activities, station.DigipeaterActivity{
				Timestamp:    r.Timestamp,
				StationCall:  sta.Callsign,
				PathType:     classifyHopAlias(r.DigipeaterPath, cfg.MyCall, cfg.MyAlias),
				OriginalPath: append([]string(nil), r.DigipeaterPath...),
				FrameNumber:  r.FrameNumber,
			})
		}
	}

	if len(activities) == 0 {
		store.RestoreDigipeaterStats(station.DigipeaterStatsSnapshot{
			SessionStart: time.Now().UTC(),
			TopStations:  map[string]int{},
			PathUsage:    map[string]int{},
		}, nil)
		return map[string]any{
			"total_activities": 0,
			"kept_activities":  0,
			"unique_stations":  0,
			"skipped":          "No digipeater activity found in receptions",
		}
	}

	sort.Slice(activities, func(i, j int) bool { return activities[i].Timestamp.After(activities[j].Timestamp) })
	if len(activities) > maxRebuiltActivities {
		activities = activities[:maxRebuiltActivities]
	}

	earliest, latest := activities[0].Timestamp, activities[0].Timestamp
	topStations := make(map[string]int)
	pathUsage := make(map[string]int)
	uniqueStations := make(map[string]struct{})
	for _, a := range activities {
		if a.Timestamp.Before(earliest) {
			earliest = a.Timestamp
		}
		if a.Timestamp.After(latest) {
			latest = a.Timestamp
		}
		topStations[a.StationCall]++
		pathUsage[a.PathType]++
		uniqueStations[a.StationCall] = struct{}{}
	}

	store.RestoreDigipeaterStats(station.DigipeaterStatsSnapshot{
		SessionStart:      earliest,
		PacketsDigipeated: len(activities),
		TopStations:       topStations,
		PathUsage:         pathUsage,
	}, activities)

	return map[string]any{
		"total_activities": len(activities),
		"kept_activities":  len(activities),
		"unique_stations":  len(uniqueStations),
		"path_breakdown":   pathUsage,
		"mycall":           cfg.MyCall,
		"myalias":          cfg.MyAlias,
	}
}

func inDigipeaterPath(path []string, myCall, myAlias string) bool {
	myCallUpper := strings.ToUpper(myCall)
	myAliasUpper := strings.ToUpper(myAlias)
	for _, hop := range path {
		clean := strings.ToUpper(strings.TrimSuffix(hop, "*"))
		if clean == myCallUpper {
			return true
		}
		if myAliasUpper != "" && strings.HasPrefix(clean, myAliasUpper) {
			return true
		}
	}
	return false
}
