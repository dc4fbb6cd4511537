package station

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"aprsgw/internal/aprs"
)

// DigipeaterActivity records one packet relayed through a known path
// pattern, for the recent-activity feed.
type DigipeaterActivity struct {
	Timestamp    time.Time
	StationCall  string
	PathType     string
	OriginalPath []string
	FrameNumber  int
}

const maxDigipeaterActivities = 500

// digipeaterStats is the session-scoped digipeater activity aggregate,
// ported from DigipeaterStats in digipeater_stats.py.
type digipeaterStats struct {
	SessionStart      time.Time
	PacketsDigipeated int
	Activities        []DigipeaterActivity
	TopStations       map[string]int
	PathUsage         map[string]int
}

func (st *Store) recordDigipeaterActivity(callsign string, path []string, frameNumber int, at time.Time) {
	pathType := ClassifyPath(path)

	st.digipeaterStats.PacketsDigipeated++
	st.digipeaterStats.TopStations[callsign]++
	st.digipeaterStats.PathUsage[pathType]++
	st.digipeaterStats.Activities = append(st.digipeaterStats.Activities, DigipeaterActivity{
		Timestamp:    at,
		StationCall:  callsign,
		PathType:     pathType,
		OriginalPath: path,
		FrameNumber:  frameNumber,
	})
	if n := len(st.digipeaterStats.Activities); n > maxDigipeaterActivities {
		st.digipeaterStats.Activities = st.digipeaterStats.Activities[n-maxDigipeaterActivities:]
	}
}

// ClassifyPath classifies a digipeater path by the generic alias pattern it
// used (WIDE/RELAY/TRACE/TEMP/LOCAL), ignoring specific digipeater
// callsigns: "Direct" for no path, the alias list for one to three aliases,
// a truncated "first two + count" form beyond that, or "Via Digipeater"
// when the path names only specific callsigns with no alias.
func ClassifyPath(path []string) string {
	if len(path) == 0 {
		return "Direct"
	}

	var aliases []string
	for _, hop := range path {
		clean := strings.ToUpper(strings.TrimSuffix(hop, "*"))
		for _, prefix := range []string{"WIDE", "RELAY", "TRACE", "TEMP", "LOCAL"} {
			if strings.HasPrefix(clean, prefix) {
				aliases = append(aliases, clean)
				break
			}
		}
	}

	switch {
	case len(aliases) == 0:
		return "Via Digipeater"
	case len(aliases) == 1:
		return aliases[0]
	case len(aliases) <= 3:
		return strings.Join(aliases, ",")
	default:
		return fmt.Sprintf("%s,%s+%d", aliases[0], aliases[1], len(aliases)-2)
	}
}

// PathUsageEntry is one row of NetworkPathUsage's breakdown.
type PathUsageEntry struct {
	PathType   string
	Count      int
	Percentage float64
	Stations   int
}

// NetworkPathUsage scans every station's reception log for direct-RF,
// digipeated receptions within the last `hours` (0 = all time) and breaks
// them down by classified path pattern.
func (st *Store) NetworkPathUsage(hours int) (entries []PathUsageEntry, totalPackets int) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	var cutoff time.Time
	hasCutoff := hours > 0
	if hasCutoff {
		cutoff = time.Now().Add(-time.Duration(hours) * time.Hour)
	}

	counts := make(map[string]int)
	stationSets := make(map[string]map[string]struct{})

	for _, sta := range st.stations {
		for _, r := range sta.Receptions {
			if hasCutoff && r.Timestamp.Before(cutoff) {
				continue
			}
			if !r.DirectRF || len(r.DigipeaterPath) == 0 {
				continue
			}
			pt := ClassifyPath(r.DigipeaterPath)
			counts[pt]++
			if stationSets[pt] == nil {
				stationSets[pt] = make(map[string]struct{})
			}
			stationSets[pt][sta.Callsign] = struct{}{}
			totalPackets++
		}
	}

	for pt, count := range counts {
		pct := 0.0
		if totalPackets > 0 {
			pct = float64(count) / float64(totalPackets) * 100
		}
		entries = append(entries, PathUsageEntry{
			PathType:   pt,
			Count:      count,
			Percentage: pct,
			Stations:   len(stationSets[pt]),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Count > entries[j].Count })
	return entries, totalPackets
}

// NetworkDigipeaterEntry is one digipeater's network-wide relay statistics,
// aggregated by the digipeater's own callsign rather than by path pattern.
type NetworkDigipeaterEntry struct {
	Callsign       string
	PacketsRelayed int
	UniqueStations int
	LastHeard      time.Time
	Position       *aprs.Position
}

// NetworkDigipeaterStats scans every station's reception log for direct-RF,
// digipeated receptions within the last `hours` (0 = all time) and
// aggregates, per individual digipeater callsign (not by alias pattern):
// how many packets it relayed, how many distinct stations it relayed for,
// and when it was last heard relaying. Empty hops and WIDEn-N alias hops
// are skipped, since they never name an actual digipeater callsign.
// Entries are sorted by PacketsRelayed descending. Ported from
// get_network_digipeater_stats in manager.py.
func (st *Store) NetworkDigipeaterStats(hours int) []NetworkDigipeaterEntry {
	st.mu.RLock()
	defer st.mu.RUnlock()

	var cutoff time.Time
	hasCutoff := hours > 0
	if hasCutoff {
		cutoff = time.Now().Add(-time.Duration(hours) * time.Hour)
	}

	type accum struct {
		packets   int
		stations  map[string]struct{}
		lastHeard time.Time
	}
	digis := make(map[string]*accum)

	for _, sta := range st.stations {
		for _, r := range sta.Receptions {
			if hasCutoff && r.Timestamp.Before(cutoff) {
				continue
			}
			if !r.DirectRF || len(r.DigipeaterPath) == 0 {
				continue
			}

			for _, hop := range r.DigipeaterPath {
				digiCall := strings.ToUpper(strings.TrimSuffix(hop, "*"))
				if digiCall == "" || strings.HasPrefix(digiCall, "WIDE") {
					continue
				}

				a, ok := digis[digiCall]
				if !ok {
					a = &accum{stations: make(map[string]struct{}), lastHeard: r.Timestamp}
					digis[digiCall] = a
				}
				a.packets++
				a.stations[sta.Callsign] = struct{}{}
				if r.Timestamp.After(a.lastHeard) {
					a.lastHeard = r.Timestamp
				}
			}
		}
	}

	entries := make([]NetworkDigipeaterEntry, 0, len(digis))
	for call, a := range digis {
		entry := NetworkDigipeaterEntry{
			Callsign:       call,
			PacketsRelayed: a.packets,
			UniqueStations: len(a.stations),
			LastHeard:      a.lastHeard,
		}
		if digiStation, ok := st.stations[call]; ok && digiStation.LastPosition != nil {
			pos := digiStation.LastPosition.Position
			entry.Position = &pos
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].PacketsRelayed > entries[j].PacketsRelayed })
	return entries
}

// Heatmap is a 7(day-of-week, Sunday=0)x24(hour) activity grid, plus the
// peak cell, built from every direct-RF reception within the last `days`.
type Heatmap struct {
	Grid         [7][24]int
	PeakDay      int
	PeakHour     int
	TotalPackets int
	DaysAnalyzed int
}

// NetworkHeatmap builds the time-of-day/day-of-week activity grid across
// every known station's reception log.
func (st *Store) NetworkHeatmap(days int) Heatmap {
	st.mu.RLock()
	defer st.mu.RUnlock()

	cutoff := time.Now().Add(-time.Duration(days) * 24 * time.Hour)
	var hm Heatmap
	hm.DaysAnalyzed = days

	peak := -1
	for _, sta := range st.stations {
		for _, r := range sta.Receptions {
			if r.Timestamp.Before(cutoff) || !r.DirectRF {
				continue
			}
			// Go's time.Weekday is 0=Sunday..6=Saturday already.
			day := int(r.Timestamp.Weekday())
			hour := r.Timestamp.Hour()
			hm.Grid[day][hour]++
			hm.TotalPackets++
			if hm.Grid[day][hour] > peak {
				peak = hm.Grid[day][hour]
				hm.PeakDay = day
				hm.PeakHour = hour
			}
		}
	}
	return hm
}

// DigipeaterCoverageEntry is one digipeater's direct-RF coverage footprint.
type DigipeaterCoverageEntry struct {
	Digipeater string
	Stations   []string
}

// DigipeaterCoverage returns, per digipeater, the stations it has heard
// directly over RF as the first hop (excludes iGate and second-hop-plus
// receptions), for coverage mapping.
func (st *Store) DigipeaterCoverage() []DigipeaterCoverageEntry {
	st.mu.RLock()
	defer st.mu.RUnlock()

	byDigi := make(map[string]map[string]struct{})
	for _, sta := range st.stations {
		for _, digi := range sta.DigipeatersHeardBy {
			if byDigi[digi] == nil {
				byDigi[digi] = make(map[string]struct{})
			}
			byDigi[digi][sta.Callsign] = struct{}{}
		}
	}

	digis := make([]string, 0, len(byDigi))
	for d := range byDigi {
		digis = append(digis, d)
	}
	sort.Strings(digis)

	out := make([]DigipeaterCoverageEntry, 0, len(digis))
	for _, d := range digis {
		stations := make([]string, 0, len(byDigi[d]))
		for s := range byDigi[d] {
			stations = append(stations, s)
		}
		sort.Strings(stations)
		out = append(out, DigipeaterCoverageEntry{Digipeater: d, Stations: stations})
	}
	return out
}

// DigipeaterStatsSnapshot is a read-only copy of the session digipeater
// statistics, safe to serialize or display.
type DigipeaterStatsSnapshot struct {
	SessionStart      time.Time
	PacketsDigipeated int
	Activities        []DigipeaterActivity
	TopStations       map[string]int
	PathUsage         map[string]int
}

// DigipeaterStats returns a snapshot of the session-scoped digipeater
// activity counters.
func (st *Store) DigipeaterStats() DigipeaterStatsSnapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()
	top := make(map[string]int, len(st.digipeaterStats.TopStations))
	for k, v := range st.digipeaterStats.TopStations {
		top[k] = v
	}
	usage := make(map[string]int, len(st.digipeaterStats.PathUsage))
	for k, v := range st.digipeaterStats.PathUsage {
		usage[k] = v
	}
	activities := make([]DigipeaterActivity, len(st.digipeaterStats.Activities))
	copy(activities, st.digipeaterStats.Activities)
	return DigipeaterStatsSnapshot{
		SessionStart:      st.digipeaterStats.SessionStart,
		PacketsDigipeated: st.digipeaterStats.PacketsDigipeated,
		Activities:        activities,
		TopStations:       top,
		PathUsage:         usage,
	}
}
