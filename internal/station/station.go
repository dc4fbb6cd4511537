// Package station implements the reception-event store: an append-only log
// of packet receptions per callsign, from which every station aggregate
// (hop count, heard-direct, relay paths, digipeater coverage, ...) is
// computed on read rather than maintained as a separately-updated field.
// Ported from APRSStation/ReceptionEvent in models.py and the
// _get_or_create_station/_add_*_to_history methods of manager.py.
package station

import (
	"sort"
	"strings"
	"time"

	"aprsgw/internal/aprs"
)

// ReceptionEvent is a single packet reception: the ground truth every
// Station aggregate is computed from.
type ReceptionEvent struct {
	Timestamp      time.Time
	HopCount       int // 0=direct RF, 1+=digipeated, 999=unknown/igated
	DirectRF       bool
	RelayCall      string // iGate that relayed; empty if direct RF
	DigipeaterPath []string
	PacketType     string
	FrameNumber    int
}

// PositionSample pairs a decoded position with its reception time.
type PositionSample struct {
	Timestamp time.Time
	Position  aprs.Position
}

// WeatherSample pairs a decoded weather report with its reception time and
// store-derived pressure trend.
type WeatherSample struct {
	Timestamp time.Time
	Weather   aprs.Weather
}

// TelemetrySample pairs a decoded telemetry frame with its reception time.
type TelemetrySample struct {
	Timestamp time.Time
	Telemetry aprs.Telemetry
}

// maxReceptions bounds the reception log per station, matching the
// original's 200-entry cap.
const maxReceptions = 200

// historyPruneThreshold is the size at which the three-tier retention
// policy runs; below it, every sample is kept to avoid O(n) work on every
// packet.
const historyPruneThreshold = 250

// Station is a single APRS station's complete known profile.
type Station struct {
	Callsign   string
	FirstHeard time.Time
	LastHeard  time.Time

	Receptions []ReceptionEvent

	LastPosition    *PositionSample
	PositionHistory []PositionSample

	LastWeather    *WeatherSample
	WeatherHistory []WeatherSample

	LastStatus    string
	LastStatusAt  time.Time
	HasLastStatus bool

	LastTelemetry     *TelemetrySample
	TelemetrySequence []TelemetrySample

	MessagesReceived int
	MessagesSent     int
	PacketsHeard     int

	Device string

	IsDigipeater       bool
	DigipeatersHeardBy []string
}

// HopCount returns the minimum hop count from direct RF receptions
// (excluding iGate relays), or 999 if none.
func (s *Station) HopCount() int {
	best := 999
	for _, r := range s.Receptions {
		if r.DirectRF && r.HopCount < 999 && r.HopCount < best {
			best = r.HopCount
		}
	}
	return best
}

// HeardDirect reports whether this station has ever been heard on RF.
func (s *Station) HeardDirect() bool {
	for _, r := range s.Receptions {
		if r.DirectRF {
			return true
		}
	}
	return false
}

// HeardZeroHop reports whether this station has ever been heard direct RF
// with no digipeaters in the path.
func (s *Station) HeardZeroHop() bool {
	for _, r := range s.Receptions {
		if r.DirectRF && r.HopCount == 0 {
			return true
		}
	}
	return false
}

// ZeroHopPacketCount counts direct-RF, zero-hop receptions.
func (s *Station) ZeroHopPacketCount() int {
	n := 0
	for _, r := range s.Receptions {
		if r.DirectRF && r.HopCount == 0 {
			n++
		}
	}
	return n
}

// RelayPaths returns the sorted, deduplicated set of iGates that have
// relayed this station.
func (s *Station) RelayPaths() []string {
	seen := make(map[string]struct{})
	for _, r := range s.Receptions {
		if r.RelayCall != "" {
			seen[r.RelayCall] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// LastHeardZeroHop returns the timestamp of the most recent zero-hop direct
// RF reception, or the zero time if never heard zero-hop.
func (s *Station) LastHeardZeroHop() (time.Time, bool) {
	var best time.Time
	found := false
	for _, r := range s.Receptions {
		if r.DirectRF && r.HopCount == 0 {
			if !found || r.Timestamp.After(best) {
				best = r.Timestamp
				found = true
			}
		}
	}
	return best, found
}

// DigipeaterPath returns the digipeater path from the most recent direct RF
// reception, or nil if none.
func (s *Station) DigipeaterPath() []string {
	for i := len(s.Receptions) - 1; i >= 0; i-- {
		if s.Receptions[i].DirectRF {
			return s.Receptions[i].DigipeaterPath
		}
	}
	return nil
}

// DigipeaterPaths returns every unique digipeater path observed, sorted,
// including an empty path for direct RF packets with no digipeaters.
func (s *Station) DigipeaterPaths() [][]string {
	seen := make(map[string][]string)
	for _, r := range s.Receptions {
		key := strings.Join(r.DigipeaterPath, ",")
		seen[key] = r.DigipeaterPath
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([][]string, len(keys))
	for i, k := range keys {
		out[i] = seen[k]
	}
	return out
}
