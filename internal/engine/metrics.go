package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics are the gateway's process-level counters, registered once per
// Engine. Optional: an Engine with no MetricsAddr configured still updates
// these, it simply never serves them.
type metrics struct {
	packetsReceived  prometheus.Counter
	duplicatesDropped prometheus.Counter
	framesDropped    prometheus.Counter
	messagesSent     prometheus.Counter
	beaconsSent      prometheus.Counter
	snapshotSaves    prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		packetsReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "aprsgw_packets_received_total",
			Help: "AX.25 UI frames successfully decoded and classified.",
		}),
		duplicatesDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "aprsgw_duplicates_dropped_total",
			Help: "Frames recognized as duplicates within the dedupe window.",
		}),
		framesDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "aprsgw_frames_dropped_total",
			Help: "KISS/AX.25 frames discarded for malformed framing or addressing.",
		}),
		messagesSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "aprsgw_messages_sent_total",
			Help: "APRS messages transmitted, including retries.",
		}),
		beaconsSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "aprsgw_beacons_sent_total",
			Help: "Position beacons transmitted.",
		}),
		snapshotSaves: factory.NewCounter(prometheus.CounterOpts{
			Name: "aprsgw_snapshot_saves_total",
			Help: "Station database snapshots written to disk.",
		}),
	}
}
