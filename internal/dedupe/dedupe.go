// Package dedupe suppresses repeat copies of the same packet heard through
// multiple digipeaters within a short time window, using an MD5 hash of the
// source callsign plus info-field content. Ported from
// DuplicateDetector.is_duplicate in the original implementation.
package dedupe

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"sync"
	"time"
)

// DefaultWindow is the sliding window within which a repeated
// source+content hash is considered a digipeated copy of the same packet,
// not a new transmission.
const DefaultWindow = 30 * time.Second

// Detector tracks recently-seen packet hashes. The zero value is not ready
// for use; construct with New.
type Detector struct {
	mu     sync.Mutex
	window time.Duration
	seen   map[string]time.Time
}

// New creates a Detector with the given suppression window.
func New(window time.Duration) *Detector {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Detector{window: window, seen: make(map[string]time.Time)}
}

// IsDuplicate reports whether a packet from callsign carrying info has been
// seen within the window ending at now, recording it if not. Expired
// entries are swept on every call, mirroring the original's per-call
// cache-eviction approach rather than a background sweeper.
func (d *Detector) IsDuplicate(callsign, info string, now time.Time) bool {
	hash := contentHash(callsign, info)

	d.mu.Lock()
	defer d.mu.Unlock()

	for h, ts := range d.seen {
		if now.Sub(ts) > d.window {
			delete(d.seen, h)
		}
	}

	if _, ok := d.seen[hash]; ok {
		return true
	}
	d.seen[hash] = now
	return false
}

// Size returns the number of hashes currently cached, for metrics.
func (d *Detector) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

func contentHash(callsign, info string) string {
	key := strings.ToUpper(callsign) + ":" + info
	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}
