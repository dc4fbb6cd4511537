// Package gpssource implements the reference GPS position source: a serial
// NMEA 0183 feed parsed with github.com/adrianmo/go-nmea, the parser the
// pack's montge-stratux example carries in its go.mod for this exact job.
// Feeds beacon.Position fixes from GGA (position/altitude) and RMC
// (position-only) sentences; the latest valid sentence of either kind
// replaces the fix, so an RMC fix carries no altitude.
package gpssource

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/adrianmo/go-nmea"

	"aprsgw/internal/beacon"
)

// Fix is the most recent GPS position and whether it is valid.
type Fix struct {
	Position beacon.Position
	Valid    bool
}

// Source reads NMEA sentences from a stream and keeps the most recent
// valid fix, guarded by a mutex since the reader goroutine and the
// beacon-scheduling goroutine run concurrently.
type Source struct {
	mu  sync.RWMutex
	fix Fix
}

// New creates an empty Source with no fix yet recorded.
func New() *Source {
	return &Source{}
}

// Current returns the most recently parsed fix. Valid is false until at
// least one GGA or RMC sentence with a good fix quality has been seen.
func (s *Source) Current() Fix {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fix
}

// Run reads newline-delimited NMEA sentences from r until it returns EOF or
// an error, updating the current fix as GGA/RMC sentences arrive. Malformed
// or irrelevant sentences are skipped, not treated as fatal.
func (s *Source) Run(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		s.ingest(line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("gpssource: read NMEA stream: %w", err)
	}
	return nil
}

func (s *Source) ingest(line string) {
	sentence, err := nmea.Parse(line)
	if err != nil {
		return
	}

	switch v := sentence.(type) {
	case nmea.GGA:
		if v.FixQuality == nmea.Invalid {
			return
		}
		s.setFix(Fix{
			Position: beacon.Position{
				Lat:            v.Latitude,
				Lon:            v.Longitude,
				AltitudeMeters: v.Altitude,
				HasAltitude:    true,
				Source:         "GPS",
			},
			Valid: true,
		})
	case nmea.RMC:
		if v.Validity != nmea.ValidRMC {
			return
		}
		s.setFix(Fix{
			Position: beacon.Position{
				Lat:    v.Latitude,
				Lon:    v.Longitude,
				Source: "GPS",
			},
			Valid: true,
		})
	}
}

func (s *Source) setFix(f Fix) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fix = f
}
