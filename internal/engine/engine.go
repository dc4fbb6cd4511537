// Package engine wires the gateway's pieces (transport, AX.25 codec,
// classifier, station store, message tracker, beacon scheduler, snapshot
// persistence) into the running ingress/egress/maintenance loops. It plays
// the role the teacher's cmd/acars_parser main loop and internal/state
// callback wiring play together, generalized into a long-running service
// instead of a batch/stream-to-completion CLI.
package engine

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"aprsgw/internal/aprs"
	"aprsgw/internal/aprsdialect/thirdparty"
	"aprsgw/internal/ax25"
	"aprsgw/internal/beacon"
	"aprsgw/internal/config"
	"aprsgw/internal/gpssource"
	"aprsgw/internal/msgtrack"
	"aprsgw/internal/snapshot"
	"aprsgw/internal/station"
)

// Transport is the KISS-framed byte stream the Engine reads frames from and
// writes outbound frames to. internal/transport/serial.Transport and any
// io.ReadWriteCloser satisfy it.
type Transport interface {
	io.ReadWriteCloser
}

// Engine owns one running gateway: one transport, one station store, one
// message tracker, and the background tasks that keep them moving.
type Engine struct {
	cfg    config.Config
	tp     Transport
	store  *station.Store
	msgs   *msgtrack.Tracker
	gps    *gpssource.Source
	hub    *Hub
	tracer trace.Tracer
	mx     *metrics

	beaconDue *beacon.DueSchedule
	saveGroup singleflight.Group

	snapshotPath string
	migrations   snapshot.MigrationState

	frameNumber int
}

// New builds an Engine from a loaded configuration and its already-opened
// dependencies. The caller is responsible for running migrations and
// loading the initial snapshot into store/msgs before calling New; the
// resulting migration state is carried forward so periodic saves don't
// forget which migrations have already run.
func New(cfg config.Config, tp Transport, store *station.Store, msgs *msgtrack.Tracker, gps *gpssource.Source, migrations snapshot.MigrationState, reg prometheus.Registerer) *Engine {
	if migrations.Applied == nil {
		migrations.Applied = make(map[string]bool)
	}
	return &Engine{
		cfg:          cfg,
		tp:           tp,
		store:        store,
		msgs:         msgs,
		gps:          gps,
		hub:          NewHub(),
		tracer:       otel.Tracer("aprsgw/engine"),
		mx:           newMetrics(reg),
		beaconDue:    beacon.NewDueSchedule(cfg.BeaconInterval),
		snapshotPath: cfg.DatabasePath,
		migrations:   migrations,
	}
}

// Hub exposes the Engine's event fan-out so a console can Subscribe to
// processed-frame notifications.
func (e *Engine) Hub() *Hub { return e.hub }

// Run starts the ingress, egress, and periodic snapshot tasks and blocks
// until ctx is canceled or one of them returns a non-nil error, in which
// case the others are canceled too.
func (e *Engine) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return e.runIngress(ctx) })
	g.Go(func() error { return e.runEgress(ctx) })
	g.Go(func() error { return e.runSnapshotLoop(ctx) })

	return g.Wait()
}

// runSnapshotLoop periodically persists the station store and message
// tracker to disk, and performs one final save on shutdown so the last few
// minutes of traffic survive a restart.
func (e *Engine) runSnapshotLoop(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := e.Save(context.Background()); err != nil {
				log.Printf("engine: final snapshot save failed: %v", err)
			}
			return nil
		case <-ticker.C:
			if err := e.Save(ctx); err != nil {
				log.Printf("engine: snapshot save failed: %v", err)
			}
		}
	}
}

// Save writes the current store/tracker state to the snapshot path.
// Concurrent callers (the periodic ticker and an operator-triggered save)
// collapse onto a single in-flight write via singleflight, since a second
// identical save started while one is running would just re-read the same
// state and duplicate the I/O.
func (e *Engine) Save(ctx context.Context) error {
	_, err, _ := e.saveGroup.Do(e.snapshotPath, func() (any, error) {
		digiStats := e.store.DigipeaterStats()
		n, err := snapshot.Save(e.snapshotPath, e.store, e.msgs, e.migrations, digiStats, time.Now())
		if err != nil {
			return nil, fmt.Errorf("engine: save snapshot: %w", err)
		}
		e.mx.snapshotSaves.Inc()
		log.Printf("engine: snapshot saved, %d stations", n)
		return n, nil
	})
	return err
}

// runIngress reads KISS-framed bytes from the transport, decodes each
// AX.25 UI frame, and feeds it into the station store and message tracker.
func (e *Engine) runIngress(ctx context.Context) error {
	reader := &ax25.FrameReader{}
	buf := make([]byte, 1024)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		n, err := e.tp.Read(buf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("engine: transport read: %w", err)
		}
		if n == 0 {
			continue
		}

		for _, escaped := range reader.Feed(buf[:n]) {
			e.handleKISSFrame(ctx, escaped)
		}
	}
}

func (e *Engine) handleKISSFrame(ctx context.Context, escaped []byte) {
	_, span := e.tracer.Start(ctx, "engine.handle_frame")
	defer span.End()

	frameType, data, err := ax25.DecodeKISSFrame(escaped)
	if err != nil {
		e.mx.framesDropped.Inc()
		return
	}
	if frameType != ax25.DataFrame {
		return
	}

	uiFrame, err := ax25.ParseUIFrame(data)
	if err != nil {
		e.mx.framesDropped.Inc()
		return
	}

	e.frameNumber++
	at := time.Now()

	info := string(uiFrame.Info)

	// For a third-party/iGate-wrapped packet, the tracked station is the
	// inner, info-embedded SRC (the original transmitting station), and
	// relay_call is the outer AX.25 frame's own Source (the iGate that
	// physically relayed it) — not the other way around.
	source := uiFrame.Source.String()
	relayCall := ""
	if tp, ok := thirdparty.Parse(info); ok {
		relayCall = source
		source = tp.InnerSource
	}

	path := make([]string, 0, len(uiFrame.Path))
	for _, addr := range uiFrame.Path {
		path = append(path, addr.String())
	}

	in := station.ObserveInput{
		Source:         source,
		DestCall:       uiFrame.Dest.Call,
		DigipeaterPath: path,
		RelayCall:      relayCall,
		Info:           info,
		FrameNumber:    e.frameNumber,
		At:             at,
	}

	result := e.store.ObservePacket(in)
	e.mx.packetsReceived.Inc()
	if result.Duplicate {
		e.mx.duplicatesDropped.Inc()
	}

	if msg, ok := result.Payload.(aprs.Message); ok {
		e.msgs.Observe(in.Source, msg, path, at)
	}

	e.hub.Publish(Event{Result: result, Duplicate: result.Duplicate})
}

// runEgress drives outbound traffic: message retries/timeouts and periodic
// position beacons, built into AX.25 UI frames and written to the
// transport.
func (e *Engine) runEgress(ctx context.Context) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			now := time.Now()
			e.sendDueMessages(now)
			e.sendDueBeacon(now)
		}
	}
}

func (e *Engine) sendDueMessages(now time.Time) {
	for _, msg := range e.msgs.CheckExpiredMessages(now) {
		e.msgs.MarkMessageFailed(msg)
	}
	for _, msg := range e.msgs.GetPendingRetries(now) {
		if err := e.sendMessage(msg); err != nil {
			log.Printf("engine: send message to %s failed: %v", msg.ToCall, err)
			continue
		}
		e.msgs.UpdateMessageRetry(msg, now)
		e.mx.messagesSent.Inc()
	}
}

func (e *Engine) sendMessage(msg *msgtrack.Message) error {
	info := fmt.Sprintf(":%-9s:%s", msg.ToCall, msg.Text)
	return e.transmit(info)
}

func (e *Engine) sendDueBeacon(now time.Time) {
	if !e.cfg.BeaconEnabled || !e.beaconDue.Due(now) {
		return
	}

	pos, ok := e.currentPosition()
	if !ok {
		return
	}

	sym := beacon.ParseSymbol(e.cfg.BeaconSymbol)
	info := beacon.BuildInfo(pos, sym, nil, e.cfg.BeaconComment)
	if err := e.transmit(info); err != nil {
		log.Printf("engine: send beacon failed: %v", err)
		return
	}
	e.mx.beaconsSent.Inc()
}

func (e *Engine) currentPosition() (beacon.Position, bool) {
	if e.gps != nil {
		if fix := e.gps.Current(); fix.Valid {
			return fix.Position, true
		}
	}
	if e.cfg.MyLocation == "" {
		return beacon.Position{}, false
	}
	pos, err := beacon.PositionFromGrid(e.cfg.MyLocation)
	if err != nil {
		return beacon.Position{}, false
	}
	return pos, true
}

// transmit builds and writes one outbound UI frame carrying info, addressed
// from our callsign to APRS with the configured beacon path.
func (e *Engine) transmit(info string) error {
	source, err := ax25.ParseAddress(e.cfg.MyCall)
	if err != nil {
		return fmt.Errorf("engine: parse MYCALL: %w", err)
	}
	dest, err := ax25.ParseAddress("APRS")
	if err != nil {
		return fmt.Errorf("engine: parse dest: %w", err)
	}

	path := make([]ax25.Address, 0, len(e.cfg.BeaconPath))
	for _, hop := range e.cfg.BeaconPath {
		addr, err := ax25.ParseAddress(hop)
		if err != nil {
			return fmt.Errorf("engine: parse path hop %q: %w", hop, err)
		}
		path = append(path, addr)
	}

	frame, err := ax25.BuildUIFrame(source, dest, path, []byte(info))
	if err != nil {
		return fmt.Errorf("engine: build frame: %w", err)
	}

	kiss := ax25.EncodeKISSFrame(ax25.DataFrame, frame)
	if _, err := e.tp.Write(kiss); err != nil {
		return fmt.Errorf("engine: transport write: %w", err)
	}
	return nil
}
