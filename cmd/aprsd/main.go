// Command aprsd runs the APRS gateway: it reads KISS-framed AX.25 traffic
// from a TNC, classifies and stores it, tracks addressed messages, and
// beacons our own position, persisting everything to a local snapshot
// file between runs.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "aprsgw/internal/aprsdialect/item"
	_ "aprsgw/internal/aprsdialect/message"
	_ "aprsgw/internal/aprsdialect/object"
	_ "aprsgw/internal/aprsdialect/position"
	_ "aprsgw/internal/aprsdialect/status"
	_ "aprsgw/internal/aprsdialect/telemetry"
	_ "aprsgw/internal/aprsdialect/thirdparty"
	_ "aprsgw/internal/aprsdialect/weatheronly"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"aprsgw/internal/config"
	"aprsgw/internal/dialect"
	"aprsgw/internal/engine"
	"aprsgw/internal/gpssource"
	"aprsgw/internal/migrate"
	"aprsgw/internal/msgtrack"
	"aprsgw/internal/snapshot"
	"aprsgw/internal/station"
	"aprsgw/internal/transport/serial"
)

func usage(w io.Writer) {
	fmt.Fprintln(w, "aprsd - commands:")
	fmt.Fprintln(w, "  run  - run the gateway against a serial TNC")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  aprsd run -mycall N0CALL-9 -port /dev/ttyUSB0 [-baud 9600] [-database aprs.json.gz]")
	fmt.Fprintln(w, "")
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	switch strings.ToLower(os.Args[1]) {
	case "run":
		runGateway(os.Args[2:])
	case "-h", "--help", "help":
		usage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		usage(os.Stderr)
		os.Exit(2)
	}
}

func runGateway(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	myCall := fs.String("mycall", "", "Our station callsign, e.g. N0CALL-9 (required)")
	myAlias := fs.String("myalias", "WIDE1-1", "Digipeater alias we respond to")
	port := fs.String("port", "/dev/ttyUSB0", "Serial TNC device")
	baud := fs.Int("baud", 9600, "Serial baud rate")
	database := fs.String("database", "aprs.json.gz", "Snapshot database path")
	legacyDatabase := fs.String("legacy-database", "", "Legacy uncompressed database, read once if database is missing")
	beaconOn := fs.Bool("beacon", false, "Enable periodic position beaconing")
	beaconInterval := fs.Duration("beacon-interval", 30*time.Minute, "Interval between beacons")
	location := fs.String("location", "", "Maidenhead grid square used when no GPS fix is available")
	gpsDevice := fs.String("gps", "", "Serial NMEA GPS device (optional)")
	gpsBaud := fs.Int("gps-baud", 4800, "GPS serial baud rate")
	metricsAddr := fs.String("metrics-addr", "", "Address to serve /metrics on, e.g. :9100 (disabled if empty)")
	_ = fs.Parse(args)

	if *myCall == "" {
		fmt.Fprintln(os.Stderr, "run: -mycall is required")
		os.Exit(2)
	}

	dialect.Default().Sort()

	cfg := config.Default()
	if errs := cfg.Configure(map[string]string{
		"MYCALL":          *myCall,
		"MYALIAS":         *myAlias,
		"SERIAL_PORT":     *port,
		"SERIAL_BAUD":     fmt.Sprint(*baud),
		"DATABASE_PATH":   *database,
		"BEACON_INTERVAL": fmt.Sprint(int(beaconInterval.Seconds())),
		"METRICS_ADDR":    *metricsAddr,
	}); len(errs) > 0 {
		for _, err := range errs {
			log.Printf("config: %v", err)
		}
		os.Exit(2)
	}
	cfg.BeaconEnabled = *beaconOn
	cfg.LegacyDatabasePath = *legacyDatabase
	if *location != "" {
		if errs := cfg.Configure(map[string]string{"MYLOCATION": *location}); len(errs) > 0 {
			log.Fatalf("config: %v", errs[0])
		}
	}
	cfg.GPSDevice = *gpsDevice
	cfg.GPSBaud = *gpsBaud

	store := station.New(cfg.DedupeWindow)
	msgs := msgtrack.NewWithRetry(cfg.MyCall, cfg.MaxRetries, cfg.RetryFast, cfg.RetrySlow)

	migState, err := snapshot.Load(cfg.DatabasePath, cfg.LegacyDatabasePath, store, msgs)
	if err != nil {
		log.Fatalf("snapshot: load %s: %v", cfg.DatabasePath, err)
	}
	if migState.Applied == nil {
		migState.Applied = make(map[string]bool)
	}

	migResults := migrate.RunPending(store, migrate.Config{MyCall: cfg.MyCall, MyAlias: cfg.MyAlias}, migState.Applied)
	for _, r := range migResults {
		if r.Skipped != "" {
			continue
		}
		log.Printf("migrate: applied %s: %v", r.ID, r.Stats)
	}

	tp, err := serial.Open(cfg.SerialPort, cfg.SerialBaud, 500*time.Millisecond)
	if err != nil {
		log.Fatalf("serial: %v", err)
	}
	defer tp.Close()

	var gps *gpssource.Source
	if cfg.GPSDevice != "" {
		gpsPort, err := serial.Open(cfg.GPSDevice, cfg.GPSBaud, 2*time.Second)
		if err != nil {
			log.Fatalf("gps serial: %v", err)
		}
		defer gpsPort.Close()
		gps = gpssource.New()
		go func() {
			if err := gps.Run(gpsPort); err != nil {
				log.Printf("gps: %v", err)
			}
		}()
	}

	reg := prometheus.NewRegistry()
	e := engine.New(cfg, tp, store, msgs, gps, migState, reg)

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			log.Printf("metrics: serving on %s", cfg.MetricsAddr)
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				log.Printf("metrics: server stopped: %v", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("aprsd: running as %s, %s stations loaded", cfg.MyCall, humanize.Comma(int64(store.Count())))
	if err := e.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("engine: %v", err)
	}
	log.Println("aprsd: shut down")
}
