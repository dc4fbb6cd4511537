// Package config holds the gateway's runtime configuration: a fixed set of
// named settings, populated from a flat string map the way the original's
// TNC config (MYCALL/MYALIAS/BEACON/...) was get/set by key, validated
// field-by-field on load. Grounded on the teacher's storage.Config/
// DefaultConfig() shape (a plain struct with a default constructor, no
// generic reflection-based binding).
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config is every setting the gateway needs at startup, translated from the
// original's flat MYCALL/MYALIAS/BEACON/... key space into typed fields.
type Config struct {
	MyCall  string // station callsign, with or without SSID
	MyAlias string // digipeater alias we respond to, e.g. "WIDE1-1"

	BeaconEnabled  bool
	BeaconInterval time.Duration
	BeaconSymbol   string // two characters, table then code
	BeaconComment  string
	BeaconPath     []string // digipeater path for our own beacons, e.g. ["WIDE1-1"]

	MyLocation string // Maidenhead grid square, used when no GPS fix is available

	DedupeWindow time.Duration

	RetryFast  time.Duration
	RetrySlow  time.Duration
	MaxRetries int

	DatabasePath       string
	LegacyDatabasePath string
	PruneDays          int

	SerialPort string
	SerialBaud int

	GPSDevice string
	GPSBaud   int

	MetricsAddr string // empty disables the /metrics endpoint
}

// Default returns the configuration the gateway starts with before any
// settings are applied, mirroring DefaultConfig()'s local-development
// baseline.
func Default() Config {
	return Config{
		MyAlias:        "WIDE1-1",
		BeaconEnabled:  false,
		BeaconInterval: 30 * time.Minute,
		BeaconSymbol:   "/[",
		BeaconPath:     []string{"WIDE1-1"},
		DedupeWindow:   30 * time.Second,
		RetryFast:      20 * time.Second,
		RetrySlow:      600 * time.Second,
		MaxRetries:     3,
		DatabasePath:   "aprs.json.gz",
		PruneDays:      30,
		SerialPort:     "/dev/ttyUSB0",
		SerialBaud:     9600,
		GPSBaud:        4800,
		MetricsAddr:    "",
	}
}

// FieldError reports that one setting in a Configure call was rejected;
// every other field in the same call is still applied. The prior value of
// the rejected field is left untouched.
type FieldError struct {
	Key    string
	Value  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("config: rejected %s=%q: %s", e.Key, e.Value, e.Reason)
}

// Configure applies a flat key/value settings map onto cfg, validating each
// field independently: an invalid value is reported and its field is left
// at its prior value, but every other valid key in settings still takes
// effect. Keys are matched case-insensitively against the original TNC
// config's naming (MYCALL, MYALIAS, BEACON, BEACON_INTERVAL, BEACON_SYMBOL,
// BEACON_COMMENT, BEACON_PATH, MYLOCATION, DEDUPE_WINDOW, RETRY, RETRY_FAST,
// RETRY_SLOW, DATABASE_PATH, LEGACY_DATABASE_PATH, PRUNE_DAYS, SERIAL_PORT,
// SERIAL_BAUD, GPS_DEVICE,
// GPS_BAUD, METRICS_ADDR). Unknown keys are reported as errors but do not
// abort the rest of the settings.
func (cfg *Config) Configure(settings map[string]string) []error {
	var errs []error
	reject := func(key, value, reason string) {
		errs = append(errs, &FieldError{Key: key, Value: value, Reason: reason})
	}

	for key, value := range settings {
		upper := strings.ToUpper(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch upper {
		case "MYCALL":
			call := strings.ToUpper(value)
			if call == "" || len(strings.SplitN(call, "-", 2)[0]) > 6 {
				reject(key, value, "callsign must be 1-6 characters, optionally with -SSID")
				continue
			}
			cfg.MyCall = call

		case "MYALIAS":
			if value == "" {
				reject(key, value, "alias must not be empty")
				continue
			}
			cfg.MyAlias = strings.ToUpper(value)

		case "BEACON":
			b, err := parseOnOff(value)
			if err != nil {
				reject(key, value, err.Error())
				continue
			}
			cfg.BeaconEnabled = b

		case "BEACON_INTERVAL":
			secs, err := strconv.Atoi(value)
			if err != nil || secs <= 0 {
				reject(key, value, "must be a positive integer number of seconds")
				continue
			}
			cfg.BeaconInterval = time.Duration(secs) * time.Second

		case "BEACON_SYMBOL":
			if len(value) != 2 {
				reject(key, value, "must be exactly two characters: symbol table then code")
				continue
			}
			cfg.BeaconSymbol = value

		case "BEACON_COMMENT":
			cfg.BeaconComment = value

		case "BEACON_PATH":
			cfg.BeaconPath = splitPath(value)

		case "MYLOCATION":
			if len(value) != 4 && len(value) != 6 && len(value) != 8 {
				reject(key, value, "must be a 4, 6, or 8 character Maidenhead grid square")
				continue
			}
			cfg.MyLocation = strings.ToUpper(value)

		case "DEDUPE_WINDOW":
			secs, err := strconv.Atoi(value)
			if err != nil || secs <= 0 {
				reject(key, value, "must be a positive integer number of seconds")
				continue
			}
			cfg.DedupeWindow = time.Duration(secs) * time.Second

		case "RETRY":
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				reject(key, value, "must be a non-negative integer")
				continue
			}
			cfg.MaxRetries = n

		case "RETRY_FAST":
			secs, err := strconv.Atoi(value)
			if err != nil || secs <= 0 {
				reject(key, value, "must be a positive integer number of seconds")
				continue
			}
			cfg.RetryFast = time.Duration(secs) * time.Second

		case "RETRY_SLOW":
			secs, err := strconv.Atoi(value)
			if err != nil || secs <= 0 {
				reject(key, value, "must be a positive integer number of seconds")
				continue
			}
			cfg.RetrySlow = time.Duration(secs) * time.Second

		case "DATABASE_PATH":
			if value == "" {
				reject(key, value, "must not be empty")
				continue
			}
			cfg.DatabasePath = value

		case "LEGACY_DATABASE_PATH":
			cfg.LegacyDatabasePath = value

		case "PRUNE_DAYS":
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				reject(key, value, "must be a non-negative integer")
				continue
			}
			cfg.PruneDays = n

		case "SERIAL_PORT":
			if value == "" {
				reject(key, value, "must not be empty")
				continue
			}
			cfg.SerialPort = value

		case "SERIAL_BAUD":
			n, err := strconv.Atoi(value)
			if err != nil || n <= 0 {
				reject(key, value, "must be a positive integer baud rate")
				continue
			}
			cfg.SerialBaud = n

		case "GPS_DEVICE":
			cfg.GPSDevice = value

		case "GPS_BAUD":
			n, err := strconv.Atoi(value)
			if err != nil || n <= 0 {
				reject(key, value, "must be a positive integer baud rate")
				continue
			}
			cfg.GPSBaud = n

		case "METRICS_ADDR":
			cfg.MetricsAddr = value

		default:
			reject(key, value, "unknown setting")
		}
	}

	return errs
}

func parseOnOff(value string) (bool, error) {
	switch strings.ToUpper(value) {
	case "ON", "TRUE", "1", "YES":
		return true, nil
	case "OFF", "FALSE", "0", "NO", "":
		return false, nil
	default:
		return false, fmt.Errorf("must be ON or OFF")
	}
}

func splitPath(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
