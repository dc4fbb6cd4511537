package config

import (
	"testing"
	"time"
)

func TestConfigureAppliesValidFields(t *testing.T) {
	cfg := Default()
	errs := cfg.Configure(map[string]string{
		"MYCALL":          "n0call-9",
		"MYALIAS":         "wide2-1",
		"BEACON":          "on",
		"BEACON_INTERVAL": "600",
		"MYLOCATION":      "fn20qi",
	})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if cfg.MyCall != "N0CALL-9" {
		t.Errorf("MyCall = %q, want N0CALL-9", cfg.MyCall)
	}
	if cfg.MyAlias != "WIDE2-1" {
		t.Errorf("MyAlias = %q, want WIDE2-1", cfg.MyAlias)
	}
	if !cfg.BeaconEnabled {
		t.Error("expected BeaconEnabled true")
	}
	if cfg.BeaconInterval != 600*time.Second {
		t.Errorf("BeaconInterval = %v, want 600s", cfg.BeaconInterval)
	}
	if cfg.MyLocation != "FN20QI" {
		t.Errorf("MyLocation = %q, want FN20QI", cfg.MyLocation)
	}
}

func TestConfigureRejectsInvalidFieldsKeepingPriorValue(t *testing.T) {
	cfg := Default()
	cfg.MyCall = "N0CALL"

	errs := cfg.Configure(map[string]string{
		"MYCALL":     "", // invalid: empty
		"MYLOCATION": "bad",
		"RETRY":      "not-a-number",
	})
	if len(errs) != 3 {
		t.Fatalf("expected 3 errors, got %d: %v", len(errs), errs)
	}
	if cfg.MyCall != "N0CALL" {
		t.Errorf("MyCall should be unchanged after rejection, got %q", cfg.MyCall)
	}
	if cfg.MyLocation != "" {
		t.Errorf("MyLocation should be unchanged after rejection, got %q", cfg.MyLocation)
	}
}

func TestConfigureAppliesValidKeysDespiteOtherErrors(t *testing.T) {
	cfg := Default()
	errs := cfg.Configure(map[string]string{
		"MYCALL":  "N0CALL",
		"UNKNOWN": "whatever",
	})
	if len(errs) != 1 {
		t.Fatalf("expected 1 error for the unknown key, got %d", len(errs))
	}
	if cfg.MyCall != "N0CALL" {
		t.Errorf("valid key should still apply despite the other error, got MyCall=%q", cfg.MyCall)
	}
}

func TestConfigureBeaconPathSplitsOnComma(t *testing.T) {
	cfg := Default()
	cfg.Configure(map[string]string{"BEACON_PATH": "WIDE1-1, WIDE2-1"})
	want := []string{"WIDE1-1", "WIDE2-1"}
	if len(cfg.BeaconPath) != 2 || cfg.BeaconPath[0] != want[0] || cfg.BeaconPath[1] != want[1] {
		t.Errorf("BeaconPath = %v, want %v", cfg.BeaconPath, want)
	}
}

func TestConfigureBeaconSymbolRequiresTwoChars(t *testing.T) {
	cfg := Default()
	prior := cfg.BeaconSymbol
	errs := cfg.Configure(map[string]string{"BEACON_SYMBOL": "/"})
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d", len(errs))
	}
	if cfg.BeaconSymbol != prior {
		t.Errorf("BeaconSymbol should be unchanged, got %q", cfg.BeaconSymbol)
	}
}
