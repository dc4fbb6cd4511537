package object

import "testing"

func TestParse(t *testing.T) {
	info := ";LEADER   *092345z4903.50N/07201.75W-test object"
	o, ok := Parse(info)
	if !ok {
		t.Fatalf("Parse(%q) failed", info)
	}
	if o.Name != "LEADER" {
		t.Errorf("Name = %q, want %q", o.Name, "LEADER")
	}
	if !o.Live {
		t.Error("expected Live=true for '*' flag")
	}
	if o.Position.Lat == 0 && o.Position.Lon == 0 {
		t.Error("expected non-zero position")
	}
}

func TestParseKilled(t *testing.T) {
	info := ";LEADER   _092345z4903.50N/07201.75W-test object"
	o, ok := Parse(info)
	if !ok {
		t.Fatalf("Parse(%q) failed", info)
	}
	if o.Live {
		t.Error("expected Live=false for '_' flag")
	}
}

func TestParseRejectsBadFlag(t *testing.T) {
	info := ";LEADER   X092345z4903.50N/07201.75W-test object"
	if _, ok := Parse(info); ok {
		t.Error("expected rejection for invalid live/killed flag")
	}
}

func TestParseRejectsShort(t *testing.T) {
	if _, ok := Parse(";short"); ok {
		t.Error("expected rejection for short object body")
	}
}
