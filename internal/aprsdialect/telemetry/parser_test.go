package telemetry

import "testing"

func TestParse(t *testing.T) {
	cases := []struct {
		name string
		info string
		ok   bool
	}{
		{"well formed", "T#005,099,129,055,000,003,00000000", true},
		{"sequence at upper bound 999", "T#999,099,129,055,000,003,00000000", true},
		{"analog out of range", "T#005,999,129,055,000,003,00000000", false},
		{"digital wrong length", "T#005,099,129,055,000,003,0000", false},
		{"digital non-binary", "T#005,099,129,055,000,003,0000000x", false},
		{"missing fields", "T#005,099", false},
		{"wrong prefix", "!005,099,129,055,000,003,00000000", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := Parse(tc.info)
			if ok != tc.ok {
				t.Errorf("Parse(%q) ok = %v, want %v", tc.info, ok, tc.ok)
			}
		})
	}
}

func TestParseFieldValues(t *testing.T) {
	tm, ok := Parse("T#005,099,129,055,000,003,00000000")
	if !ok {
		t.Fatal("Parse failed")
	}
	if tm.Sequence != 5 {
		t.Errorf("Sequence = %d, want 5", tm.Sequence)
	}
	want := [5]int{99, 129, 55, 0, 3}
	if tm.Analog != want {
		t.Errorf("Analog = %v, want %v", tm.Analog, want)
	}
	if tm.Digital != "00000000" {
		t.Errorf("Digital = %q, want %q", tm.Digital, "00000000")
	}
}

func TestIsTelemetryConfig(t *testing.T) {
	cases := map[string]bool{
		"PARM.Voltage,Temp":     true,
		"UNIT.V,F":              true,
		"EQNS.0,1,0":            true,
		"BITS.11111111,project": true,
		"hello world":           false,
	}
	for text, want := range cases {
		if got := IsTelemetryConfig(text); got != want {
			t.Errorf("IsTelemetryConfig(%q) = %v, want %v", text, got, want)
		}
	}
}
