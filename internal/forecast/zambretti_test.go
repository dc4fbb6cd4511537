package forecast

import "testing"

func TestAdjustPressureToSeaLevelNoAltitude(t *testing.T) {
	got := AdjustPressureToSeaLevel(1000, 0, 0, false)
	if got != 1000 {
		t.Errorf("got %v, want 1000 (no-op at sea level)", got)
	}
}

func TestAdjustPressureToSeaLevelRaisesPressure(t *testing.T) {
	got := AdjustPressureToSeaLevel(1000, 500, 0, false)
	if got <= 1000 {
		t.Errorf("got %v, want > 1000 (reduced to sea level from altitude)", got)
	}
}

func TestCalculateCodeSteadyMidRange(t *testing.T) {
	code := CalculateCode(1013, TrendSteady, 0, false, 0, HemisphereNorth)
	if code < 0 || code > 25 {
		t.Fatalf("code out of range: %d", code)
	}
}

func TestCalculateCodeHighPressureRisingIsSettled(t *testing.T) {
	code := CalculateCode(1040, TrendRising, 0, false, 0, HemisphereNorth)
	if code != 0 && code != 1 {
		t.Errorf("expected a settled/fine code for high rising pressure, got %d (%s)", code, Describe(code))
	}
}

func TestCalculateCodeLowPressureFallingIsStormy(t *testing.T) {
	code := CalculateCode(960, TrendFalling, 0, false, 0, HemisphereNorth)
	if code < 20 {
		t.Errorf("expected an unsettled/stormy code for low falling pressure, got %d (%s)", code, Describe(code))
	}
}

func TestCalculateCodeWindAdjustmentShiftsResult(t *testing.T) {
	withoutWind := CalculateCode(1013, TrendSteady, 0, false, 0, HemisphereNorth)
	withWind := CalculateCode(1013, TrendSteady, 180, true, 0, HemisphereNorth) // S wind, -12% in the north
	if withWind <= withoutWind {
		t.Errorf("southerly wind should push toward unsettled (higher code), got without=%d with=%d", withoutWind, withWind)
	}
}

func TestCalculateCodeSeasonalAdjustmentNorthSummer(t *testing.T) {
	rising := CalculateCode(1013, TrendRising, 0, false, 7, HemisphereNorth)   // July, summer
	risingWinter := CalculateCode(1013, TrendRising, 0, false, 1, HemisphereNorth) // January, no adjustment
	if rising > risingWinter {
		t.Errorf("summer rising adjustment should never push toward a worse forecast than winter: summer=%d winter=%d", rising, risingWinter)
	}
}

func TestNearestCardinal(t *testing.T) {
	cases := map[float64]string{
		0:   "N",
		10:  "N",
		90:  "E",
		180: "S",
		359: "N",
	}
	for deg, want := range cases {
		if got := nearestCardinal(deg); got != want {
			t.Errorf("nearestCardinal(%v) = %q, want %q", deg, got, want)
		}
	}
}

func TestDescribeOutOfRange(t *testing.T) {
	if Describe(-1) != "" || Describe(26) != "" {
		t.Error("expected empty description for out-of-range codes")
	}
	if Describe(0) != "Settled fine" {
		t.Errorf("Describe(0) = %q, want %q", Describe(0), "Settled fine")
	}
}
