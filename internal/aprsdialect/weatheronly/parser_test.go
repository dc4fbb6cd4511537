package weatheronly

import "testing"

func TestParseWeatherOnly(t *testing.T) {
	info := "_10090556c220s004g005t077r000p000P000h50b09900wRSW"
	w, ok := Parse(info)
	if !ok {
		t.Fatalf("Parse(%q) failed", info)
	}
	if !w.HasWindDir || w.WindDirDeg != 220 {
		t.Errorf("WindDirDeg = %v (has=%v), want 220", w.WindDirDeg, w.HasWindDir)
	}
	if !w.HasWindSpeed || w.WindSpeedMph != 4 {
		t.Errorf("WindSpeedMph = %v (has=%v), want 4", w.WindSpeedMph, w.HasWindSpeed)
	}
	if !w.HasTemperatureF || w.TemperatureF != 77 {
		t.Errorf("TemperatureF = %v (has=%v), want 77", w.TemperatureF, w.HasTemperatureF)
	}
	if !w.HasHumidity || w.HumidityPct != 50 {
		t.Errorf("HumidityPct = %v (has=%v), want 50", w.HumidityPct, w.HasHumidity)
	}
}

func TestParseWeatherOnlyRejectsWrongPrefix(t *testing.T) {
	if _, ok := Parse("!4903.50N/07201.75W-"); ok {
		t.Error("expected non-weather DTI to be rejected")
	}
}

func TestParseWeatherOnlyRejectsNoFields(t *testing.T) {
	if _, ok := Parse("_just a comment, no weather fields"); ok {
		t.Error("expected weather-only packet with no recognisable fields to be rejected")
	}
}
