package wx

import "testing"

func TestExtractTemperatureBelow200IsLiteral(t *testing.T) {
	w, found, _ := Extract("t077")
	if !found {
		t.Fatal("expected a weather match")
	}
	if !w.HasTemperatureF || w.TemperatureF != 77 {
		t.Errorf("TemperatureF = %d, want 77", w.TemperatureF)
	}
}

func TestExtractTemperatureAbove200IsTwosComplementNegative(t *testing.T) {
	w, found, _ := Extract("t253")
	if !found {
		t.Fatal("expected a weather match")
	}
	if !w.HasTemperatureF || w.TemperatureF != -3 {
		t.Errorf("TemperatureF = %d, want -3", w.TemperatureF)
	}
}
