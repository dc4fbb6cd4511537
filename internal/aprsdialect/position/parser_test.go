package position

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestParseUncompressed(t *testing.T) {
	cases := []struct {
		name    string
		info    string
		wantLat float64
		wantLon float64
		wantSym [2]byte
	}{
		{
			name:    "no timestamp, north/west",
			info:    "!4903.50N/07201.75W-Test",
			wantLat: 49 + 3.50/60,
			wantLon: -(72 + 1.75/60),
			wantSym: [2]byte{'/', '-'},
		},
		{
			name:    "timestamp, south/east",
			info:    "/092345z4903.50S/07201.75E-Test",
			wantLat: -(49 + 3.50/60),
			wantLon: 72 + 1.75/60,
			wantSym: [2]byte{'/', '-'},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pos, ok := Parse(tc.info)
			if !ok {
				t.Fatalf("Parse(%q) failed", tc.info)
			}
			if !almostEqual(pos.Lat, tc.wantLat, 1e-6) {
				t.Errorf("Lat = %v, want %v", pos.Lat, tc.wantLat)
			}
			if !almostEqual(pos.Lon, tc.wantLon, 1e-6) {
				t.Errorf("Lon = %v, want %v", pos.Lon, tc.wantLon)
			}
			if pos.SymbolTable != tc.wantSym[0] || pos.SymbolCode != tc.wantSym[1] {
				t.Errorf("symbol = %c%c, want %c%c", pos.SymbolTable, pos.SymbolCode, tc.wantSym[0], tc.wantSym[1])
			}
			if pos.GridSquare == "" {
				t.Error("GridSquare not populated")
			}
		})
	}
}

func TestParseRejectsNullIsland(t *testing.T) {
	if _, ok := Parse("!0000.00N00000.00E-"); ok {
		t.Error("expected Null Island position to be rejected")
	}
}

func TestParseCompressedRoundTripsSane(t *testing.T) {
	// A known compressed position example (APRS101.pdf figure): lat near
	// 49.5, lon near -72.75.
	info := "!/5L!!<*e7>7P[practice position]"
	pos, ok := Parse(info)
	if !ok {
		t.Fatalf("Parse(%q) failed", info)
	}
	if pos.Lat < -90 || pos.Lat > 90 {
		t.Errorf("Lat out of range: %v", pos.Lat)
	}
	if pos.Lon < -180 || pos.Lon > 180 {
		t.Errorf("Lon out of range: %v", pos.Lon)
	}
}

func TestParseEmbeddedWeather(t *testing.T) {
	info := "!4903.50N/07201.75W_090/005g010t077r000p000h50b10140"
	pos, ok := Parse(info)
	if !ok {
		t.Fatalf("Parse(%q) failed", info)
	}
	if pos.Weather == nil {
		t.Fatal("expected embedded weather to be extracted")
	}
	if !pos.Weather.HasTemperatureF || pos.Weather.TemperatureF != 77 {
		t.Errorf("TemperatureF = %v (has=%v), want 77", pos.Weather.TemperatureF, pos.Weather.HasTemperatureF)
	}
}

func TestParseRejectsWrongPrefix(t *testing.T) {
	if _, ok := Parse(">status text"); ok {
		t.Error("expected non-position DTI to be rejected")
	}
}

func TestParseRejectsShortBody(t *testing.T) {
	if _, ok := Parse("!short"); ok {
		t.Error("expected short uncompressed body to be rejected")
	}
}
