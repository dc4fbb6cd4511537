package maidenhead

import (
	"math"
	"testing"
)

func TestEncodeKnownPoint(t *testing.T) {
	// N1ABC-9 at approximately 42.1742N, -71.8833W should fall in FN42.
	grid := Encode(42.1742, -71.8833)
	if grid[:4] != "FN42" {
		t.Errorf("Encode(42.1742, -71.8833) = %q, want prefix FN42", grid)
	}
}

func TestRoundTripAllLengths(t *testing.T) {
	for _, length := range []int{2, 4, 6, 8, 10} {
		grid, err := EncodeLength(42.1742, -71.8833, length)
		if err != nil {
			t.Fatalf("EncodeLength(%d): %v", length, err)
		}
		lat, lon, err := Decode(grid)
		if err != nil {
			t.Fatalf("Decode(%q): %v", grid, err)
		}
		back, err := EncodeLength(lat, lon, length)
		if err != nil {
			t.Fatalf("EncodeLength round trip: %v", err)
		}
		if back != grid {
			t.Errorf("round trip at length %d: got %q, want %q", length, back, grid)
		}
	}
}

func TestDecodeReturnsCentre(t *testing.T) {
	lat, lon, err := Decode("FN")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	// Field F=5 spans lon -80..-60 and N=13 spans lat 40..50, so the
	// centre is lat 45, lon -70.
	if math.Abs(lat-45) > 1e-9 || math.Abs(lon-(-70)) > 1e-9 {
		t.Errorf("Decode(\"FN\") = (%v, %v), want centre (45, -70)", lat, lon)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		t.Errorf("decoded centre out of range: lat=%v lon=%v", lat, lon)
	}
}

func TestDecodeRejectsBadLength(t *testing.T) {
	if _, _, err := Decode("F"); err == nil {
		t.Fatal("expected error for odd length")
	}
	if _, _, err := Decode("FN31PR12AB34"); err == nil {
		t.Fatal("expected error for length > 10")
	}
}

func TestDecodeRejectsBadField(t *testing.T) {
	if _, _, err := Decode("11"); err == nil {
		t.Fatal("expected error for non-letter field")
	}
}
