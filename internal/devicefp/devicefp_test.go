package devicefp

import "testing"

func TestByTocallExactMatch(t *testing.T) {
	id := Default()
	info, ok := id.ByTocall("APRS")
	if !ok {
		t.Fatal("expected a match for APRS")
	}
	if info.Vendor != "Generic" {
		t.Errorf("Vendor = %q, want %q", info.Vendor, "Generic")
	}
}

func TestByTocallWildcard(t *testing.T) {
	id := Default()
	info, ok := id.ByTocall("APDR15-1")
	if !ok {
		t.Fatal("expected a wildcard match for APDR15-1")
	}
	if info.Vendor != "Byonics" {
		t.Errorf("Vendor = %q, want %q", info.Vendor, "Byonics")
	}
}

func TestByTocallLongestMatchWins(t *testing.T) {
	id := Default()
	// APRX2? (quality 5) should beat APRX?? (quality 4) for "APRX20".
	info, ok := id.ByTocall("APRX20")
	if !ok {
		t.Fatal("expected a match for APRX20")
	}
	if info.Class != "igate" {
		t.Errorf("Class = %q, want %q (longest/most-specific match)", info.Class, "igate")
	}
}

func TestByTocallNoMatch(t *testing.T) {
	id := Default()
	if _, ok := id.ByTocall("ZZZZZZ"); ok {
		t.Error("expected no match for an unrecognised tocall")
	}
}

func TestMatchTocallWildcards(t *testing.T) {
	cases := []struct {
		pattern, call string
		want          bool
	}{
		{"APY???", "APY500", true},
		{"APY???", "APY5000", false},
		{"APN*", "APN391", true},
		{"APK00?", "APK003", true},
		{"APK00?", "APK01", false},
	}
	for _, tc := range cases {
		if got := matchTocall(tc.pattern, tc.call); got != tc.want {
			t.Errorf("matchTocall(%q, %q) = %v, want %v", tc.pattern, tc.call, got, tc.want)
		}
	}
}

func TestByMicESuffixNewStyle(t *testing.T) {
	id := Default()
	info, ok := id.ByMicESuffix(`some comment text"TT`)
	if !ok {
		t.Fatal("expected a match for the TT suffix")
	}
	if info.Vendor != "Byonics" {
		t.Errorf("Vendor = %q, want %q", info.Vendor, "Byonics")
	}
}

func TestByMicESuffixLegacy(t *testing.T) {
	id := Default()
	info, ok := id.ByMicESuffix(">old kenwood suffix=")
	if !ok {
		t.Fatal("expected a legacy prefix+suffix match")
	}
	if info.Vendor != "Kenwood" {
		t.Errorf("Vendor = %q, want %q", info.Vendor, "Kenwood")
	}
}

func TestByMicESuffixTooShort(t *testing.T) {
	id := Default()
	if _, ok := id.ByMicESuffix("x"); ok {
		t.Error("expected no match for comment under 2 characters")
	}
}

func TestClassDescription(t *testing.T) {
	id := Default()
	if got := id.ClassDescription("wx"); got != "Weather station" {
		t.Errorf("ClassDescription(wx) = %q, want %q", got, "Weather station")
	}
	if got := id.ClassDescription("unknown-class"); got != "unknown-class" {
		t.Errorf("ClassDescription(unknown-class) = %q, want itself", got)
	}
}
