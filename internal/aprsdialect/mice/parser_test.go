package mice

import "testing"

func TestIsMicE(t *testing.T) {
	cases := map[string]bool{
		"`abc123}_\"":         true,
		"'abc123}_\"":         true,
		string([]byte{0x1c}) + "abc": true,
		"!not mic-e at all":   false,
		"":                    false,
	}
	for info, want := range cases {
		if got := IsMicE(info); got != want {
			t.Errorf("IsMicE(%q) = %v, want %v", info, got, want)
		}
	}
}

func TestParseDecodesAllDigitDestination(t *testing.T) {
	// An all-digit destination carries latitude 12°34.56', South (no
	// North/P-Y marker on digit 3), no longitude offset, East.
	dest := "123456"
	info := string([]byte{'`', 28 + 12, 28 + 34, 28 + 56, 28 + 10, 28 + 10, 28 + 10, '>', '/'})
	m, ok := Parse(dest, info)
	if !ok {
		t.Fatalf("Parse(%q, %q) failed", dest, info)
	}
	wantLat := 12 + 34.56/60
	if diff := m.Position.Lat - (-wantLat); diff > 1e-6 || diff < -1e-6 {
		t.Errorf("Lat = %v, want %v (south)", m.Position.Lat, -wantLat)
	}
}

func TestParseDecodesSpeedAndCourse(t *testing.T) {
	// Bytes 4, 5, 6 are chosen distinct (12, 34, 56 after the -28 offset)
	// so the test fails if the speed/course byte roles are transposed,
	// unlike the symmetric fixture above.
	dest := "123456"
	info := string([]byte{'`', 28 + 10, 28 + 10, 28 + 10, 28 + 12, 28 + 34, 28 + 56, '>', '/'})
	m, ok := Parse(dest, info)
	if !ok {
		t.Fatalf("Parse(%q, %q) failed", dest, info)
	}
	// speed = (info[4]-28)*10 + ((info[5]-28)/10 mod 10)/10 = 12*10 + (34/10%10)/10 = 120.3
	if diff := m.Position.SpeedKnots - 120.3; diff > 1e-6 || diff < -1e-6 {
		t.Errorf("SpeedKnots = %v, want 120.3", m.Position.SpeedKnots)
	}
	// course = ((info[5]-28) mod 10)*100 + (info[6]-28) = (34%10)*100 + 56 = 456, wrapped -400 = 56
	if m.Position.CourseDeg != 56 {
		t.Errorf("CourseDeg = %v, want 56", m.Position.CourseDeg)
	}
}

func TestParseRejectsShortInfo(t *testing.T) {
	if _, ok := Parse("123456", "`a"); ok {
		t.Error("expected rejection for info field shorter than 9 bytes")
	}
}

func TestParseRejectsBadDestLength(t *testing.T) {
	if _, ok := Parse("12345", "`12345678"); ok {
		t.Error("expected rejection for destination call not exactly 6 characters")
	}
}

func TestCleanStatusTextStripsTypeIndicator(t *testing.T) {
	got := cleanStatusText(">Hello World")
	if got != "Hello World" {
		t.Errorf("cleanStatusText = %q, want %q", got, "Hello World")
	}
}

func TestCleanStatusTextSuppressesGibberish(t *testing.T) {
	got := cleanStatusText(">###$$$%%%^^^&&&")
	if got != "" {
		t.Errorf("cleanStatusText = %q, want empty (gibberish suppressed)", got)
	}
}

func TestCleanStatusTextEmpty(t *testing.T) {
	if got := cleanStatusText(""); got != "" {
		t.Errorf("cleanStatusText(\"\") = %q, want empty", got)
	}
}
