package classify

import (
	"testing"

	"aprsgw/internal/aprs"
	_ "aprsgw/internal/aprsdialect/position"
	_ "aprsgw/internal/aprsdialect/status"
)

func TestPayloadDispatchesPosition(t *testing.T) {
	p := Payload("APRS", "!4903.50N/07201.75W-test")
	if _, ok := p.(aprs.Position); !ok {
		t.Fatalf("Payload returned %T, want aprs.Position", p)
	}
}

func TestPayloadFallsBackToUnknown(t *testing.T) {
	p := Payload("APRS", "~unrecognised data type")
	if _, ok := p.(aprs.Unknown); !ok {
		t.Fatalf("Payload returned %T, want aprs.Unknown", p)
	}
}

func TestPayloadDetectsMicEBeforeRegistry(t *testing.T) {
	dest := "123456"
	info := string([]byte{'`', 28 + 12, 28 + 34, 28 + 56, 28 + 10, 28 + 10, 28 + 10, '>', '/'})
	p := Payload(dest, info)
	if _, ok := p.(aprs.MicE); !ok {
		t.Fatalf("Payload returned %T, want aprs.MicE", p)
	}
}

func TestNormalizeDestCall(t *testing.T) {
	if got := normalizeDestCall("ab"); got != "AB    " {
		t.Errorf("normalizeDestCall(ab) = %q, want %q", got, "AB    ")
	}
	if got := normalizeDestCall("toolongcall"); got != "TOOLON" {
		t.Errorf("normalizeDestCall(toolongcall) = %q, want %q", got, "TOOLON")
	}
}
