package status

import (
	"testing"

	"aprsgw/internal/aprs"
)

func TestParserParse(t *testing.T) {
	p := &Parser{}
	result := p.Parse(">Net control station")
	st, ok := result.(aprs.Status)
	if !ok {
		t.Fatalf("Parse did not return aprs.Status, got %T", result)
	}
	if st.Text != "Net control station" {
		t.Errorf("Text = %q, want %q", st.Text, "Net control station")
	}
}

func TestParserQuickCheck(t *testing.T) {
	p := &Parser{}
	if !p.QuickCheck(">hello") {
		t.Error("QuickCheck should accept '>' prefix")
	}
	if p.QuickCheck("!hello") {
		t.Error("QuickCheck should reject non-'>' prefix")
	}
}

func TestParserTrimsWhitespace(t *testing.T) {
	p := &Parser{}
	result := p.Parse(">   padded text   ")
	st, ok := result.(aprs.Status)
	if !ok {
		t.Fatalf("Parse did not return aprs.Status, got %T", result)
	}
	if st.Text != "padded text" {
		t.Errorf("Text = %q, want trimmed %q", st.Text, "padded text")
	}
}

func TestParserRejectsWrongPrefix(t *testing.T) {
	p := &Parser{}
	if p.Parse("!not status") != nil {
		t.Error("expected nil for non-status DTI")
	}
}
