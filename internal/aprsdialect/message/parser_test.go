package message

import "testing"

func TestParse(t *testing.T) {
	info := ":N1ABC-9  :Hello there{001"
	m, ok := Parse(info)
	if !ok {
		t.Fatalf("Parse(%q) failed", info)
	}
	if m.ToCall != "N1ABC-9" {
		t.Errorf("ToCall = %q, want %q", m.ToCall, "N1ABC-9")
	}
	if m.Text != "Hello there" {
		t.Errorf("Text = %q, want %q", m.Text, "Hello there")
	}
	if m.MessageID != "001" {
		t.Errorf("MessageID = %q, want %q", m.MessageID, "001")
	}
}

func TestParseAck(t *testing.T) {
	info := ":N1ABC-9  :ack001"
	m, ok := Parse(info)
	if !ok {
		t.Fatalf("Parse(%q) failed", info)
	}
	if !m.IsAck {
		t.Error("expected IsAck=true")
	}
	if m.MessageID != "001" {
		t.Errorf("MessageID = %q, want %q", m.MessageID, "001")
	}
}

func TestParseReject(t *testing.T) {
	info := ":N1ABC-9  :rej001"
	m, ok := Parse(info)
	if !ok {
		t.Fatalf("Parse(%q) failed", info)
	}
	if !m.IsReject {
		t.Error("expected IsReject=true")
	}
}

func TestParseNoMessageID(t *testing.T) {
	info := ":N1ABC-9  :just text, no id"
	m, ok := Parse(info)
	if !ok {
		t.Fatalf("Parse(%q) failed", info)
	}
	if m.MessageID != "" {
		t.Errorf("MessageID = %q, want empty", m.MessageID)
	}
}

func TestParseRejectsMissingColon(t *testing.T) {
	if _, ok := Parse(":N1ABC-9  missing second colon"); ok {
		t.Error("expected rejection when second ':' is absent at position 10")
	}
}

func TestParseRejectsShort(t *testing.T) {
	if _, ok := Parse(":short"); ok {
		t.Error("expected rejection for too-short info field")
	}
}
