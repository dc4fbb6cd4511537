package msgtrack

import (
	"testing"
	"time"

	"aprsgw/internal/aprs"
)

func TestObserveAcceptsMessageForMe(t *testing.T) {
	tr := New("N1ABC-9")
	res := tr.Observe("N2DEF", aprs.Message{ToCall: "N1ABC-9", Text: "hello", MessageID: "001"}, nil, time.Unix(1000, 0))
	if !res.Accepted {
		t.Fatal("expected message addressed to us to be accepted")
	}
	if tr.UnreadCount() != 1 {
		t.Errorf("UnreadCount() = %d, want 1", tr.UnreadCount())
	}
}

func TestObserveIgnoresMessageForOthers(t *testing.T) {
	tr := New("N1ABC-9")
	res := tr.Observe("N2DEF", aprs.Message{ToCall: "N3GHI", Text: "hello", MessageID: "001"}, nil, time.Unix(1000, 0))
	if res.Accepted {
		t.Fatal("message addressed to another station must not be accepted")
	}
}

func TestObserveMatchesBaseCallsignNoSSID(t *testing.T) {
	tr := New("N1ABC-9")
	res := tr.Observe("N2DEF", aprs.Message{ToCall: "N1ABC", Text: "hello", MessageID: "001"}, nil, time.Unix(1000, 0))
	if !res.Accepted {
		t.Fatal("message to bare base callsign should match our SSID'd station")
	}
}

func TestObserveFiltersTelemetryConfig(t *testing.T) {
	tr := New("N1ABC-9")
	res := tr.Observe("N2DEF", aprs.Message{ToCall: "N1ABC-9", Text: "PARM.Volts,Temp"}, nil, time.Unix(1000, 0))
	if !res.TelemetryConfig {
		t.Fatal("expected telemetry config message to be filtered")
	}
	if len(tr.Messages()) != 0 {
		t.Error("telemetry config message should not be tracked")
	}
}

func TestObserveResolvesAck(t *testing.T) {
	tr := New("N1ABC-9")
	sent := tr.AddSentMessage("N2DEF", "hello", "001", time.Unix(1000, 0))

	res := tr.Observe("N2DEF", aprs.Message{ToCall: "N1ABC-9", Text: "ack001", IsAck: true, MessageID: "001"}, nil, time.Unix(1001, 0))
	if !res.IsAckOrReject {
		t.Fatal("expected ack classification")
	}
	if !sent.AckReceived {
		t.Error("expected sent message to be marked acknowledged")
	}
}

func TestObserveAckMatchesAcrossSSID(t *testing.T) {
	tr := New("N1ABC-9")
	sent := tr.AddSentMessage("N2DEF-5", "hello", "001", time.Unix(1000, 0))

	tr.Observe("N2DEF-7", aprs.Message{ToCall: "N1ABC-9", Text: "ack001", IsAck: true, MessageID: "001"}, nil, time.Unix(1001, 0))
	if !sent.AckReceived {
		t.Error("expected ack to match sent message by base callsign across differing SSIDs")
	}
}

func TestObserveMarksOwnMessageDigipeated(t *testing.T) {
	tr := New("N1ABC-9")
	sent := tr.AddSentMessage("N2DEF", "hello", "001", time.Unix(1000, 0))

	res := tr.Observe("N1ABC-9", aprs.Message{ToCall: "N2DEF", Text: "hello", MessageID: "001"}, []string{"WIDE1-1*"}, time.Unix(1001, 0))
	if !res.OwnTrafficEcho {
		t.Fatal("expected own-traffic-echo classification")
	}
	if !sent.Digipeated {
		t.Error("expected sent message to be marked digipeated")
	}
	if len(tr.Messages()) != 1 {
		t.Error("echoed own message must not be added to the received list")
	}
}

func TestObserveMarksOwnAckDigipeated(t *testing.T) {
	tr := New("N1ABC-9")
	sent := tr.AddSentMessage("N2DEF", "ack007", "", time.Unix(1000, 0))

	tr.Observe("N1ABC-9", aprs.Message{ToCall: "N2DEF", Text: "ack007", IsAck: true}, []string{"WIDE1-1*"}, time.Unix(1001, 0))
	if !sent.Digipeated {
		t.Error("expected our own sent ACK to be marked digipeated")
	}
	if !sent.AckReceived {
		t.Error("an ACK is considered acknowledged once digipeated")
	}
}

func TestObserveDuplicateByMessageID(t *testing.T) {
	tr := New("N1ABC-9")
	tr.Observe("N2DEF", aprs.Message{ToCall: "N1ABC-9", Text: "hello", MessageID: "001"}, nil, time.Unix(1000, 0))
	res := tr.Observe("N2DEF", aprs.Message{ToCall: "N1ABC-9", Text: "hello again", MessageID: "001"}, nil, time.Unix(1002, 0))
	if !res.Duplicate {
		t.Fatal("same sender + same message ID must be a duplicate")
	}
}

func TestObserveDuplicateFuzzyMatch(t *testing.T) {
	tr := New("N1ABC-9")
	long := "this is a long message body that exceeds twenty characters"
	tr.Observe("N2DEF", aprs.Message{ToCall: "N1ABC-9", Text: long}, nil, time.Unix(1000, 0))
	res := tr.Observe("N2DEF", aprs.Message{ToCall: "N1ABC-9", Text: long + "!"}, nil, time.Unix(1010, 0))
	if !res.Duplicate {
		t.Fatal("near-identical content within the time window should fuzzy-match as duplicate")
	}
}

func TestGetPendingRetriesFastBeforeDigipeat(t *testing.T) {
	tr := New("N1ABC-9")
	sent := tr.AddSentMessage("N2DEF", "hello", "001", time.Unix(1000, 0))

	if got := tr.GetPendingRetries(time.Unix(1000+10, 0)); len(got) != 0 {
		t.Errorf("expected no pending retries before fast timeout, got %d", len(got))
	}
	got := tr.GetPendingRetries(time.Unix(1000+20, 0))
	if len(got) != 1 || got[0] != sent {
		t.Errorf("expected sent message pending after fast timeout, got %v", got)
	}
}

func TestGetPendingRetriesSlowAfterDigipeat(t *testing.T) {
	tr := New("N1ABC-9")
	sent := tr.AddSentMessage("N2DEF", "hello", "001", time.Unix(1000, 0))
	sent.Digipeated = true

	if got := tr.GetPendingRetries(time.Unix(1000+20, 0)); len(got) != 0 {
		t.Errorf("digipeated message should use the slow timeout, got %d pending", len(got))
	}
	if got := tr.GetPendingRetries(time.Unix(1000+600, 0)); len(got) != 1 {
		t.Errorf("expected pending retry after slow timeout, got %d", len(got))
	}
}

func TestGetPendingRetriesSkipsAcks(t *testing.T) {
	tr := New("N1ABC-9")
	tr.AddSentMessage("N2DEF", "ack007", "", time.Unix(1000, 0))
	if got := tr.GetPendingRetries(time.Unix(1000+600, 0)); len(got) != 0 {
		t.Errorf("ACKs must never be retried, got %d pending", len(got))
	}
}

func TestCheckExpiredMessagesAfterMaxRetries(t *testing.T) {
	tr := New("N1ABC-9")
	sent := tr.AddSentMessage("N2DEF", "hello", "001", time.Unix(1000, 0))
	sent.RetryCount = DefaultMaxRetries

	if got := tr.CheckExpiredMessages(time.Unix(1000+19, 0)); len(got) != 0 {
		t.Error("should not expire before the timeout elapses")
	}
	got := tr.CheckExpiredMessages(time.Unix(1000+20, 0))
	if len(got) != 1 || got[0] != sent {
		t.Errorf("expected message to expire once max retries and timeout both elapsed, got %v", got)
	}
}

func TestUpdateMessageRetry(t *testing.T) {
	tr := New("N1ABC-9")
	sent := tr.AddSentMessage("N2DEF", "hello", "001", time.Unix(1000, 0))
	tr.UpdateMessageRetry(sent, time.Unix(1020, 0))
	if sent.RetryCount != 1 {
		t.Errorf("RetryCount = %d, want 1", sent.RetryCount)
	}
	if !sent.LastSent.Equal(time.Unix(1020, 0)) {
		t.Error("expected LastSent to be updated")
	}
}

func TestIsMessageForMeNormalizesSSID(t *testing.T) {
	tr := New("N1ABC")
	if !tr.IsMessageForMe("N1ABC-0") {
		t.Error("implicit SSID 0 should match bare callsign")
	}
	if tr.IsMessageForMe("N1ABC-5") {
		t.Error("a different explicit SSID is a distinct station")
	}
}

func TestMarkAllReadAndClear(t *testing.T) {
	tr := New("N1ABC-9")
	tr.Observe("N2DEF", aprs.Message{ToCall: "N1ABC-9", Text: "hi", MessageID: "001"}, nil, time.Unix(1000, 0))
	if n := tr.MarkAllRead(); n != 1 {
		t.Errorf("MarkAllRead() = %d, want 1", n)
	}
	if n := tr.Clear(); n != 1 {
		t.Errorf("Clear() = %d, want 1", n)
	}
}
