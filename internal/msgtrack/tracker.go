// Package msgtrack implements the addressed-message tracker: sent/received
// message lists, SSID-loose ACK/REJ matching, implicit-digipeat detection
// for our own traffic heard coming back via a digipeater, and the two-tier
// retry state machine. Ported from manager.py's parse_aprs_message,
// get_pending_retries, check_expired_messages and update_message_retry.
package msgtrack

import (
	"strings"
	"sync"
	"time"

	"aprsgw/internal/aprs"
	"aprsgw/internal/aprsdialect/telemetry"
)

// Default retry tuning, matching MESSAGE_RETRY_FAST/MESSAGE_RETRY_SLOW/
// MESSAGE_MAX_RETRIES.
const (
	DefaultRetryFast  = 20 * time.Second
	DefaultRetrySlow  = 600 * time.Second
	DefaultMaxRetries = 3
)

// Direction distinguishes messages we sent from messages we received.
type Direction string

const (
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
)

// Message is one tracked addressed message, sent or received.
type Message struct {
	Timestamp   time.Time
	FromCall    string
	ToCall      string
	Text        string
	MessageID   string // empty for ACKs and for messages without one
	Direction   Direction
	Read        bool
	AckReceived bool
	Digipeated  bool
	Failed      bool
	RetryCount  int
	LastSent    time.Time
}

// isAck reports whether a sent message is itself an ACK, using the same
// two-part test as the original: no message ID, and "ackXXXXX"-shaped text
// of plausible length. ACKs are never retried.
func (m *Message) isAck() bool {
	if m.MessageID != "" {
		return false
	}
	lower := strings.ToLower(m.Text)
	return strings.HasPrefix(lower, "ack") && len(m.Text) >= 4 && len(m.Text) <= 8
}

// Tracker holds our callsign's sent and received message lists.
type Tracker struct {
	myCallsign     string
	myCallsignBase string

	maxRetries int
	retryFast  time.Duration
	retrySlow  time.Duration

	mu       sync.Mutex
	messages []*Message
}

// New creates a Tracker for myCallsign (with or without an SSID), using the
// default retry tuning.
func New(myCallsign string) *Tracker {
	return NewWithRetry(myCallsign, DefaultMaxRetries, DefaultRetryFast, DefaultRetrySlow)
}

// NewWithRetry creates a Tracker with explicit retry tuning.
func NewWithRetry(myCallsign string, maxRetries int, retryFast, retrySlow time.Duration) *Tracker {
	call := strings.ToUpper(myCallsign)
	base := call
	if i := strings.IndexByte(base, '-'); i >= 0 {
		base = base[:i]
	}
	return &Tracker{
		myCallsign:     call,
		myCallsignBase: base,
		maxRetries:     maxRetries,
		retryFast:      retryFast,
		retrySlow:      retrySlow,
	}
}

// IsMessageForMe reports whether toCall addresses our station, treating a
// missing SSID as "-0" and also matching a bare base callsign (no SSID) in
// the to-field against our base callsign.
func (t *Tracker) IsMessageForMe(toCall string) bool {
	toUpper := strings.ToUpper(strings.TrimSpace(toCall))
	if normalizeSSID(toUpper) == normalizeSSID(t.myCallsign) {
		return true
	}
	if !strings.Contains(toUpper, "-") && toUpper == t.myCallsignBase {
		return true
	}
	return false
}

func normalizeSSID(call string) string {
	if strings.Contains(call, "-") {
		return call
	}
	return call + "-0"
}

func baseCallsign(call string) string {
	call = strings.ToUpper(call)
	if i := strings.IndexByte(call, '-'); i >= 0 {
		return call[:i]
	}
	return call
}

// ObserveResult reports what an observed message packet did.
type ObserveResult struct {
	Accepted        bool // added to the received list, ready to notify
	TelemetryConfig bool
	IsAckOrReject   bool
	OwnTrafficEcho  bool // our own sent message/ACK heard coming back
	Duplicate       bool
	Message         *Message // set when Accepted
}

// Observe processes a decoded aprs.Message reception: filters telemetry
// config broadcasts, resolves ACK/REJ against our sent list, detects our
// own traffic being digipeated back to us, and otherwise appends a new
// received message (after a duplicate check) when it is addressed to us,
// to ALL, to a BSS alias, or to our base callsign.
func (t *Tracker) Observe(fromCall string, m aprs.Message, digipeaterPath []string, at time.Time) ObserveResult {
	if telemetry.IsTelemetryConfig(m.Text) {
		return ObserveResult{TelemetryConfig: true}
	}

	from := strings.ToUpper(fromCall)

	// Our own traffic (message or ACK) coming back via a digipeater is
	// proof of successful transmission; check this before generic ACK
	// resolution, since our own echoed ACK also carries an "ack..." body
	// and would otherwise be swallowed by the ACK branch without ever
	// being credited as digipeated.
	isOurMessage := from == t.myCallsign
	if isOurMessage && len(digipeaterPath) > 0 {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.markDigipeated(m)
		return ObserveResult{OwnTrafficEcho: true}
	}

	if m.IsAck || m.IsReject {
		t.mu.Lock()
		defer t.mu.Unlock()
		if m.IsAck {
			t.resolveAck(from, m.MessageID)
		}
		return ObserveResult{IsAckOrReject: true}
	}

	isForMe := t.IsMessageForMe(m.ToCall)
	isAll := strings.ToUpper(m.ToCall) == "ALL"
	isBSS := strings.HasPrefix(strings.ToUpper(m.ToCall), "BSS")
	isBase := strings.ToUpper(m.ToCall) == t.myCallsignBase
	if !isForMe && !isAll && !isBSS && !isBase {
		return ObserveResult{}
	}

	msg := &Message{
		Timestamp: at,
		FromCall:  from,
		ToCall:    strings.ToUpper(m.ToCall),
		Text:      m.Text,
		MessageID: m.MessageID,
		Direction: DirectionReceived,
		Read:      false,
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.isDuplicate(msg) {
		return ObserveResult{Duplicate: true}
	}
	t.messages = append(t.messages, msg)
	return ObserveResult{Accepted: true, Message: msg}
}

// resolveAck marks a sent message acknowledged if its message ID and
// (SSID-loose) destination callsign match the ACK sender.
func (t *Tracker) resolveAck(fromCall, ackedID string) {
	fromBase := baseCallsign(fromCall)
	for _, sent := range t.messages {
		if sent.Direction != DirectionSent {
			continue
		}
		if sent.MessageID != ackedID {
			continue
		}
		sentToBase := baseCallsign(sent.ToCall)
		if strings.ToUpper(sent.ToCall) == fromCall || sentToBase == fromBase {
			sent.AckReceived = true
			return
		}
	}
}

// markDigipeated marks our own sent message (matched by message ID) or our
// own sent ACK (matched by to-call + exact text) as having made it onto RF,
// on hearing it come back via a digipeater path.
func (t *Tracker) markDigipeated(m aprs.Message) {
	if !m.IsAck && !m.IsReject && m.MessageID != "" {
		for _, sent := range t.messages {
			if sent.Direction == DirectionSent && sent.MessageID == m.MessageID && !sent.Digipeated {
				sent.Digipeated = true
				return
			}
		}
		return
	}
	for _, sent := range t.messages {
		if sent.Direction == DirectionSent && sent.MessageID == "" &&
			strings.ToUpper(sent.ToCall) == strings.ToUpper(m.ToCall) &&
			sent.Text == m.Text && !sent.Digipeated {
			sent.Digipeated = true
			sent.AckReceived = true // ACKs are considered acked once digipeated
			return
		}
	}
}

// minFuzzyMatchLen and fuzzyWindow bound the corrupted-iGate-packet
// duplicate heuristic: two messages from the same sender, close in time,
// where one's first minFuzzyMatchLen characters prefix the other.
const (
	minFuzzyMatchLen = 20
	fuzzyWindow      = 30 * time.Second
)

// isDuplicate checks msg (already known to be addressed to us) against the
// received list for an exact message-ID match, exact content match, or a
// fuzzy prefix match within a short time window (catches retransmissions
// corrupted in transit by different iGates).
func (t *Tracker) isDuplicate(msg *Message) bool {
	for _, existing := range t.messages {
		if existing.FromCall != msg.FromCall {
			continue
		}
		if msg.MessageID != "" && existing.MessageID == msg.MessageID {
			return true
		}
		if existing.Text == msg.Text {
			return true
		}
		diff := msg.Timestamp.Sub(existing.Timestamp)
		if diff < 0 {
			diff = -diff
		}
		if diff >= fuzzyWindow {
			continue
		}
		if len(existing.Text) < minFuzzyMatchLen || len(msg.Text) < minFuzzyMatchLen {
			continue
		}
		if strings.HasPrefix(existing.Text, msg.Text[:minFuzzyMatchLen]) ||
			strings.HasPrefix(msg.Text, existing.Text[:minFuzzyMatchLen]) {
			return true
		}
	}
	return false
}

// RestoreMessage inserts a message loaded from a saved snapshot directly
// into the tracker, bypassing Observe's duplicate/ACK-resolution pipeline.
// Used only by internal/snapshot while loading a saved database.
func (t *Tracker) RestoreMessage(msg *Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, msg)
}

// AddSentMessage records an outbound message for retry/ACK tracking.
func (t *Tracker) AddSentMessage(toCall, text, messageID string, at time.Time) *Message {
	msg := &Message{
		Timestamp:  at,
		FromCall:   t.myCallsign,
		ToCall:     strings.ToUpper(toCall),
		Text:       text,
		MessageID:  messageID,
		Direction:  DirectionSent,
		Read:       true,
		RetryCount: 0,
		LastSent:   at,
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, msg)
	return msg
}

// GetPendingRetries returns sent, unacknowledged, non-failed, non-ACK
// messages whose appropriate timeout (fast if not yet digipeated, slow if
// digipeated) has elapsed since last send, and that haven't exhausted
// max retries.
func (t *Tracker) GetPendingRetries(now time.Time) []*Message {
	t.mu.Lock()
	defer t.mu.Unlock()

	var pending []*Message
	for _, msg := range t.messages {
		if msg.Direction != DirectionSent || msg.AckReceived || msg.Failed || msg.isAck() {
			continue
		}
		if msg.LastSent.IsZero() || msg.RetryCount >= t.maxRetries {
			continue
		}
		if now.Sub(msg.LastSent) >= t.timeoutFor(msg) {
			pending = append(pending, msg)
		}
	}
	return pending
}

// CheckExpiredMessages returns sent, unacknowledged, non-failed messages
// that have exhausted max retries and whose final timeout has elapsed;
// callers should mark these failed via MarkMessageFailed.
func (t *Tracker) CheckExpiredMessages(now time.Time) []*Message {
	t.mu.Lock()
	defer t.mu.Unlock()

	var expired []*Message
	for _, msg := range t.messages {
		if msg.Direction != DirectionSent || msg.AckReceived || msg.Failed {
			continue
		}
		if msg.LastSent.IsZero() || msg.RetryCount < t.maxRetries {
			continue
		}
		if now.Sub(msg.LastSent) >= t.timeoutFor(msg) {
			expired = append(expired, msg)
		}
	}
	return expired
}

func (t *Tracker) timeoutFor(msg *Message) time.Duration {
	if msg.Digipeated {
		return t.retrySlow
	}
	return t.retryFast
}

// MarkMessageFailed marks msg as failed after retries are exhausted.
func (t *Tracker) MarkMessageFailed(msg *Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	msg.Failed = true
}

// UpdateMessageRetry records a retransmission attempt: increments the retry
// count and resets last-sent to now. Failure is decided separately by
// CheckExpiredMessages once the post-retry timeout has also elapsed.
func (t *Tracker) UpdateMessageRetry(msg *Message, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	msg.RetryCount++
	msg.LastSent = now
}

// Messages returns every tracked message (sent and received), oldest first.
func (t *Tracker) Messages() []*Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// UnreadCount returns the number of received, unread messages.
func (t *Tracker) UnreadCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, m := range t.messages {
		if m.Direction == DirectionReceived && !m.Read {
			n++
		}
	}
	return n
}

// MarkAllRead marks every received message read and returns how many changed.
func (t *Tracker) MarkAllRead() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, m := range t.messages {
		if m.Direction == DirectionReceived && !m.Read {
			m.Read = true
			n++
		}
	}
	return n
}

// Clear removes every tracked message and returns the count cleared.
func (t *Tracker) Clear() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := len(t.messages)
	t.messages = nil
	return n
}
