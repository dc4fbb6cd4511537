// Package message implements the APRS message dialect (data-type
// identifier ':'): ":AAAAAAAAA:text{id".
package message

import (
	"strings"

	"aprsgw/internal/aprs"
	"aprsgw/internal/dialect"
)

func init() {
	dialect.Register(&Parser{})
}

// Parser decodes addressed messages, including ACK/REJ forms.
type Parser struct{}

func (p *Parser) Name() string                { return "message" }
func (p *Parser) Prefixes() []string          { return []string{":"} }
func (p *Parser) Priority() int               { return 10 }
func (p *Parser) QuickCheck(info string) bool { return len(info) > 0 && info[0] == ':' }

func (p *Parser) Parse(info string) dialect.Result {
	m, ok := Parse(info)
	if !ok {
		return nil
	}
	return m
}

// Parse decodes ":AAAAAAAAA:text{id". The to-call field is exactly 9
// characters, space-padded; text carries an optional "{id" message-id
// suffix (1-5 alphanumerics).
func Parse(info string) (aprs.Message, bool) {
	if len(info) < 1+9+1 || info[0] != ':' {
		return aprs.Message{}, false
	}
	if info[10] != ':' {
		return aprs.Message{}, false
	}
	toCall := strings.TrimRight(info[1:10], " ")
	body := info[11:]

	text, id := splitMessageID(body)

	m := aprs.Message{ToCall: toCall, Text: text, MessageID: id}

	lower := strings.ToUpper(text)
	switch {
	case strings.HasPrefix(lower, "ACK"):
		m.IsAck = true
		m.MessageID = stripAckPrefix(text, 3)
	case strings.HasPrefix(lower, "REJ"):
		m.IsReject = true
		m.MessageID = stripAckPrefix(text, 3)
	}

	return m, true
}

// stripAckPrefix extracts the acknowledged message ID from an "ackXXXXX" or
// "rejXXXXX" body, dropping the leading verb and any trailing "}line_num"
// suffix used by multi-line message ACKs.
func stripAckPrefix(text string, verbLen int) string {
	id := strings.TrimSpace(text[verbLen:])
	if i := strings.IndexByte(id, '}'); i >= 0 {
		id = id[:i]
	}
	return id
}

// splitMessageID splits "text{id" into ("text", "id") at the first "{". If
// there is none, the whole body is text and id is empty.
func splitMessageID(body string) (text, id string) {
	if i := strings.IndexByte(body, '{'); i >= 0 {
		return body[:i], strings.TrimSpace(body[i+1:])
	}
	return body, ""
}
