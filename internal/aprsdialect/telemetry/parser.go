// Package telemetry implements the APRS telemetry dialect
// ("T#SSS,A1,A2,A3,A4,A5,BBBBBBBB").
package telemetry

import (
	"strconv"
	"strings"

	"aprsgw/internal/aprs"
	"aprsgw/internal/dialect"
)

func init() {
	dialect.Register(&Parser{})
}

// Parser decodes telemetry samples.
type Parser struct{}

func (p *Parser) Name() string       { return "telemetry" }
func (p *Parser) Prefixes() []string { return []string{"T"} }
func (p *Parser) Priority() int      { return 10 }

func (p *Parser) QuickCheck(info string) bool {
	return strings.HasPrefix(info, "T#")
}

func (p *Parser) Parse(info string) dialect.Result {
	t, ok := Parse(info)
	if !ok {
		return nil
	}
	return t
}

// Parse decodes "T#SSS,A1,A2,A3,A4,A5,BBBBBBBB".
func Parse(info string) (aprs.Telemetry, bool) {
	if !strings.HasPrefix(info, "T#") {
		return aprs.Telemetry{}, false
	}
	fields := strings.Split(info[2:], ",")
	if len(fields) < 7 {
		return aprs.Telemetry{}, false
	}

	seq, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil || seq < 0 || seq > 999 {
		return aprs.Telemetry{}, false
	}

	var analog [5]int
	for i := 0; i < 5; i++ {
		v, err := strconv.Atoi(strings.TrimSpace(fields[i+1]))
		if err != nil || v < 0 || v > 255 {
			return aprs.Telemetry{}, false
		}
		analog[i] = v
	}

	digital := strings.TrimSpace(fields[6])
	if len(digital) != 8 {
		return aprs.Telemetry{}, false
	}
	for _, c := range digital {
		if c != '0' && c != '1' {
			return aprs.Telemetry{}, false
		}
	}

	return aprs.Telemetry{Sequence: seq, Analog: analog, Digital: digital}, true
}

// IsTelemetryConfig reports whether a message body is a telemetry
// configuration message (PARM./UNIT./EQNS./BITS. prefix) that should be
// counted but not enqueued for the user.
func IsTelemetryConfig(text string) bool {
	for _, pfx := range []string{"PARM.", "UNIT.", "EQNS.", "BITS."} {
		if strings.HasPrefix(text, pfx) {
			return true
		}
	}
	return false
}
