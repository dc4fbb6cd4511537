// Package classify ties the AX.25 frame's destination address into payload
// classification. Every dialect except Mic-E is dispatched purely on the
// info field's data-type identifier through dialect.Registry; Mic-E is
// special-cased here because its destination address carries encoded
// latitude and message bits the generic dialect.Parser interface has no way
// to see.
package classify

import (
	"strings"

	"aprsgw/internal/aprs"
	"aprsgw/internal/aprsdialect/mice"
	"aprsgw/internal/dialect"
)

// Payload classifies a frame's info field into a typed APRS payload, given
// the 6-character tocall portion of the destination address (SSID already
// stripped by the caller). Returns an aprs.Unknown if no dialect matches.
func Payload(destCall string, info string) aprs.Payload {
	destCall = normalizeDestCall(destCall)

	if mice.IsMicE(info) {
		if m, ok := mice.Parse(destCall, info); ok {
			return m
		}
	}

	if result := dialect.Default().Dispatch(info); result != nil {
		return result
	}

	return aprs.Unknown{RawInfo: info}
}

// normalizeDestCall pads or truncates to exactly 6 characters, as the
// Mic-E destination address decode table requires.
func normalizeDestCall(call string) string {
	call = strings.ToUpper(call)
	if len(call) > 6 {
		return call[:6]
	}
	for len(call) < 6 {
		call += " "
	}
	return call
}
