// Package mice implements the Mic-E compact position/status dialect. Unlike
// every other dialect, Mic-E needs the AX.25 destination address (which
// carries the encoded latitude and message bits) in addition to the info
// field, so it is not registered in the generic dialect.Registry — the
// classifier calls it directly once it recognises the Mic-E data-type
// identifier.
package mice

import (
	"strings"

	"aprsgw/internal/aprs"
)

// IsMicE reports whether info's leading byte identifies a Mic-E packet.
func IsMicE(info string) bool {
	if len(info) == 0 {
		return false
	}
	switch info[0] {
	case 0x27, 0x60, 0x1C, 0x1D, 0x1E, 0x1F:
		return true
	}
	return false
}

// Parse decodes a Mic-E packet. destCall is the 6-character tocall portion
// of the AX.25 destination address (SSID stripped), exactly as received on
// the wire, before uppercasing.
func Parse(destCall string, info string) (aprs.MicE, bool) {
	if !IsMicE(info) || len(destCall) != 6 || len(info) < 9 {
		return aprs.MicE{}, false
	}

	latDigits := make([]byte, 6)
	var north, lonOffset, west bool
	msgBits := [3]bool{}

	for i := 0; i < 6; i++ {
		c := destCall[i]
		digit, flag, ok := decodeDestChar(i, c)
		if !ok {
			return aprs.MicE{}, false
		}
		latDigits[i] = digit
		switch i {
		case 0, 1, 2:
			msgBits[i] = flag
			if i == 2 {
				north = flag
			}
		case 3:
			lonOffset = flag
		case 4:
			west = flag
		}
	}
	_ = msgBits

	latDeg := int(latDigits[0]-'0')*10 + int(latDigits[1]-'0')
	latMin := float64(latDigits[2]-'0')*10 + float64(latDigits[3]-'0') +
		(float64(latDigits[4]-'0')*10+float64(latDigits[5]-'0'))/100
	lat := float64(latDeg) + latMin/60
	if !north {
		lat = -lat
	}

	if len(info) < 9 {
		return aprs.MicE{}, false
	}
	lonDeg := int(info[1]) - 28
	if lonOffset {
		lonDeg += 100
	}
	if lonDeg >= 180 && lonDeg <= 189 {
		lonDeg -= 80
	} else if lonDeg >= 190 && lonDeg <= 199 {
		lonDeg -= 190
	}
	lonMin := int(info[2]) - 28
	if lonMin >= 60 {
		lonMin -= 60
	}
	lonHundredths := int(info[3]) - 28
	lon := float64(lonDeg) + (float64(lonMin)+float64(lonHundredths)/100)/60
	if west {
		lon = -lon
	}

	// Speed/course: per the APRS Mic-E encoding, bytes 4-6 (0-indexed 4,5,6)
	// carry speed in knots and course in degrees, each offset by 28.
	sp := int(info[4]) - 28
	dc := int(info[5]) - 28
	ds := int(info[6]) - 28
	speed := float64(sp*10) + float64((dc/10)%10)/10
	course := (dc%10)*100 + ds
	if course >= 400 {
		course -= 400
	}

	symCode := byte(0)
	symTable := byte(0)
	if len(info) > 7 {
		symCode = info[7]
	}
	if len(info) > 8 {
		symTable = info[8]
	}

	pos := aprs.Position{
		Lat:         lat,
		Lon:         lon,
		SymbolTable: symTable,
		SymbolCode:  symCode,
		HasSpeed:    true,
		SpeedKnots:  speed,
		HasCourse:   true,
		CourseDeg:   course,
	}

	rawSuffix := ""
	if len(info) > 9 {
		rawSuffix = info[9:]
	}

	status := cleanStatusText(rawSuffix)

	return aprs.MicE{
		Position:   pos,
		StatusText: status,
		DeviceRaw:  rawSuffix,
	}, true
}

// decodeDestChar decodes a single Mic-E destination address character into
// its digit value and the position-specific flag: message bit (positions
// 0-2, with position 2 doubling as the N/S flag), longitude +100 offset
// (position 3), or W/E flag (position 4). Position 5 carries no flag.
func decodeDestChar(pos int, c byte) (digit byte, flag bool, ok bool) {
	switch {
	case c >= '0' && c <= '9':
		return c, false, true
	case c >= 'A' && c <= 'J':
		if pos == 5 {
			return 0, false, false
		}
		return '0' + (c - 'A'), true, true
	case c == 'K':
		if pos == 5 {
			return 0, false, false
		}
		return '0', true, true
	case c == 'L':
		if pos == 5 {
			return 0, false, false
		}
		return '0', false, true
	case c >= 'P' && c <= 'Y':
		if pos == 5 {
			return 0, false, false
		}
		return '0' + (c - 'P'), true, true
	case c == 'Z':
		if pos == 5 {
			return 0, false, false
		}
		return '0', true, true
	}
	return 0, false, false
}

// cleanStatusText strips the leading type indicator, an optional base-91
// altitude block ("}xyz"), and trailing manufacturer/version glyphs, then
// applies gibberish suppression (drop entirely if under 40% alphanumeric).
func cleanStatusText(raw string) string {
	s := raw
	if len(s) > 0 {
		switch s[0] {
		case ' ', '>', ']', '`', '\'':
			s = s[1:]
		}
	}

	if i := strings.IndexByte(s, '}'); i >= 0 && i+4 <= len(s) {
		s = s[:i] + s[i+4:]
	}

	s = strings.TrimRightFunc(s, func(r rune) bool {
		return !isAlnum(byte(r))
	})
	// The TrimRightFunc pass above removes the whole trailing run of
	// non-alphanumeric characters; a string with no alphanumerics at all
	// is left empty.

	if !passesAlnumThreshold(s) {
		return ""
	}
	return s
}

func isAlnum(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

func passesAlnumThreshold(s string) bool {
	if len(s) == 0 {
		return true
	}
	count := 0
	for i := 0; i < len(s); i++ {
		if isAlnum(s[i]) {
			count++
		}
	}
	return float64(count)/float64(len(s)) >= 0.4
}
