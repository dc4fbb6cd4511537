// Package position implements the uncompressed and compressed APRS
// position dialects (data-type identifiers '!', '=', '/', '@').
package position

import (
	"strconv"

	"aprsgw/internal/aprs"
	"aprsgw/internal/aprsdialect/wx"
	"aprsgw/internal/dialect"
	"aprsgw/internal/maidenhead"
)

func init() {
	dialect.Register(&Parser{})
}

// Parser decodes position reports, with or without a leading timestamp,
// compressed or uncompressed.
type Parser struct{}

func (p *Parser) Name() string       { return "position" }
func (p *Parser) Prefixes() []string { return []string{"!", "=", "/", "@"} }
func (p *Parser) Priority() int      { return 10 }

func (p *Parser) QuickCheck(info string) bool {
	return len(info) > 0 && isPositionDTI(info[0])
}

func isPositionDTI(b byte) bool {
	return b == '!' || b == '=' || b == '/' || b == '@'
}

// Parse implements dialect.Parser.
func (p *Parser) Parse(info string) dialect.Result {
	pos, ok := Parse(info)
	if !ok {
		return nil
	}
	return pos
}

// Parse decodes info into a Position, or reports ok=false if it does not
// fit the declared dialect (caller should store as unknown).
func Parse(info string) (aprs.Position, bool) {
	if len(info) == 0 || !isPositionDTI(info[0]) {
		return aprs.Position{}, false
	}
	rest := info[1:]

	hasTimestamp := info[0] == '/' || info[0] == '@'
	if hasTimestamp {
		if len(rest) < 7 {
			return aprs.Position{}, false
		}
		rest = rest[7:]
	}

	return ParseBody(rest)
}

// ParseBody decodes a position body (lat/sym/lon/sym + tail), compressed or
// uncompressed, shared by the position, object, and item dialects.
func ParseBody(rest string) (aprs.Position, bool) {
	if len(rest) == 0 {
		return aprs.Position{}, false
	}

	var pos aprs.Position
	var tail string
	var ok bool
	if rest[0] == '/' || rest[0] == '\\' {
		pos, tail, ok = parseCompressed(rest)
	} else {
		pos, tail, ok = parseUncompressed(rest)
	}
	if !ok {
		return aprs.Position{}, false
	}

	if pos.Lat == 0 && pos.Lon == 0 {
		return aprs.Position{}, false // reject Null Island
	}

	weather, found, comment := wx.Extract(tail)
	pos.Comment = comment
	if found {
		pos.Weather = weather
	}
	pos.GridSquare = maidenhead.Encode(pos.Lat, pos.Lon)
	return pos, true
}

// parseUncompressed decodes "DDMM.HHN<sym_tbl>DDDMM.HHW<sym_code>" followed
// by an optional comment/weather tail.
func parseUncompressed(rest string) (aprs.Position, string, bool) {
	if len(rest) < 19 {
		return aprs.Position{}, "", false
	}
	latStr := rest[0:8] // DDMM.HHN
	symTable := rest[8]
	lonStr := rest[9:18] // DDDMM.HHW
	symCode := rest[18]
	tail := rest[19:]

	lat, ok := parseLat(latStr)
	if !ok {
		return aprs.Position{}, "", false
	}
	lon, ok := parseLon(lonStr)
	if !ok {
		return aprs.Position{}, "", false
	}

	return aprs.Position{
		Lat:         lat,
		Lon:         lon,
		SymbolTable: symTable,
		SymbolCode:  symCode,
	}, tail, true
}

func parseLat(s string) (float64, bool) {
	// "DDMM.HH" + N/S, 8 chars total.
	if len(s) != 8 {
		return 0, false
	}
	hemi := s[7]
	if hemi != 'N' && hemi != 'S' {
		return 0, false
	}
	deg, err1 := strconv.Atoi(s[0:2])
	min, err2 := strconv.ParseFloat(s[2:4]+"."+s[5:7], 64)
	if err1 != nil || err2 != nil {
		return 0, false
	}
	lat := float64(deg) + min/60
	if hemi == 'S' {
		lat = -lat
	}
	return lat, true
}

func parseLon(s string) (float64, bool) {
	// "DDDMM.HH" + E/W, 9 chars total.
	if len(s) != 9 {
		return 0, false
	}
	hemi := s[8]
	if hemi != 'E' && hemi != 'W' {
		return 0, false
	}
	deg, err1 := strconv.Atoi(s[0:3])
	min, err2 := strconv.ParseFloat(s[3:5]+"."+s[6:8], 64)
	if err1 != nil || err2 != nil {
		return 0, false
	}
	lon := float64(deg) + min/60
	if hemi == 'W' {
		lon = -lon
	}
	return lon, true
}

const base91Offset = 33

// parseCompressed decodes the 12-byte compressed position block:
// table(1) + 4 base91 lat digits + 4 base91 lon digits + symbol(1) + cs(1)
// + compression-type(1).
func parseCompressed(rest string) (aprs.Position, string, bool) {
	if len(rest) < 12 {
		return aprs.Position{}, "", false
	}
	symTable := rest[0]
	yField := rest[1:5]
	xField := rest[5:9]
	symCode := rest[9]
	// rest[10] = cs, rest[11] = compression type; consumed, not decoded.
	tail := rest[12:]

	y, ok := decodeBase91(yField)
	if !ok {
		return aprs.Position{}, "", false
	}
	x, ok := decodeBase91(xField)
	if !ok {
		return aprs.Position{}, "", false
	}

	lat := 90 - float64(y)/380926
	lon := -180 + float64(x)/190463

	return aprs.Position{
		Lat:         lat,
		Lon:         lon,
		SymbolTable: symTable,
		SymbolCode:  symCode,
	}, tail, true
}

func decodeBase91(s string) (int64, bool) {
	if len(s) != 4 {
		return 0, false
	}
	var v int64
	weight := int64(91 * 91 * 91)
	for i := 0; i < 4; i++ {
		c := s[i]
		if c < 33 || c > 123 {
			return 0, false
		}
		v += int64(c-base91Offset) * weight
		weight /= 91
	}
	return v, true
}
