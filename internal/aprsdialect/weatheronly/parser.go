// Package weatheronly implements the weather-without-position APRS dialect
// (data-type identifier '_').
package weatheronly

import (
	"aprsgw/internal/aprs"
	"aprsgw/internal/aprsdialect/wx"
	"aprsgw/internal/dialect"
)

func init() {
	dialect.Register(&Parser{})
}

// Parser decodes complete weather reports that carry no position.
type Parser struct{}

func (p *Parser) Name() string       { return "weather" }
func (p *Parser) Prefixes() []string { return []string{"_"} }
func (p *Parser) Priority() int      { return 10 }
func (p *Parser) QuickCheck(info string) bool {
	return len(info) > 0 && info[0] == '_'
}

func (p *Parser) Parse(info string) dialect.Result {
	w, ok := Parse(info)
	if !ok {
		return nil
	}
	return w
}

// Parse decodes a weather-only info field.
func Parse(info string) (aprs.Weather, bool) {
	if len(info) == 0 || info[0] != '_' {
		return aprs.Weather{}, false
	}
	w, found, _ := wx.Extract(info[1:])
	if !found {
		return aprs.Weather{}, false
	}
	return *w, true
}
