// Package object implements the APRS object dialect (data-type identifier
// ';'): a named, timestamped position report with a live/killed flag.
package object

import (
	"strings"

	"aprsgw/internal/aprs"
	"aprsgw/internal/aprsdialect/position"
	"aprsgw/internal/dialect"
)

func init() {
	dialect.Register(&Parser{})
}

// Parser decodes object reports.
type Parser struct{}

func (p *Parser) Name() string                { return "object" }
func (p *Parser) Prefixes() []string          { return []string{";"} }
func (p *Parser) Priority() int               { return 10 }
func (p *Parser) QuickCheck(info string) bool { return len(info) > 0 && info[0] == ';' }

func (p *Parser) Parse(info string) dialect.Result {
	o, ok := Parse(info)
	if !ok {
		return nil
	}
	return o
}

// Parse decodes ";NAME(9ch)(*|_)TTTTTTz<position>".
func Parse(info string) (aprs.Object, bool) {
	if len(info) < 1+9+1+7 || info[0] != ';' {
		return aprs.Object{}, false
	}
	name := strings.TrimRight(info[1:10], " ")
	liveFlag := info[10]
	if liveFlag != '*' && liveFlag != '_' {
		return aprs.Object{}, false
	}
	// 7-char timestamp follows; consumed, not retained.
	rest := info[18:]

	pos, ok := position.ParseBody(rest)
	if !ok {
		return aprs.Object{}, false
	}

	return aprs.Object{
		Name:     name,
		Live:     liveFlag == '*',
		Position: pos,
	}, true
}
