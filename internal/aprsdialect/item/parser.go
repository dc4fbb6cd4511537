// Package item implements the APRS item dialect (data-type identifier
// ')'): a named position report without a timestamp.
package item

import (
	"aprsgw/internal/aprs"
	"aprsgw/internal/aprsdialect/position"
	"aprsgw/internal/dialect"
)

func init() {
	dialect.Register(&Parser{})
}

// Parser decodes item reports.
type Parser struct{}

func (p *Parser) Name() string                { return "item" }
func (p *Parser) Prefixes() []string          { return []string{")"} }
func (p *Parser) Priority() int               { return 10 }
func (p *Parser) QuickCheck(info string) bool { return len(info) > 0 && info[0] == ')' }

func (p *Parser) Parse(info string) dialect.Result {
	it, ok := Parse(info)
	if !ok {
		return nil
	}
	return it
}

// Parse decodes ")NAME(3-9ch)(!|_)<position>".
func Parse(info string) (aprs.Item, bool) {
	if len(info) < 1+3+1 || info[0] != ')' {
		return aprs.Item{}, false
	}
	body := info[1:]

	flagIdx := -1
	for i := 0; i < len(body) && i < 10; i++ {
		if body[i] == '!' || body[i] == '_' {
			flagIdx = i
			break
		}
	}
	if flagIdx < 3 {
		return aprs.Item{}, false
	}

	name := body[:flagIdx]
	liveFlag := body[flagIdx]
	rest := body[flagIdx+1:]

	pos, ok := position.ParseBody(rest)
	if !ok {
		return aprs.Item{}, false
	}

	return aprs.Item{
		Name:     name,
		Live:     liveFlag == '!',
		Position: pos,
	}, true
}
