// Package status implements the APRS status-text dialect (data-type
// identifier '>').
package status

import (
	"strings"

	"aprsgw/internal/aprs"
	"aprsgw/internal/dialect"
)

func init() {
	dialect.Register(&Parser{})
}

// Parser decodes free-text status reports.
type Parser struct{}

func (p *Parser) Name() string                { return "status" }
func (p *Parser) Prefixes() []string          { return []string{">"} }
func (p *Parser) Priority() int               { return 10 }
func (p *Parser) QuickCheck(info string) bool { return len(info) > 0 && info[0] == '>' }

func (p *Parser) Parse(info string) dialect.Result {
	if len(info) == 0 || info[0] != '>' {
		return nil
	}
	return aprs.Status{Text: strings.TrimSpace(info[1:])}
}
