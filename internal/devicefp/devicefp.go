// Package devicefp identifies the hardware or software that originated an
// APRS packet from its destination tocall or, for Mic-E packets, from the
// comment suffix it leaves behind. Ported from the hessu/aprs-deviceid
// database approach (tocalls.yaml), trimmed to a representative subset.
package devicefp

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed data/tocalls.yaml
var databaseYAML []byte

// Info describes an identified device.
type Info struct {
	Vendor   string
	Model    string
	Class    string
	OS       string
	Features []string
}

// String renders "Vendor Model", falling back to whichever field is set.
func (i Info) String() string {
	switch {
	case i.Vendor != "" && i.Model != "":
		return i.Vendor + " " + i.Model
	case i.Model != "":
		return i.Model
	default:
		return "Unknown"
	}
}

type tocallEntry struct {
	Tocall   string   `yaml:"tocall"`
	Vendor   string   `yaml:"vendor"`
	Model    string   `yaml:"model"`
	Class    string   `yaml:"class"`
	OS       string   `yaml:"os"`
	Features []string `yaml:"features"`
}

type miceEntry struct {
	Suffix   string   `yaml:"suffix"`
	Prefix   string   `yaml:"prefix"`
	Vendor   string   `yaml:"vendor"`
	Model    string   `yaml:"model"`
	Class    string   `yaml:"class"`
	OS       string   `yaml:"os"`
	Features []string `yaml:"features"`
}

type classEntry struct {
	Class       string `yaml:"class"`
	Shown       string `yaml:"shown"`
	Description string `yaml:"description"`
}

type database struct {
	Tocalls    []tocallEntry `yaml:"tocalls"`
	Mice       []miceEntry   `yaml:"mice"`
	MiceLegacy []miceEntry   `yaml:"micelegacy"`
	Classes    []classEntry  `yaml:"classes"`
}

// Identifier matches tocalls and Mic-E suffixes against the embedded
// device database. The zero value is not usable; use New or Default.
type Identifier struct {
	mu      sync.RWMutex
	db      database
	classes map[string]classEntry
}

var (
	defaultOnce       sync.Once
	defaultIdentifier *Identifier
)

// Default returns the package-level identifier loaded from the embedded
// database, parsed once on first use.
func Default() *Identifier {
	defaultOnce.Do(func() {
		id, err := New(databaseYAML)
		if err != nil {
			// The embedded database is parsed here on first use; a parse
			// failure means the data file itself is broken.
			id = &Identifier{classes: map[string]classEntry{}}
		}
		defaultIdentifier = id
	})
	return defaultIdentifier
}

// New parses a tocalls.yaml-shaped document into an Identifier.
func New(data []byte) (*Identifier, error) {
	var db database
	if err := yaml.Unmarshal(data, &db); err != nil {
		return nil, err
	}
	classes := make(map[string]classEntry, len(db.Classes))
	for _, c := range db.Classes {
		classes[c.Class] = c
	}
	return &Identifier{db: db, classes: classes}, nil
}

// ByTocall identifies a device from the destination address (SSID
// stripped internally if present). Exact matches win; otherwise the
// wildcarded entry with the most non-wildcard characters wins.
func (id *Identifier) ByTocall(destination string) (Info, bool) {
	id.mu.RLock()
	defer id.mu.RUnlock()

	destCall := destination
	if i := strings.IndexByte(destCall, '-'); i >= 0 {
		destCall = destCall[:i]
	}
	destCall = strings.ToUpper(destCall)

	for _, e := range id.db.Tocalls {
		pattern := strings.ToUpper(e.Tocall)
		if !strings.ContainsAny(pattern, "?*n") && pattern == destCall {
			return entryToInfo(e), true
		}
	}

	bestQuality := -1
	var best tocallEntry
	found := false
	for _, e := range id.db.Tocalls {
		pattern := strings.ToUpper(e.Tocall)
		if !matchTocall(pattern, destCall) {
			continue
		}
		quality := matchQuality(pattern)
		if quality > bestQuality {
			bestQuality = quality
			best = e
			found = true
		}
	}
	if found {
		return entryToInfo(best), true
	}
	return Info{}, false
}

// matchTocall implements the tocalls.yaml wildcard grammar: '?' matches any
// single character, 'n' matches a single digit, '*' matches the remainder
// of the string.
func matchTocall(pattern, tocall string) bool {
	if pattern == tocall {
		return true
	}
	i, j := 0, 0
	for i < len(pattern) && j < len(tocall) {
		switch pattern[i] {
		case '?':
			i++
			j++
		case 'n':
			if tocall[j] < '0' || tocall[j] > '9' {
				return false
			}
			i++
			j++
		case '*':
			return true
		default:
			if pattern[i] != tocall[j] {
				return false
			}
			i++
			j++
		}
	}
	if i == len(pattern) && j == len(tocall) {
		return true
	}
	return i < len(pattern) && pattern[i:] == "*"
}

func matchQuality(pattern string) int {
	quality := 0
	for i := 0; i < len(pattern); i++ {
		switch pattern[i] {
		case '?', '*', 'n':
		default:
			quality++
		}
	}
	return quality
}

// ByMicESuffix identifies a device from a Mic-E comment's raw (pre-clean)
// suffix: first the new-style 2-character suffix, then the legacy
// prefix+suffix (single leading and trailing byte) Kenwood scheme.
func (id *Identifier) ByMicESuffix(comment string) (Info, bool) {
	id.mu.RLock()
	defer id.mu.RUnlock()

	if len(comment) < 2 {
		return Info{}, false
	}

	suffix := comment[len(comment)-2:]
	for _, e := range id.db.Mice {
		if e.Suffix == suffix {
			return entryToInfo(tocallEntry{
				Vendor: e.Vendor, Model: e.Model, Class: e.Class,
				OS: e.OS, Features: e.Features,
			}), true
		}
	}

	prefix := string(comment[0])
	last := string(comment[len(comment)-1])
	for _, e := range id.db.MiceLegacy {
		if e.Prefix == prefix && e.Suffix == last {
			return entryToInfo(tocallEntry{
				Vendor: e.Vendor, Model: e.Model, Class: e.Class,
				OS: e.OS, Features: e.Features,
			}), true
		}
	}

	return Info{}, false
}

// ClassDescription returns the human-readable description for a device
// class identifier, or the identifier itself if unknown.
func (id *Identifier) ClassDescription(class string) string {
	id.mu.RLock()
	defer id.mu.RUnlock()
	if c, ok := id.classes[class]; ok && c.Shown != "" {
		return c.Shown
	}
	return class
}

func entryToInfo(e tocallEntry) Info {
	return Info{
		Vendor:   e.Vendor,
		Model:    e.Model,
		Class:    e.Class,
		OS:       e.OS,
		Features: e.Features,
	}
}
