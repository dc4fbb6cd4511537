// Package dialect provides an APRS payload parser registry for dispatching
// decoded information fields to the dialect parser that can handle them.
package dialect

import (
	"sort"
	"sync"

	"aprsgw/internal/aprs"
)

// Result is the common interface for all dialect parse results — every
// typed APRS payload a dialect parser can produce.
type Result = aprs.Payload

// Parser is implemented by each APRS dialect parser.
type Parser interface {
	// Name returns the parser's unique identifier.
	Name() string

	// Prefixes returns the data-type-identifier bytes this parser claims,
	// e.g. []string{"!", "="} for uncompressed/compressed position. An empty
	// slice means "any prefix" (content-based parser, checked globally).
	Prefixes() []string

	// QuickCheck performs a fast string check before expensive parsing.
	// Returns true if the info field MIGHT be parseable by this dialect.
	QuickCheck(info string) bool

	// Priority determines order when multiple parsers claim the same
	// prefix. Lower number runs first.
	Priority() int

	// Parse attempts to parse the info field, returns nil if not applicable.
	Parse(info string) Result
}

// Registry holds all registered dialect parsers organised for dispatch by
// data-type-identifier prefix.
type Registry struct {
	mu sync.RWMutex

	// byPrefix maps a single leading byte/sequence to parsers, sorted by
	// Priority (ascending).
	byPrefix map[string][]Parser

	// global holds parsers that check every info field (content-based).
	global []Parser

	// catchAll holds parsers that run only when nothing else matched.
	catchAll []Parser

	sorted bool
}

// New creates a new, empty Registry.
func New() *Registry {
	return &Registry{
		byPrefix: make(map[string][]Parser),
	}
}

var defaultRegistry = New()

// Default returns the package-level registry that dialect packages register
// themselves into from init().
func Default() *Registry {
	return defaultRegistry
}

// Register adds a parser to the default registry.
func Register(p Parser) {
	defaultRegistry.Register(p)
}

// RegisterCatchAll adds a catch-all parser to the default registry.
func RegisterCatchAll(p Parser) {
	defaultRegistry.RegisterCatchAll(p)
}

// Register adds a parser to the registry.
func (r *Registry) Register(p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prefixes := p.Prefixes()
	if len(prefixes) == 0 {
		r.global = append(r.global, p)
	} else {
		for _, pfx := range prefixes {
			r.byPrefix[pfx] = append(r.byPrefix[pfx], p)
		}
	}
	r.sorted = false
}

// RegisterCatchAll adds a catch-all parser.
func (r *Registry) RegisterCatchAll(p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.catchAll = append(r.catchAll, p)
	r.sorted = false
}

// Sort orders every parser slice by ascending Priority. Call before
// Dispatch for deterministic ordering; Dispatch itself does not sort, so
// parsers registered after the last Sort are tried in registration order.
func (r *Registry) Sort() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sortLocked()
}

func (r *Registry) sortLocked() {
	if r.sorted {
		return
	}
	for pfx := range r.byPrefix {
		parsers := r.byPrefix[pfx]
		sort.Slice(parsers, func(i, j int) bool {
			return parsers[i].Priority() < parsers[j].Priority()
		})
	}
	sort.Slice(r.global, func(i, j int) bool {
		return r.global[i].Priority() < r.global[j].Priority()
	})
	sort.Slice(r.catchAll, func(i, j int) bool {
		return r.catchAll[i].Priority() < r.catchAll[j].Priority()
	})
	r.sorted = true
}

// Dispatch classifies an info field by its leading data-type-identifier
// byte, then tries prefix-specific parsers, then global (content-based)
// parsers, falling back to catch-all only if nothing else matched.
func (r *Registry) Dispatch(info string) Result {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(info) == 0 {
		return nil
	}

	pfx := info[:1]
	if parsers, ok := r.byPrefix[pfx]; ok {
		for _, p := range parsers {
			if !p.QuickCheck(info) {
				continue
			}
			if result := p.Parse(info); result != nil {
				return result
			}
		}
	}

	for _, p := range r.global {
		if !p.QuickCheck(info) {
			continue
		}
		if result := p.Parse(info); result != nil {
			return result
		}
	}

	for _, p := range r.catchAll {
		if result := p.Parse(info); result != nil {
			return result
		}
	}

	return nil
}

// RegisteredPrefixes returns all data-type-identifier prefixes that have
// parsers registered.
func (r *Registry) RegisteredPrefixes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	prefixes := make([]string, 0, len(r.byPrefix))
	for pfx := range r.byPrefix {
		prefixes = append(prefixes, pfx)
	}
	sort.Strings(prefixes)
	return prefixes
}

// ParserCount returns the number of distinct registered parsers.
func (r *Registry) ParserCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	for _, p := range r.global {
		seen[p.Name()] = true
	}
	for _, parsers := range r.byPrefix {
		for _, p := range parsers {
			seen[p.Name()] = true
		}
	}
	for _, p := range r.catchAll {
		seen[p.Name()] = true
	}
	return len(seen)
}
