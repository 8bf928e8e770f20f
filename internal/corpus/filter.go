package corpus

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrSourceNotAllowed is returned for URL sources no allow pattern matches.
var ErrSourceNotAllowed = errors.New("source not allowed")

// SourceFilter restricts which URLs may be fetched as corpus sources.
// A nil or empty filter allows every URL. Local paths and stdin are never
// filtered.
type SourceFilter struct {
	patterns []*regexp.Regexp
}

// NewSourceFilter compiles allow patterns. An empty list returns nil.
func NewSourceFilter(patterns []string) (*SourceFilter, error) {
	if len(patterns) == 0 {
		return nil, nil
	}

	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid source pattern %q: %w", p, err)
		}
		compiled[i] = re
	}
	return &SourceFilter{patterns: compiled}, nil
}

// Allowed reports whether rawURL matches any pattern.
func (f *SourceFilter) Allowed(rawURL string) bool {
	if f == nil || len(f.patterns) == 0 {
		return true
	}
	for _, p := range f.patterns {
		if p.MatchString(rawURL) {
			return true
		}
	}
	return false
}
