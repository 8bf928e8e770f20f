// Package tokens measures text in BPE tokens with TikToken, so a word-level
// vocabulary can be compared against the sub-word cost of the same corpus.
package tokens

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Counter counts tokens using a specific TikToken encoding.
// A nil *Counter counts nothing.
type Counter struct {
	encoding string
	enc      *tiktoken.Tiktoken
}

// NewCounter creates a token counter for the given encoding name
// (e.g. "cl100k_base", "o200k_base", "p50k_base"). An empty name returns a
// nil counter, which disables BPE statistics.
func NewCounter(encoding string) (*Counter, error) {
	if encoding == "" {
		return nil, nil
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("loading tiktoken encoding %q: %w", encoding, err)
	}
	return &Counter{encoding: encoding, enc: enc}, nil
}

// Encoding returns the encoding name, or "" for a nil counter.
func (c *Counter) Encoding() string {
	if c == nil {
		return ""
	}
	return c.encoding
}

// Count returns the number of BPE tokens in text.
func (c *Counter) Count(text string) int {
	if c == nil {
		return 0
	}
	return len(c.enc.Encode(text, nil, nil))
}

// CountEach returns the BPE cost of every unit.
func (c *Counter) CountEach(units []string) []int {
	counts := make([]int, len(units))
	for i, u := range units {
		counts[i] = c.Count(u)
	}
	return counts
}

// Total sums Count over texts.
func (c *Counter) Total(texts []string) int {
	total := 0
	for _, t := range texts {
		total += c.Count(t)
	}
	return total
}
