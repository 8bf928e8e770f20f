// Package vocab builds a bidirectional mapping between tokens and dense
// integer indices, with frequency counts, and persists it as a
// "token<TAB>count" text file.
//
// A Vocabulary is not safe for concurrent use. Callers sharing one must
// serialize access themselves.
package vocab

import (
	"cmp"
	"fmt"
	"io"
	"slices"
)

// Backend is the storage a Vocabulary saves to and loads from.
type Backend interface {
	// Path describes the location, for logs and errors.
	Path() string
	Exists() bool
	Open() (io.ReadCloser, error)
	// Create truncates or creates the backing file.
	Create() (io.WriteCloser, error)
}

// Options configures a Vocabulary.
type Options struct {
	// Inputs are the record fields units are extracted from, in order.
	Inputs []string
	Level  Level
	// SpecialTokens are always present and occupy indices 0..len-1.
	SpecialTokens []string
	// DefaultToken is the special token unseen lookups resolve to.
	DefaultToken string
}

// DefaultOptions mirrors the stock configuration: token level over x with a
// single <UNK> special.
func DefaultOptions() Options {
	return Options{
		Inputs:        []string{"x"},
		Level:         LevelToken,
		SpecialTokens: []string{"<UNK>"},
		DefaultToken:  "<UNK>",
	}
}

// Entry is a token and its count.
type Entry struct {
	Token string `json:"token"`
	Count int    `json:"count"`
}

// Vocabulary maps tokens to indices and back, and counts occurrences.
type Vocabulary struct {
	opts      Options
	extractor *Extractor
	backend   Backend

	t2i      map[string]int
	i2t      map[int]string
	freqs    map[string]int
	seen     []string // frequency keys in first-seen order
	fallback int
}

// New validates opts, resets the vocabulary and, if backend already holds a
// saved vocabulary, loads it.
func New(opts Options, backend Backend) (*Vocabulary, error) {
	if backend == nil {
		return nil, fmt.Errorf("%w: nil backend", ErrConfiguration)
	}
	seen := make(map[string]bool, len(opts.SpecialTokens))
	for _, tok := range opts.SpecialTokens {
		if seen[tok] {
			return nil, fmt.Errorf("%w: duplicate special token %q", ErrConfiguration, tok)
		}
		seen[tok] = true
	}

	extractor, err := NewExtractor(opts.Inputs, opts.Level)
	if err != nil {
		return nil, err
	}
	opts.Level = extractor.Level()
	opts.Inputs = extractor.Inputs()
	opts.SpecialTokens = slices.Clone(opts.SpecialTokens)

	v := &Vocabulary{opts: opts, extractor: extractor, backend: backend}
	if err := v.Reset(); err != nil {
		return nil, err
	}
	if backend.Exists() {
		if err := v.Load(); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Options returns the configuration the vocabulary was built with.
func (v *Vocabulary) Options() Options {
	o := v.opts
	o.Inputs = slices.Clone(o.Inputs)
	o.SpecialTokens = slices.Clone(o.SpecialTokens)
	return o
}

// Backend returns the storage the vocabulary persists to.
func (v *Vocabulary) Backend() Backend { return v.backend }

// Reset discards every learned token and re-registers the special tokens at
// indices 0..k-1 with zero counts.
func (v *Vocabulary) Reset() error {
	fallback := slices.Index(v.opts.SpecialTokens, v.opts.DefaultToken)
	if fallback < 0 {
		return fmt.Errorf("%w: default token %q is not one of the special tokens %q",
			ErrConfiguration, v.opts.DefaultToken, v.opts.SpecialTokens)
	}

	v.t2i = make(map[string]int)
	v.i2t = make(map[int]string)
	v.freqs = make(map[string]int)
	v.seen = v.seen[:0]
	v.fallback = fallback

	for i, tok := range v.opts.SpecialTokens {
		v.t2i[tok] = i
		v.i2t[i] = tok
		v.count(tok, 0)
	}
	return nil
}

// Train extracts units from every record, counts each non-empty unit once and
// saves the result. Existing counts are extended, not replaced.
func (v *Vocabulary) Train(records []Record) error {
	units, err := v.extractor.ExtractAll(records)
	if err != nil {
		return fmt.Errorf("extracting units: %w", err)
	}
	units = slices.DeleteFunc(units, func(s string) bool { return s == "" })

	if err := v.Update(units, nil, true); err != nil {
		return err
	}
	return v.Save()
}

// Update is the incremental training step shared by Train and Load. Each
// unseen token gets the next free index; every token's count grows by the
// matching entry of counts, or by 1 when counts is empty. With update false
// the vocabulary is reset first. When both slices are given, the shorter one
// bounds the walk.
func (v *Vocabulary) Update(tokens []string, counts []int, update bool) error {
	if !update {
		if err := v.Reset(); err != nil {
			return err
		}
	}

	next := len(v.freqs)
	for i, tok := range tokens {
		cnt := 1
		if len(counts) > 0 {
			if i >= len(counts) {
				break
			}
			cnt = counts[i]
		}
		if _, ok := v.t2i[tok]; !ok {
			v.t2i[tok] = next
			v.i2t[next] = tok
			next++
		}
		v.count(tok, cnt)
	}
	return nil
}

func (v *Vocabulary) count(tok string, n int) {
	if _, ok := v.freqs[tok]; !ok {
		v.seen = append(v.seen, tok)
	}
	v.freqs[tok] += n
}

// TokenToIndex returns the index of tok, or the default token's index when
// tok has not been seen.
func (v *Vocabulary) TokenToIndex(tok string) int {
	if i, ok := v.t2i[tok]; ok {
		return i
	}
	return v.fallback
}

// IndexToToken returns the token assigned to index i.
func (v *Vocabulary) IndexToToken(i int) (string, error) {
	tok, ok := v.i2t[i]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrIndexNotFound, i)
	}
	return tok, nil
}

// Lookup dispatches on the key type: strings are encoded with TokenToIndex,
// integers decoded with IndexToToken. Other types yield ErrUnsupportedKey.
func (v *Vocabulary) Lookup(key any) (any, error) {
	switch k := key.(type) {
	case string:
		return v.TokenToIndex(k), nil
	case int:
		return v.IndexToToken(k)
	case int8:
		return v.IndexToToken(int(k))
	case int16:
		return v.IndexToToken(int(k))
	case int32:
		return v.IndexToToken(int(k))
	case int64:
		return v.IndexToToken(int(k))
	case uint8:
		return v.IndexToToken(int(k))
	case uint16:
		return v.IndexToToken(int(k))
	case uint32:
		return v.IndexToToken(int(k))
	case uint:
		return v.IndexToToken(int(k))
	case uint64:
		return v.IndexToToken(int(k))
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedKey, key)
	}
}

// Infer applies Lookup to every sample, preserving order.
func (v *Vocabulary) Infer(samples []any) ([]any, error) {
	out := make([]any, len(samples))
	for i, s := range samples {
		r, err := v.Lookup(s)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		out[i] = r
	}
	return out, nil
}

// InferTokens encodes tokens to indices.
func (v *Vocabulary) InferTokens(tokens []string) []int {
	out := make([]int, len(tokens))
	for i, tok := range tokens {
		out[i] = v.TokenToIndex(tok)
	}
	return out
}

// InferIndices decodes indices to tokens.
func (v *Vocabulary) InferIndices(indices []int) ([]string, error) {
	out := make([]string, len(indices))
	for i, idx := range indices {
		tok, err := v.IndexToToken(idx)
		if err != nil {
			return nil, err
		}
		out[i] = tok
	}
	return out, nil
}

// Contains reports whether tok has an index. Unlike TokenToIndex it never
// falls back to the default token.
func (v *Vocabulary) Contains(tok string) bool {
	_, ok := v.t2i[tok]
	return ok
}

// Len returns the number of counted tokens, zero-count specials included.
func (v *Vocabulary) Len() int { return len(v.freqs) }

// DefaultIndex returns the index unseen tokens resolve to.
func (v *Vocabulary) DefaultIndex() int { return v.fallback }

// Count returns the frequency of tok, or 0 when it was never counted.
func (v *Vocabulary) Count(tok string) int { return v.freqs[tok] }

// Items returns every entry, most common first. Ties keep first-seen order.
func (v *Vocabulary) Items() []Entry {
	items := make([]Entry, len(v.seen))
	for i, tok := range v.seen {
		items[i] = Entry{Token: tok, Count: v.freqs[tok]}
	}
	slices.SortStableFunc(items, func(a, b Entry) int { return cmp.Compare(b.Count, a.Count) })
	return items
}

// MostCommon returns the n most common entries; n <= 0 returns all of them.
func (v *Vocabulary) MostCommon(n int) []Entry {
	items := v.Items()
	if n > 0 && n < len(items) {
		items = items[:n]
	}
	return items
}

// Keys returns tokens in Items order.
func (v *Vocabulary) Keys() []string {
	items := v.Items()
	keys := make([]string, len(items))
	for i, e := range items {
		keys[i] = e.Token
	}
	return keys
}

// Values returns counts in Items order.
func (v *Vocabulary) Values() []int {
	items := v.Items()
	vals := make([]int, len(items))
	for i, e := range items {
		vals[i] = e.Count
	}
	return vals
}
