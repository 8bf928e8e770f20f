// Package report renders a vocabulary summary through a Mustache template.
package report

import (
	"fmt"
	"os"
	"strings"

	"github.com/cbroglie/mustache"

	"github.com/rickcrawford/defaultvocab/internal/tokens"
	"github.com/rickcrawford/defaultvocab/internal/vocab"
)

// DefaultTemplate renders the summary as Markdown.
const DefaultTemplate = `# Vocabulary {{{path}}}

| setting | value |
|---|---|
| size | {{size}} |
| level | {{level}} |
| inputs | {{{inputs}}} |
| default token | {{{default_token}}} (index {{default_index}}) |
| special tokens | {{{special_tokens}}} |
| total count | {{total}} |
{{#encoding}}
| bpe encoding | {{encoding}} |
{{/encoding}}

## Top {{shown}} entries

| index | token | count |{{#encoding}} bpe |{{/encoding}}
|---|---|---|{{#encoding}}---|{{/encoding}}
{{#entries}}
| {{index}} | {{{token}}} | {{count}} |{{#bpe_enabled}} {{bpe}} |{{/bpe_enabled}}
{{/entries}}
`

// Row is one rendered vocabulary entry.
type Row struct {
	Index int    `json:"index"`
	Token string `json:"token"`
	Count int    `json:"count"`
	// BPE is the token's TikToken cost; zero when no counter is configured.
	BPE int `json:"bpe,omitempty"`
}

// Summary describes a vocabulary for rendering and JSON responses.
type Summary struct {
	Path          string   `json:"path"`
	Size          int      `json:"size"`
	Level         string   `json:"level"`
	Inputs        []string `json:"inputs"`
	SpecialTokens []string `json:"special_tokens"`
	DefaultToken  string   `json:"default_token"`
	DefaultIndex  int      `json:"default_index"`
	Total         int      `json:"total"`
	Encoding      string   `json:"encoding,omitempty"`
	Entries       []Row    `json:"entries"`
}

// Summarize collects the top entries of v (all of them when top <= 0).
// counter may be nil.
func Summarize(v *vocab.Vocabulary, top int, counter *tokens.Counter) Summary {
	opts := v.Options()
	s := Summary{
		Path:          v.Backend().Path(),
		Size:          v.Len(),
		Level:         string(opts.Level),
		Inputs:        opts.Inputs,
		SpecialTokens: opts.SpecialTokens,
		DefaultToken:  opts.DefaultToken,
		DefaultIndex:  v.DefaultIndex(),
		Encoding:      counter.Encoding(),
	}
	for _, n := range v.Values() {
		s.Total += n
	}
	for _, e := range v.MostCommon(top) {
		s.Entries = append(s.Entries, Row{
			Index: v.TokenToIndex(e.Token),
			Token: e.Token,
			Count: e.Count,
			BPE:   counter.Count(e.Token),
		})
	}
	return s
}

func (s Summary) context() map[string]any {
	entries := make([]map[string]any, len(s.Entries))
	for i, r := range s.Entries {
		entries[i] = map[string]any{
			"index":       r.Index,
			"token":       escapeCell(r.Token),
			"count":       r.Count,
			"bpe":         r.BPE,
			"bpe_enabled": s.Encoding != "",
		}
	}
	return map[string]any{
		"path":           s.Path,
		"size":           s.Size,
		"level":          s.Level,
		"inputs":         strings.Join(s.Inputs, ", "),
		"special_tokens": escapeCell(strings.Join(s.SpecialTokens, " ")),
		"default_token":  escapeCell(s.DefaultToken),
		"default_index":  s.DefaultIndex,
		"total":          s.Total,
		"encoding":       s.Encoding,
		"shown":          len(s.Entries),
		"entries":        entries,
	}
}

// escapeCell keeps tokens containing pipes or whitespace readable in a
// Markdown table.
func escapeCell(s string) string {
	r := strings.NewReplacer("|", `\|`, "\t", `\t`, "\n", `\n`)
	if s = r.Replace(s); strings.TrimSpace(s) != s || s == "" {
		return "`" + s + "`"
	}
	return s
}

// Render renders s with tpl, or DefaultTemplate when tpl is empty.
func Render(s Summary, tpl string) (string, error) {
	if tpl == "" {
		tpl = DefaultTemplate
	}
	out, err := mustache.Render(tpl, s.context())
	if err != nil {
		return "", fmt.Errorf("rendering mustache template: %w", err)
	}
	return strings.TrimSpace(out) + "\n", nil
}

// LoadTemplate reads a template file. An empty path returns DefaultTemplate.
func LoadTemplate(path string) (string, error) {
	if path == "" {
		return DefaultTemplate, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading template: %w", err)
	}
	return string(b), nil
}
