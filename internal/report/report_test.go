package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rickcrawford/defaultvocab/internal/store"
	"github.com/rickcrawford/defaultvocab/internal/vocab"
)

func newTrained(t *testing.T) *vocab.Vocabulary {
	t.Helper()
	v, err := vocab.New(vocab.DefaultOptions(), store.NewMemory("vocab.txt"))
	if err != nil {
		t.Fatalf("vocab.New: %v", err)
	}
	if err := v.Train([]vocab.Record{{X: "a b a c a|b"}}); err != nil {
		t.Fatalf("Train: %v", err)
	}
	return v
}

func TestSummarize(t *testing.T) {
	v := newTrained(t)
	s := Summarize(v, 2, nil)

	if s.Size != 5 {
		t.Errorf("Size = %d, want 5", s.Size)
	}
	if s.Total != 5 {
		t.Errorf("Total = %d, want 5", s.Total)
	}
	if s.Path != "memory:vocab.txt" {
		t.Errorf("Path = %q", s.Path)
	}
	if len(s.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(s.Entries))
	}
	if s.Entries[0] != (Row{Index: 1, Token: "a", Count: 2}) {
		t.Errorf("first entry = %+v", s.Entries[0])
	}
	if s.Encoding != "" {
		t.Errorf("Encoding = %q, want empty without counter", s.Encoding)
	}

	if all := Summarize(v, 0, nil); len(all.Entries) != 5 {
		t.Errorf("top 0 should list all entries, got %d", len(all.Entries))
	}
}

func TestRender_Default(t *testing.T) {
	out, err := Render(Summarize(newTrained(t), 0, nil), "")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	for _, want := range []string{
		"# Vocabulary memory:vocab.txt",
		"| size | 5 |",
		"| default token | <UNK> (index 0) |",
		"| 1 | a | 2 |",
		`| 4 | a\|b | 1 |`,
		"| 0 | <UNK> | 0 |",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "bpe") {
		t.Errorf("bpe column rendered without a counter:\n%s", out)
	}
}

func TestRender_CustomTemplate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "short.mustache")
	os.WriteFile(path, []byte("{{size}} entries:{{#entries}} {{{token}}}={{count}}{{/entries}}"), 0o644)

	tpl, err := LoadTemplate(path)
	if err != nil {
		t.Fatalf("LoadTemplate: %v", err)
	}
	out, err := Render(Summarize(newTrained(t), 2, nil), tpl)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out != "5 entries: a=2 b=1\n" {
		t.Errorf("Render() = %q", out)
	}
}

func TestLoadTemplate(t *testing.T) {
	tpl, err := LoadTemplate("")
	if err != nil || tpl != DefaultTemplate {
		t.Errorf("LoadTemplate(\"\") = %q, %v", tpl, err)
	}
	if _, err := LoadTemplate(filepath.Join(t.TempDir(), "missing.mustache")); err == nil {
		t.Error("expected error for missing template")
	}
}

func TestEscapeCell(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"a|b", `a\|b`},
		{" ", "` `"},
		{"", "``"},
		{"tab\there", `tab\there`},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := escapeCell(tt.in); got != tt.want {
				t.Errorf("escapeCell(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
