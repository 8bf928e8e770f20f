package vocab

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/rickcrawford/defaultvocab/internal/store"
)

func TestSave_Format(t *testing.T) {
	dir := t.TempDir()
	backend := store.NewFile(filepath.Join(dir, "model"), "vocab.txt")
	v, err := New(DefaultOptions(), backend)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := v.Train([]Record{{X: "a b a c"}}); err != nil {
		t.Fatalf("Train: %v", err)
	}

	got, err := os.ReadFile(backend.Path())
	if err != nil {
		t.Fatalf("reading saved file: %v", err)
	}
	want := "a\t2\nb\t1\nc\t1\n<UNK>\t0\n"
	if string(got) != want {
		t.Errorf("saved file = %q, want %q", got, want)
	}
}

func TestSaveResetLoad_RoundTrip(t *testing.T) {
	opts := DefaultOptions()
	opts.SpecialTokens = []string{"<PAD>", "<UNK>"}
	v, _ := newTestVocab(t, opts)
	if err := v.Train([]Record{{X: "z y y x x x w"}, {X: "w w w w"}}); err != nil {
		t.Fatalf("Train: %v", err)
	}

	before := map[string]int{}
	for _, e := range v.Items() {
		before[e.Token] = e.Count
	}

	if err := v.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if err := v.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	after := map[string]int{}
	for _, e := range v.Items() {
		after[e.Token] = e.Count
	}
	if len(before) != len(after) {
		t.Fatalf("round trip changed size: %v -> %v", before, after)
	}
	for tok, n := range before {
		if after[tok] != n {
			t.Errorf("count of %q: %d -> %d", tok, n, after[tok])
		}
	}

	// Indices are reassigned by saved (descending count) order, specials first.
	wantOrder := []string{"<PAD>", "<UNK>", "w", "x", "y", "z"}
	for i, tok := range wantOrder {
		if got, _ := v.IndexToToken(i); got != tok {
			t.Errorf("IndexToToken(%d) = %q, want %q", i, got, tok)
		}
	}
}

func TestLoad_Merges(t *testing.T) {
	mem := store.NewMemoryWith("", []byte("b\t4\na\t2\n<UNK>\t0\n"))
	v, err := New(DefaultOptions(), mem)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if v.Count("b") != 4 || v.Count("a") != 2 {
		t.Fatalf("New did not load existing file: %v", v.Items())
	}

	// A second Load without Reset accumulates on top of the current state.
	if err := v.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if v.Count("b") != 8 || v.Count("a") != 4 {
		t.Errorf("expected merged counts, got %v", v.Items())
	}
	if v.Len() != 3 {
		t.Errorf("Len() = %d, want 3", v.Len())
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	v, _ := newTestVocab(t, DefaultOptions())
	if err := v.Load(); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("Load() error = %v, want ErrFileNotFound", err)
	}
}

func TestLoad_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"no tab", "a 1\n"},
		{"non-integer count", "a\tmany\n"},
		{"negative count", "a\t-3\n"},
		{"blank line", "a\t1\n\nb\t2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(DefaultOptions(), store.NewMemoryWith("", []byte(tt.data)))
			if !errors.Is(err, ErrMalformedLine) {
				t.Errorf("New() error = %v, want ErrMalformedLine", err)
			}
		})
	}
}

func TestReadEntries(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		tokens  []string
		counts  []int
		wantErr bool
	}{
		{name: "empty", data: ""},
		{name: "trailing newline", data: "a\t2\nb\t1\n", tokens: []string{"a", "b"}, counts: []int{2, 1}},
		{name: "no trailing newline", data: "a\t2\nb\t1", tokens: []string{"a", "b"}, counts: []int{2, 1}},
		{name: "crlf", data: "a\t2\r\n", tokens: []string{"a"}, counts: []int{2}},
		{name: "whitespace around count", data: "a\t 3\t\n", tokens: []string{"a"}, counts: []int{3}},
		{name: "space token", data: " \t5\n", tokens: []string{" "}, counts: []int{5}},
		{name: "tab inside token", data: "a\tb\t3\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, counts, err := ReadEntries(strings.NewReader(tt.data))
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedLine) {
					t.Errorf("error = %v, want ErrMalformedLine", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadEntries: %v", err)
			}
			if !slices.Equal(tokens, tt.tokens) || !slices.Equal(counts, tt.counts) {
				t.Errorf("ReadEntries() = %q %v, want %q %v", tokens, counts, tt.tokens, tt.counts)
			}
		})
	}
}

func TestWriteEntries(t *testing.T) {
	var b strings.Builder
	err := WriteEntries(&b, []Entry{{"hello", 3}, {"<UNK>", 0}})
	if err != nil {
		t.Fatalf("WriteEntries: %v", err)
	}
	if b.String() != "hello\t3\n<UNK>\t0\n" {
		t.Errorf("WriteEntries wrote %q", b.String())
	}
}

func BenchmarkSaveLoad(b *testing.B) {
	v, _ := newTestVocab(b, DefaultOptions())
	v.Train([]Record{{X: strings.Repeat("alpha beta gamma delta epsilon ", 200)}})
	for b.Loop() {
		v.Save()
		v.Reset()
		v.Load()
	}
}
