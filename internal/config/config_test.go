package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/rickcrawford/defaultvocab/internal/vocab"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Vocab.Type != vocab.DefaultType {
		t.Errorf("Vocab.Type = %q", cfg.Vocab.Type)
	}
	if !reflect.DeepEqual(cfg.Vocab.Inputs, []string{"x"}) {
		t.Errorf("Vocab.Inputs = %v", cfg.Vocab.Inputs)
	}
	if cfg.Corpus.Format != "auto" || cfg.Corpus.Concurrency != 4 || cfg.Corpus.Timeout != 30*time.Second {
		t.Errorf("Corpus = %+v", cfg.Corpus)
	}
	if cfg.Server.Addr != ":8090" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if cfg.Vocab.ModelDir != "./model" || cfg.Vocab.ModelFile != "vocab.txt" {
		t.Errorf("model location = %q, %q", cfg.Vocab.ModelDir, cfg.Vocab.ModelFile)
	}
	if len(cfg.Corpus.Allow) != 0 {
		t.Errorf("Corpus.Allow = %v, want empty", cfg.Corpus.Allow)
	}

	opts, err := cfg.VocabOptions()
	if err != nil {
		t.Fatalf("VocabOptions: %v", err)
	}
	if !reflect.DeepEqual(opts, vocab.DefaultOptions()) {
		t.Errorf("VocabOptions() = %+v, want defaults", opts)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.yml")
	os.WriteFile(path, []byte(`vocab:
  inputs: [x, pos]
  level: char
  special_tokens: ["<PAD>", "<UNK>"]
  default_token: "<UNK>"
corpus:
  timeout: 5s
`), 0o644)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	opts, err := cfg.VocabOptions()
	if err != nil {
		t.Fatalf("VocabOptions: %v", err)
	}
	want := vocab.Options{
		Inputs:        []string{"x", "pos"},
		Level:         vocab.LevelCharacter,
		SpecialTokens: []string{"<PAD>", "<UNK>"},
		DefaultToken:  "<UNK>",
	}
	if !reflect.DeepEqual(opts, want) {
		t.Errorf("VocabOptions() = %+v, want %+v", opts, want)
	}
	if cfg.Corpus.Timeout != 5*time.Second {
		t.Errorf("Corpus.Timeout = %v", cfg.Corpus.Timeout)
	}
}

func TestLoad_Env(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("VOCAB_SERVER_ADDR", ":9999")
	t.Setenv("VOCAB_VOCAB_DEFAULT_TOKEN", "<PAD>")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9999" {
		t.Errorf("Server.Addr = %q, want env override", cfg.Server.Addr)
	}
	if cfg.Vocab.DefaultToken != "<PAD>" {
		t.Errorf("Vocab.DefaultToken = %q, want env override", cfg.Vocab.DefaultToken)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Error("expected error for explicit missing config file")
	}

	cfg := &Config{Vocab: VocabConfig{Level: "word"}}
	if _, err := cfg.VocabOptions(); err == nil {
		t.Error("expected error for unknown level")
	}
}
