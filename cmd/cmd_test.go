package cmd

import (
	"bytes"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// resetFlags restores every flag to its default, since rootCmd is shared
// between tests.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			sv.Replace(nil)
		} else {
			f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T) (cfgPath, modelDir string) {
	t.Helper()
	dir := t.TempDir()
	modelDir = filepath.Join(dir, "model")
	cfgPath = filepath.Join(dir, "config.yml")
	os.WriteFile(cfgPath, []byte("vocab:\n  model_dir: "+modelDir+"\ntokens:\n  encoding: \"\"\n"), 0o644)
	return cfgPath, modelDir
}

func TestTrainInferStats(t *testing.T) {
	cfgPath, modelDir := writeConfig(t)

	if _, err := execute(t, "[\"a b a c\"]\n", "train", "--config", cfgPath); err != nil {
		t.Fatalf("train: %v", err)
	}
	saved, err := os.ReadFile(filepath.Join(modelDir, "vocab.txt"))
	if err != nil {
		t.Fatalf("reading saved vocabulary: %v", err)
	}
	if string(saved) != "a\t2\nb\t1\nc\t1\n<UNK>\t0\n" {
		t.Errorf("saved vocabulary = %q", saved)
	}

	out, err := execute(t, "", "infer", "--config", cfgPath, "a", "zzz", "c")
	if err != nil {
		t.Fatalf("infer: %v", err)
	}
	if out != "1 0 3\n" {
		t.Errorf("infer args = %q", out)
	}

	out, err = execute(t, "a c\nzzz\n", "infer", "--config", cfgPath)
	if err != nil {
		t.Fatalf("infer stdin: %v", err)
	}
	if out != "1 3\n0\n" {
		t.Errorf("infer stdin = %q", out)
	}

	out, err = execute(t, "", "stats", "--config", cfgPath, "--top", "1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if !strings.Contains(out, "| size | 4 |") || !strings.Contains(out, "| 1 | a | 2 |") {
		t.Errorf("stats output:\n%s", out)
	}

	out, err = execute(t, "", "infer", "--config", cfgPath, "--decode", "2", "0")
	if err != nil {
		t.Fatalf("infer --decode: %v", err)
	}
	if out != "b <UNK>\n" {
		t.Errorf("infer --decode = %q", out)
	}
	if _, err := execute(t, "", "infer", "--config", cfgPath, "--decode", "42"); err == nil {
		t.Error("expected error decoding an unassigned index")
	}
}

func TestTrain_AccumulatesAndFresh(t *testing.T) {
	cfgPath, modelDir := writeConfig(t)
	corpusFile := filepath.Join(t.TempDir(), "corpus.txt")
	os.WriteFile(corpusFile, []byte("x y\nx\n"), 0o644)

	for range 2 {
		if _, err := execute(t, "", "train", "--config", cfgPath, corpusFile); err != nil {
			t.Fatalf("train: %v", err)
		}
	}
	saved, _ := os.ReadFile(filepath.Join(modelDir, "vocab.txt"))
	if string(saved) != "x\t4\ny\t2\n<UNK>\t0\n" {
		t.Errorf("accumulated vocabulary = %q", saved)
	}

	if _, err := execute(t, "", "train", "--config", cfgPath, "--fresh", corpusFile); err != nil {
		t.Fatalf("train --fresh: %v", err)
	}
	saved, _ = os.ReadFile(filepath.Join(modelDir, "vocab.txt"))
	if string(saved) != "x\t2\ny\t1\n<UNK>\t0\n" {
		t.Errorf("fresh vocabulary = %q", saved)
	}
}

func TestTrain_FreshOverMalformedFile(t *testing.T) {
	cfgPath, modelDir := writeConfig(t)
	os.MkdirAll(modelDir, 0o755)
	vocabPath := filepath.Join(modelDir, "vocab.txt")
	os.WriteFile(vocabPath, []byte("garbage-without-tab\n"), 0o644)

	if _, err := execute(t, "", "train", "--config", cfgPath, "--format", "text", "-"); err == nil {
		t.Fatal("expected error loading a malformed vocabulary")
	}
	if _, err := execute(t, "p q p\n", "train", "--config", cfgPath, "--format", "text", "--fresh", "-"); err != nil {
		t.Fatalf("train --fresh: %v", err)
	}
	saved, _ := os.ReadFile(vocabPath)
	if string(saved) != "p\t2\nq\t1\n<UNK>\t0\n" {
		t.Errorf("recovered vocabulary = %q", saved)
	}
}

func TestTrain_Errors(t *testing.T) {
	cfgPath, _ := writeConfig(t)

	if _, err := execute(t, "", "train", "--config", cfgPath, "--format", "csv", "-"); err == nil {
		t.Error("expected error for unknown format")
	}
	if _, err := execute(t, "", "train", "--config", cfgPath, "--format", "auto", "--type", "nope", "-"); err == nil {
		t.Error("expected error for unregistered vocabulary type")
	}
}

func TestConfigureLogging(t *testing.T) {
	out, flags := log.Writer(), log.Flags()
	t.Cleanup(func() {
		log.SetOutput(out)
		log.SetFlags(flags)
	})

	tests := []struct {
		level     string
		wantLine  bool
		wantFlags int
	}{
		{"info", true, log.LstdFlags},
		{"", true, log.LstdFlags},
		{"DEBUG", true, log.LstdFlags | log.Lmicroseconds | log.Lshortfile},
		{"quiet", false, log.LstdFlags},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			log.SetFlags(log.LstdFlags)
			var buf bytes.Buffer
			if err := configureLogging(&buf, tt.level); err != nil {
				t.Fatalf("configureLogging(%q): %v", tt.level, err)
			}
			log.Print("trained")
			if got := strings.Contains(buf.String(), "trained"); got != tt.wantLine {
				t.Errorf("logged = %v, want %v (output %q)", got, tt.wantLine, buf.String())
			}
			if log.Flags() != tt.wantFlags {
				t.Errorf("flags = %d, want %d", log.Flags(), tt.wantFlags)
			}
		})
	}

	if err := configureLogging(io.Discard, "verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestLoadConfig_InvalidLogLevel(t *testing.T) {
	cfgPath, _ := writeConfig(t)
	t.Setenv("VOCAB_LOG_LEVEL", "loud")

	if _, err := execute(t, "", "stats", "--config", cfgPath); err == nil || !strings.Contains(err.Error(), "log_level") {
		t.Errorf("stats error = %v, want invalid log_level", err)
	}
}
