package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rickcrawford/defaultvocab/internal/config"
	"github.com/rickcrawford/defaultvocab/internal/store"
	"github.com/rickcrawford/defaultvocab/internal/tokens"
	"github.com/rickcrawford/defaultvocab/internal/vocab"
)

var cfgFile string

// rootCmd is the top-level command.
var rootCmd = &cobra.Command{
	Use:   "defaultvocab",
	Short: "Build and query token-to-index vocabularies",
	Long: `defaultvocab builds a vocabulary that maps tokens (or characters) to dense
integer indices with frequency counts, saves it as a token<TAB>count text file
and serves lookups from the command line, an HTTP API or an MCP server.

Configure via config.yml, environment variables (VOCAB_ prefix), or CLI flags.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yml)")
	rootCmd.PersistentFlags().String("model-dir", "", "directory holding the vocabulary file (overrides config)")
	rootCmd.PersistentFlags().String("model-file", "", "vocabulary file name (overrides config)")
	rootCmd.PersistentFlags().String("type", "", "registered vocabulary type (overrides config)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies the persistent flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if v, _ := cmd.Flags().GetString("model-dir"); v != "" {
		cfg.Vocab.ModelDir = v
	}
	if v, _ := cmd.Flags().GetString("model-file"); v != "" {
		cfg.Vocab.ModelFile = v
	}
	if v, _ := cmd.Flags().GetString("type"); v != "" {
		cfg.Vocab.Type = v
	}
	if err := configureLogging(cmd.ErrOrStderr(), cfg.LogLevel); err != nil {
		return nil, err
	}
	return cfg, nil
}

// configureLogging points the standard logger at w for the given level.
// debug adds microseconds and the call site, quiet discards everything.
func configureLogging(w io.Writer, level string) error {
	switch strings.ToLower(level) {
	case "", "info":
		log.SetOutput(w)
		log.SetFlags(log.LstdFlags)
	case "debug":
		log.SetOutput(w)
		log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	case "quiet":
		log.SetOutput(io.Discard)
	default:
		return fmt.Errorf("invalid log_level: %s (must be debug, info or quiet)", level)
	}
	return nil
}

// openVocab builds the configured vocabulary type. A saved vocabulary is
// loaded unless fresh is set, in which case the file is not read at all and
// is overwritten on the next save. An empty model dir keeps it in memory only.
func openVocab(cfg *config.Config, fresh bool) (*vocab.Vocabulary, error) {
	opts, err := cfg.VocabOptions()
	if err != nil {
		return nil, err
	}

	var backend vocab.Backend
	if cfg.Vocab.ModelDir == "" {
		backend = store.NewMemory(cfg.Vocab.ModelFile)
		log.Println("no model dir configured, vocabulary is kept in memory")
	} else {
		backend = store.NewFile(cfg.Vocab.ModelDir, cfg.Vocab.ModelFile)
	}
	if fresh {
		backend = store.NewFresh(backend)
		log.Printf("starting fresh vocabulary at %s", backend.Path())
	} else if !backend.Exists() {
		log.Printf("no saved vocabulary at %s", backend.Path())
	}

	v, err := vocab.Build(cfg.Vocab.Type, opts, backend)
	if err != nil {
		return nil, fmt.Errorf("building vocabulary: %w", err)
	}
	return v, nil
}

// newTokenCounter creates the optional TikToken counter.
func newTokenCounter(cfg *config.Config) (*tokens.Counter, error) {
	counter, err := tokens.NewCounter(cfg.Tokens.Encoding)
	if err != nil {
		return nil, fmt.Errorf("initializing token counter: %w", err)
	}
	return counter, nil
}
