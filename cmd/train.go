package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rickcrawford/defaultvocab/internal/cache"
	"github.com/rickcrawford/defaultvocab/internal/corpus"
	"github.com/rickcrawford/defaultvocab/internal/vocab"
)

var trainCmd = &cobra.Command{
	Use:   "train [sources...]",
	Short: "Train the vocabulary on corpus files, URLs or stdin",
	Long: `Reads records from each source (local paths, http(s) URLs, or - for stdin),
extracts units from the configured input fields and adds them to the
vocabulary, then saves it. Sources are read concurrently but trained in
argument order. With no sources, stdin is read.`,
	RunE: runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)

	trainCmd.Flags().String("format", "", "corpus format: auto, jsonl, text or html (overrides config)")
	trainCmd.Flags().StringSlice("inputs", nil, "record fields to extract units from (overrides config)")
	trainCmd.Flags().String("level", "", "unit level: token or character (overrides config)")
	trainCmd.Flags().Bool("fresh", false, "ignore the saved vocabulary and start from the special tokens")
	trainCmd.Flags().Int("concurrency", 0, "max sources read at once (overrides config)")
	trainCmd.Flags().String("cache-dir", "", "cache directory for fetched URL sources (overrides config)")
	trainCmd.Flags().Int64("max-body-size", 0, "max decoded size of a source in bytes (overrides config)")
	trainCmd.Flags().StringSlice("allow", nil, "regex URL sources must match (repeatable, overrides config)")
}

func runTrain(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// CLI flag overrides.
	if v, _ := cmd.Flags().GetString("format"); v != "" {
		cfg.Corpus.Format = v
	}
	if v, _ := cmd.Flags().GetStringSlice("inputs"); len(v) > 0 {
		cfg.Vocab.Inputs = v
	}
	if v, _ := cmd.Flags().GetString("level"); v != "" {
		cfg.Vocab.Level = v
	}
	if v, _ := cmd.Flags().GetInt("concurrency"); v > 0 {
		cfg.Corpus.Concurrency = v
	}
	if v, _ := cmd.Flags().GetString("cache-dir"); v != "" {
		cfg.Cache.Dir = v
		cfg.Cache.Enabled = true
	}
	if v, _ := cmd.Flags().GetInt64("max-body-size"); v > 0 {
		cfg.Corpus.MaxBodySize = v
	}
	if v, _ := cmd.Flags().GetStringSlice("allow"); len(v) > 0 {
		cfg.Corpus.Allow = v
	}
	fresh, _ := cmd.Flags().GetBool("fresh")

	format, err := corpus.ParseFormat(cfg.Corpus.Format)
	if err != nil {
		return err
	}

	v, err := openVocab(cfg, fresh)
	if err != nil {
		return err
	}

	tokenCounter, err := newTokenCounter(cfg)
	if err != nil {
		return err
	}

	// Cache.
	var diskCache *cache.DiskCache
	if cfg.Cache.Enabled && cfg.Cache.Dir != "" {
		diskCache, err = cache.New(cfg.Cache.Dir, cfg.Cache.TTL)
		if err != nil {
			return fmt.Errorf("initializing cache: %w", err)
		}
		log.Printf("corpus cache enabled: %s", cfg.Cache.Dir)
	}

	allow, err := corpus.NewSourceFilter(cfg.Corpus.Allow)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(args) == 0 {
		args = []string{"-"}
	}
	reader := corpus.NewReader(corpus.Options{
		Format:      format,
		Concurrency: cfg.Corpus.Concurrency,
		Timeout:     cfg.Corpus.Timeout,
		MaxBodySize: cfg.Corpus.MaxBodySize,
		Cache:       diskCache,
		Allow:       allow,
		Stdin:       cmd.InOrStdin(),
	})
	records, err := reader.ReadAll(ctx, args)
	if err != nil {
		return err
	}

	before := v.Len()
	if err := v.Train(records); err != nil {
		return fmt.Errorf("training: %w", err)
	}
	log.Printf("trained on %d records from %d sources: %d new entries, size %d, saved to %s",
		len(records), len(args), v.Len()-before, v.Len(), v.Backend().Path())

	if tokenCounter != nil {
		opts := v.Options()
		ex, err := vocab.NewExtractor(opts.Inputs, opts.Level)
		if err != nil {
			return err
		}
		units, err := ex.ExtractAll(records)
		if err != nil {
			return err
		}
		log.Printf("corpus has %d units costing %d %s tokens", len(units), tokenCounter.Total(units), tokenCounter.Encoding())
	}
	return nil
}
