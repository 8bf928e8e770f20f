package cmd

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rickcrawford/defaultvocab/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve vocabulary lookups and training over HTTP",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if v, _ := cmd.Flags().GetString("addr"); v != "" {
		cfg.Server.Addr = v
	}

	v, err := openVocab(cfg, false)
	if err != nil {
		return err
	}
	tokenCounter, err := newTokenCounter(cfg)
	if err != nil {
		return err
	}

	srv := api.New(api.Options{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Vocab:        v,
		TokenCounter: tokenCounter,
	})

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("shutting down api server...")
		srv.Close()
	}()

	log.Printf("starting api server on %s (vocabulary: %s, size %d)", cfg.Server.Addr, v.Backend().Path(), v.Len())

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
