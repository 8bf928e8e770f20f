package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	mcpserver "github.com/rickcrawford/defaultvocab/internal/mcp"
	"github.com/rickcrawford/defaultvocab/internal/report"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server with vocabulary lookup tools",
	Long: `Start an MCP server that provides vocab_lookup, vocab_decode, vocab_infer and
vocab_stats tools over the saved vocabulary.
Supports both stdio mode (for desktop clients) and HTTP mode (for Streamable HTTP).`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("mcp-transport", "", "MCP server transport: stdio or http (overrides config)")
	mcpCmd.Flags().String("mcp-addr", "", "address for HTTP mode MCP server (overrides config)")
	mcpCmd.Flags().String("template", "", "mustache template file for vocab_stats")
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if v, _ := cmd.Flags().GetString("mcp-transport"); v != "" {
		cfg.Server.MCPTransport = v
	}
	if v, _ := cmd.Flags().GetString("mcp-addr"); v != "" {
		cfg.Server.MCPAddr = v
	}
	if t := cfg.Server.MCPTransport; t != "stdio" && t != "http" {
		return fmt.Errorf("invalid mcp-transport: %s (must be stdio or http)", t)
	}

	tplPath, _ := cmd.Flags().GetString("template")
	tpl, err := report.LoadTemplate(tplPath)
	if err != nil {
		return err
	}

	v, err := openVocab(cfg, false)
	if err != nil {
		return err
	}
	tokenCounter, err := newTokenCounter(cfg)
	if err != nil {
		return err
	}

	mcpServer := mcpserver.New(mcpserver.Deps{
		Vocab:        v,
		TokenCounter: tokenCounter,
		Template:     tpl,
	})

	log.Printf("mcp: serving %d entries over %s", v.Len(), cfg.Server.MCPTransport)

	switch cfg.Server.MCPTransport {
	case "http":
		return serveMCPHTTP(mcpServer, cfg.Server.MCPAddr)
	default:
		// ServeStdio installs its own SIGINT/SIGTERM handling.
		if err := server.ServeStdio(mcpServer); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("mcp stdio: %w", err)
		}
		return nil
	}
}

// serveMCPHTTP runs the Streamable HTTP transport on addr until a signal
// arrives, then drains it.
func serveMCPHTTP(mcpServer *server.MCPServer, addr string) error {
	httpServer := server.NewStreamableHTTPServer(mcpServer)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.Printf("mcp: listening on %s", addr)
		errc <- httpServer.Start(addr)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("mcp http: %w", err)
	case <-ctx.Done():
	}

	log.Println("mcp: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
