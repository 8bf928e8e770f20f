package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rickcrawford/defaultvocab/internal/report"
	"github.com/rickcrawford/defaultvocab/internal/tokens"
	"github.com/rickcrawford/defaultvocab/internal/vocab"
)

// Version is reported to MCP clients.
const Version = "1.0.0"

// Deps holds dependencies for MCP handlers
type Deps struct {
	Vocab        *vocab.Vocabulary
	TokenCounter *tokens.Counter
	// Template overrides report.DefaultTemplate for vocab_stats.
	Template string
}

// Handler handles MCP tool calls
type Handler struct {
	mu           sync.RWMutex
	vocab        *vocab.Vocabulary
	tokenCounter *tokens.Counter
	template     string
}

// New creates an MCP server with registered tools
func New(deps Deps) *server.MCPServer {
	s := server.NewMCPServer(
		"defaultvocab",
		Version,
	)

	handler := NewHandler(deps)
	RegisterTools(s, handler)

	return s
}

// NewHandler creates the tool handler without a server around it.
func NewHandler(deps Deps) *Handler {
	return &Handler{
		vocab:        deps.Vocab,
		tokenCounter: deps.TokenCounter,
		template:     deps.Template,
	}
}

func schema(props map[string]any, required ...string) mcp.ToolInputSchema {
	return mcp.ToolInputSchema(mcp.ToolArgumentsSchema{
		Type:       "object",
		Properties: props,
		Required:   required,
	})
}

// RegisterTools registers the vocab_lookup, vocab_decode, vocab_infer and
// vocab_stats tools
func RegisterTools(s *server.MCPServer, handler *Handler) {
	s.AddTool(
		mcp.Tool{
			Name:        "vocab_lookup",
			Description: "Map a token to its vocabulary index; unknown tokens map to the default token's index",
			InputSchema: schema(map[string]any{
				"token": map[string]any{
					"type":        "string",
					"description": "The token to look up",
				},
			}, "token"),
		},
		handler.handleLookup,
	)

	s.AddTool(
		mcp.Tool{
			Name:        "vocab_decode",
			Description: "Map a vocabulary index back to its token",
			InputSchema: schema(map[string]any{
				"index": map[string]any{
					"type":        "integer",
					"description": "The index to decode",
				},
			}, "index"),
		},
		handler.handleDecode,
	)

	s.AddTool(
		mcp.Tool{
			Name:        "vocab_infer",
			Description: "Map a list of tokens to their vocabulary indices",
			InputSchema: schema(map[string]any{
				"tokens": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Tokens to map, in order",
				},
			}, "tokens"),
		},
		handler.handleInfer,
	)

	s.AddTool(
		mcp.Tool{
			Name:        "vocab_stats",
			Description: "Summarize the vocabulary as Markdown: size, special tokens and most common entries",
			InputSchema: schema(map[string]any{
				"top": map[string]any{
					"type":        "integer",
					"description": "Number of entries to list (default 20, 0 for all)",
				},
			}),
		},
		handler.handleStats,
	)
}

func (h *Handler) handleLookup(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tok, err := request.RequireString("token")
	if err != nil {
		return mcp.NewToolResultError("token is required"), nil
	}

	h.mu.RLock()
	result := map[string]any{
		"token": tok,
		"index": h.vocab.TokenToIndex(tok),
		"known": h.vocab.Contains(tok),
		"count": h.vocab.Count(tok),
	}
	h.mu.RUnlock()
	return jsonResult(result)
}

func (h *Handler) handleDecode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	idx, err := request.RequireInt("index")
	if err != nil {
		return mcp.NewToolResultError("index is required"), nil
	}

	h.mu.RLock()
	tok, err := h.vocab.IndexToToken(idx)
	h.mu.RUnlock()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"index": idx, "token": tok})
}

func (h *Handler) handleInfer(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	toks, err := request.RequireStringSlice("tokens")
	if err != nil {
		return mcp.NewToolResultError("tokens must be an array of strings"), nil
	}

	h.mu.RLock()
	indices := h.vocab.InferTokens(toks)
	h.mu.RUnlock()
	return jsonResult(map[string]any{"tokens": toks, "indices": indices})
}

func (h *Handler) handleStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	top := request.GetInt("top", 20)
	if top < 0 {
		return mcp.NewToolResultError("top must not be negative"), nil
	}

	h.mu.RLock()
	s := report.Summarize(h.vocab, top, h.tokenCounter)
	h.mu.RUnlock()

	out, err := report.Render(s, h.template)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error rendering summary: %v", err)), nil
	}
	return mcp.NewToolResultText(out), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding tool result: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}
