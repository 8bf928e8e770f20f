// Package api serves vocabulary lookups, inference and incremental training
// over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/rickcrawford/defaultvocab/internal/metrics"
	"github.com/rickcrawford/defaultvocab/internal/report"
	"github.com/rickcrawford/defaultvocab/internal/tokens"
	"github.com/rickcrawford/defaultvocab/internal/vocab"
)

// maxRequestBody bounds JSON request bodies.
const maxRequestBody = 32 << 20

// Options configures the API server.
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	Vocab        *vocab.Vocabulary
	TokenCounter *tokens.Counter
}

// Handler serves the API for one vocabulary. Vocabulary is not safe for
// concurrent use, so every access goes through mu.
type Handler struct {
	mu      sync.RWMutex
	vocab   *vocab.Vocabulary
	counter *tokens.Counter
}

// New creates an *http.Server serving the API described by opts.
func New(opts Options) *http.Server {
	return &http.Server{
		Addr:         opts.Addr,
		Handler:      NewHandler(opts.Vocab, opts.TokenCounter).Routes(),
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}
}

// NewHandler wraps v. counter may be nil.
func NewHandler(v *vocab.Vocabulary, counter *tokens.Counter) *Handler {
	metrics.SetVocabularySize(v.Len())
	return &Handler{vocab: v, counter: counter}
}

// Routes builds the chi router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.RequestID)
	r.Use(AccessLogger)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/vocab", h.handleSummary)
		r.Get("/vocab/items", h.handleItems)
		r.Get("/tokens/{token}", h.handleToken)
		r.Get("/indices/{index}", h.handleIndex)
		r.Post("/infer", h.handleInfer)
		r.Post("/train", h.handleTrain)
	})
	return r
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	top, err := topParam(r, 10)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.mu.RLock()
	s := report.Summarize(h.vocab, top, h.counter)
	h.mu.RUnlock()
	writeJSON(w, http.StatusOK, s)
}

func (h *Handler) handleItems(w http.ResponseWriter, r *http.Request) {
	top, err := topParam(r, 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.mu.RLock()
	items := h.vocab.MostCommon(top)
	h.mu.RUnlock()
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

type tokenResponse struct {
	Token string `json:"token"`
	Index int    `json:"index"`
	Known bool   `json:"known"`
	Count int    `json:"count"`
}

func (h *Handler) handleToken(w http.ResponseWriter, r *http.Request) {
	tok := pathParam(r, "token")
	h.mu.RLock()
	resp := tokenResponse{
		Token: tok,
		Index: h.vocab.TokenToIndex(tok),
		Known: h.vocab.Contains(tok),
		Count: h.vocab.Count(tok),
	}
	h.mu.RUnlock()
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "index must be an integer")
		return
	}
	h.mu.RLock()
	tok, err := h.vocab.IndexToToken(idx)
	h.mu.RUnlock()
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"index": idx, "token": tok})
}

type inferRequest struct {
	Tokens  []string `json:"tokens,omitempty"`
	Indices []int    `json:"indices,omitempty"`
}

// inferResponse carries one field per requested direction. Empty results
// are kept as [], only unrequested directions are omitted.
type inferResponse struct {
	Indices []int    `json:"indices,omitzero"`
	Tokens  []string `json:"tokens,omitzero"`
}

func (h *Handler) handleInfer(w http.ResponseWriter, r *http.Request) {
	var req inferRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Tokens == nil && req.Indices == nil {
		writeError(w, http.StatusBadRequest, "tokens or indices is required")
		return
	}

	var resp inferResponse
	h.mu.RLock()
	defer h.mu.RUnlock()
	if req.Tokens != nil {
		resp.Indices = h.vocab.InferTokens(req.Tokens)
	}
	if req.Indices != nil {
		toks, err := h.vocab.InferIndices(req.Indices)
		if err != nil {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		resp.Tokens = toks
	}
	writeJSON(w, http.StatusOK, resp)
}

type trainRequest struct {
	Records []vocab.Record `json:"records"`
}

func (h *Handler) handleTrain(w http.ResponseWriter, r *http.Request) {
	var req trainRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	before := h.vocab.Len()
	if err := h.vocab.Train(req.Records); err != nil {
		log.Printf("train error: %v", err)
		status := http.StatusInternalServerError
		if errors.Is(err, vocab.ErrMissingField) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}
	added := h.vocab.Len() - before
	metrics.RecordTrain(len(req.Records), added)
	metrics.SetVocabularySize(h.vocab.Len())

	writeJSON(w, http.StatusOK, map[string]int{
		"records": len(req.Records),
		"added":   added,
		"size":    h.vocab.Len(),
	})
}

// pathParam returns a URL parameter, unescaped when the request path carried
// escapes chi matched against.
func pathParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if r.URL.RawPath != "" {
		if u, err := url.PathUnescape(v); err == nil {
			return u
		}
	}
	return v
}

func topParam(r *http.Request, def int) (int, error) {
	s := r.URL.Query().Get("top")
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.New("top must be a non-negative integer")
	}
	return n, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
