package api

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rickcrawford/defaultvocab/internal/metrics"
)

// AccessLogger logs one line per API request in an access-log style format,
// including the chi request ID when present, and records request metrics by
// route pattern.
func AccessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapped := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(wrapped, r)

		elapsed := time.Since(start)
		status := wrapped.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		metrics.RecordRequest(route, r.Method, status, elapsed.Seconds())

		reqID := middleware.GetReqID(r.Context())
		if reqID == "" {
			reqID = "-"
		}

		log.Printf("%s %s %s %d %s %s %s %dB",
			reqID,
			r.Method,
			r.URL.RequestURI(),
			status,
			http.StatusText(status),
			r.RemoteAddr,
			elapsed.String(),
			wrapped.BytesWritten(),
		)
	})
}
