// Package middleware provides HTTP middleware for the web server.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/JonMunkholm/masterconsole/internal/core"
	"github.com/JonMunkholm/masterconsole/internal/logging"
)

// Logger is an HTTP middleware that logs request details using structured logging.
//
// The entry carries the request ID from chi's RequestID middleware through
// logging.FromContext. Server errors log at error level, client errors at
// warn, and health checks are not logged.
//
// Log fields:
//   - method, path, status
//   - bytes: response body size
//   - duration_ms: Request processing time in milliseconds
//   - ip: Client IP address as resolved by TrustedRealIP
//   - operator: signed-in operator email, when any
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		// RequireSession runs further down the chain; it reports the
		// operator back through this holder.
		holder := &operatorHolder{}
		next.ServeHTTP(ww, r.WithContext(withOperatorHolder(r.Context(), holder)))

		level := slog.LevelInfo
		switch {
		case ww.status >= 500:
			level = slog.LevelError
		case ww.status >= 400:
			level = slog.LevelWarn
		}

		logging.FromContext(r.Context()).Log(r.Context(), level, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.status,
			"bytes", ww.bytes,
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", core.GetIPAddressFromContext(r.Context()),
			"operator", holder.email,
		)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	status      int
	bytes       int
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.status = status
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// Flush forwards to the wrapped writer so event streams are not buffered.
func (w *responseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap provides access to the underlying ResponseWriter for middleware
// that need to inspect it (e.g., http.Flusher for SSE).
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// operatorHolder carries the signed-in operator back up to Logger.
type operatorHolder struct {
	email string
}

type holderKey struct{}

func withOperatorHolder(ctx context.Context, h *operatorHolder) context.Context {
	return context.WithValue(ctx, holderKey{}, h)
}

func reportOperator(ctx context.Context, email string) {
	if h, ok := ctx.Value(holderKey{}).(*operatorHolder); ok {
		h.email = email
	}
}
