package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/JonMunkholm/masterconsole/internal/core"
	"github.com/JonMunkholm/masterconsole/internal/session"
)

type ctxKey struct{}

// SessionFromContext returns the operator session attached by RequireSession.
func SessionFromContext(ctx context.Context) (session.Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(session.Session)
	return s, ok
}

// WithSession attaches s to ctx and records the operator for import history.
func WithSession(ctx context.Context, s session.Session) context.Context {
	ctx = context.WithValue(ctx, ctxKey{}, s)
	reportOperator(ctx, s.Email)
	return core.ContextWithOperator(ctx, s.Email)
}

// RequireSession returns middleware that resolves the session cookie against
// store. Pages without a live session are redirected to /login; API requests
// get a 401 JSON body carrying the AUTH002 code.
func RequireSession(store session.Store, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				deny(w, r, session.ErrNotFound)
				return
			}

			s, err := store.Get(r.Context(), cookie.Value)
			if err != nil {
				if !errors.Is(err, session.ErrNotFound) {
					slog.Error("auth: session lookup failed",
						"path", r.URL.Path,
						"error", err,
					)
				}
				deny(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
		})
	}
}

func deny(w http.ResponseWriter, r *http.Request, err error) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		msg := core.MapError(err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{
			"error":   err.Error(),
			"message": msg.Message,
			"action":  msg.Action,
			"code":    msg.Code,
		})
		return
	}

	target := "/login"
	if r.Method == http.MethodGet && r.URL.Path != "/" {
		target += "?next=" + url.QueryEscape(r.URL.RequestURI())
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
