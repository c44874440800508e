package core

import (
	"context"

	"github.com/JonMunkholm/masterconsole/internal/logging"
)

type contextKey string

const (
	ctxKeyOperator  contextKey = "operator"
	ctxKeyIPAddress contextKey = "client_ip"
	ctxKeyUserAgent contextKey = "client_ua"
)

// ContextWithOperator records the signed-in operator for import history.
func ContextWithOperator(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, ctxKeyOperator, email)
}

// OperatorFromContext returns the operator email, or "".
func OperatorFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyOperator).(string); ok {
		return v
	}
	return ""
}

// ContextWithIPAddress adds the client IP address to ctx.
func ContextWithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyIPAddress, ip)
}

// ContextWithUserAgent adds the client User-Agent to ctx.
func ContextWithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, ctxKeyUserAgent, ua)
}

// GetIPAddressFromContext extracts the client IP address from ctx.
func GetIPAddressFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyIPAddress).(string); ok {
		return v
	}
	return ""
}

// GetUserAgentFromContext extracts the client User-Agent from ctx.
func GetUserAgentFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyUserAgent).(string); ok {
		return v
	}
	return ""
}

// detach copies the request values an import run needs onto a context that
// is not cancelled when the request ends.
func detach(ctx context.Context) context.Context {
	out := logging.Detach(ctx)
	if op := OperatorFromContext(ctx); op != "" {
		out = ContextWithOperator(out, op)
	}
	if ip := GetIPAddressFromContext(ctx); ip != "" {
		out = ContextWithIPAddress(out, ip)
	}
	if ua := GetUserAgentFromContext(ctx); ua != "" {
		out = ContextWithUserAgent(out, ua)
	}
	return out
}
