// Package obscontext carries correlation identifiers through request contexts.
package obscontext

import (
	"context"
	"strings"
)

type requestIDKey struct{}

type actorKey struct{}

type actor struct {
	role string
	id   string
}

// WithRequestID stores the request ID in the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext returns the request ID, or empty when unset.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if value, ok := ctx.Value(requestIDKey{}).(string); ok {
		return value
	}
	return ""
}

// WithActor stores the acting role and identity in the context.
func WithActor(ctx context.Context, role, id string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor{
		role: strings.TrimSpace(role),
		id:   strings.TrimSpace(id),
	})
}

// ActorFromContext returns the acting role and identity, or empty strings.
func ActorFromContext(ctx context.Context) (string, string) {
	if ctx == nil {
		return "", ""
	}
	if value, ok := ctx.Value(actorKey{}).(actor); ok {
		return value.role, value.id
	}
	return "", ""
}
