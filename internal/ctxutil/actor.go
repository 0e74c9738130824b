// Package ctxutil carries request-scoped values through context.
// It has no internal dependencies so any package can import it.
package ctxutil

import "context"

type actorKey struct{}

// WithActor returns a context naming who is performing the operation.
// The actor is written to journal events; it does not grant any role.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor stored in ctx, or fallback if none is set.
func ActorFromContext(ctx context.Context, fallback string) string {
	if v, ok := ctx.Value(actorKey{}).(string); ok && v != "" {
		return v
	}
	return fallback
}
