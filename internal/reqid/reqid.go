// Package reqid propagates the per-request correlation identifier through
// context, so the gateway can stamp outbound calls and the logger can tag
// every line belonging to one inbound request.
package reqid

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey struct{}

// Header is the wire name for the correlation identifier.
const Header = "X-Request-ID"

// New returns a fresh correlation identifier.
func New() string {
	return uuid.NewString()
}

// WithContext returns a context carrying the given correlation identifier.
func WithContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the correlation identifier, or "" when none is set.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
