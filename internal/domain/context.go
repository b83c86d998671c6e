package domain

import "context"

// contextKey is a type for context keys to avoid collisions
type contextKey string

const ownerIDKey contextKey = "owner_id"

// WithOwnerID adds the authenticated owner ID to the context
func WithOwnerID(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerIDKey, ownerID)
}

// GetOwnerIDFromContext extracts the owner ID from the context
func GetOwnerIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ownerIDKey).(string); ok {
		return v
	}
	return ""
}
