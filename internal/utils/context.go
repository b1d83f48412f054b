package utils

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	userIDKey   contextKey = "user_id"
	usernameKey contextKey = "username"
)

// WithUser returns a context annotated with the authenticated user's identity
func WithUser(ctx context.Context, userID uuid.UUID, username string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, usernameKey, username)
}

// GetUserIDFromContext extracts the authenticated user id set by AuthMiddleware
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	return id, ok
}

// GetUsernameFromContext extracts the authenticated username set by AuthMiddleware
func GetUsernameFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(usernameKey).(string)
	return name, ok
}
