package auth

import "context"

type userIDKey struct{}

// WithUserID binds the verified owner id to the request context. Only the
// gate middleware calls this; handlers read it back and never widen it.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserIDFromContext returns the verified owner id attached by the gate.
func UserIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(userIDKey{}).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
