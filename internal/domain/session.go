package domain

import "context"

// Session is the acting user and tenant for a request.
type Session struct {
	TenantID string
	UserID   string
}

type sessionKey struct{}

// WithSession stores s on ctx.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the session stored on ctx, if any.
func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}
