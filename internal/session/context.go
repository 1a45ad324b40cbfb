package session

import (
	"context"
	"errors"
)

type contextKey struct{}

// WithID returns a context carrying the session ID.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// IDFromContext returns the session ID stored by WithID.
func IDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKey{}).(string)
	return id, ok && id != ""
}

// TokenSource reads the backend token of the session in the request context.
// A context without a session yields an empty token so unauthenticated calls
// such as login still work.
type TokenSource struct {
	Store *RedisStore
}

// Token implements backend.TokenSource.
func (ts TokenSource) Token(ctx context.Context) (string, error) {
	id, ok := IDFromContext(ctx)
	if !ok {
		return "", nil
	}
	sess, err := ts.Store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return sess.AuthToken, nil
}

type userKey struct{}

// WithUser returns a context carrying the signed-in user's ID.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// UserFromContext returns the user ID stored by WithUser.
func UserFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userKey{}).(string)
	return id
}
