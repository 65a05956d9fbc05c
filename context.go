package authsession

import "context"

type sessionKey struct{}

// BindSession stores the session inside the context for downstream renderers.
func BindSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// SessionFromContext retrieves a session previously stored in the context.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	if ctx == nil {
		return nil, false
	}
	sess, ok := ctx.Value(sessionKey{}).(*Session)
	if !ok || sess == nil {
		return nil, false
	}
	return sess, true
}
