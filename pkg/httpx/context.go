package httpx

import "context"

type ctxKey string

const (
	// CtxKeyUserID holds the principal's record ID once the session
	// middleware has resolved it.
	CtxKeyUserID ctxKey = "user_id"
	// CtxKeyUsername holds the session token's subject.
	CtxKeyUsername ctxKey = "username"
)

// UserIDFromCtx returns the resolved principal ID, or "" when the request is
// unauthenticated.
func UserIDFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyUserID).(string); ok {
		return v
	}
	return ""
}

// UsernameFromCtx returns the resolved principal username, or "".
func UsernameFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyUsername).(string); ok {
		return v
	}
	return ""
}

// WithPrincipal injects the resolved principal identity into the context.
func WithPrincipal(ctx context.Context, userID, username string) context.Context {
	ctx = context.WithValue(ctx, CtxKeyUserID, userID)
	return context.WithValue(ctx, CtxKeyUsername, username)
}
