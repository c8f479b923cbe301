package http

import (
	"net/http"
	"time"
)

// Cookie names. The pending cookie deliberately carries only the username;
// it is never a credential.
const (
	pendingCookieName = "username"
	sessionCookieName = "access_token"
)

// CookieManager binds session tokens and the interim pending-MFA marker to
// transport cookies. Two roles: a short-lived, non-sensitive "pending
// username" cookie set after factor-1, and the sensitive session-token
// cookie set after factor-2.
type CookieManager struct {
	Secure     bool // Secure attribute on both cookies (TLS deployments)
	PendingTTL time.Duration
	SessionTTL time.Duration
}

// SetPending marks which username passed factor-1. Readable by client-side
// code (no HttpOnly) since it carries no secret; it must never be accepted
// as authorization for protected operations.
func (c *CookieManager) SetPending(w http.ResponseWriter, username string) {
	http.SetCookie(w, &http.Cookie{
		Name:     pendingCookieName,
		Value:    username,
		Path:     "/",
		MaxAge:   int(c.PendingTTL.Seconds()),
		HttpOnly: false,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Pending returns the username recorded by the pending marker, if any.
func (c *CookieManager) Pending(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(pendingCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// SetSession attaches the signed session token. HttpOnly keeps it away from
// client-side scripts; SameSite=Lax keeps it off cross-site requests.
func (c *CookieManager) SetSession(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SessionToken returns the raw session token from the request, if present.
func (c *CookieManager) SessionToken(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// Clear expires both cookies. Idempotent; it does not (and cannot)
// invalidate an already-issued token cryptographically.
func (c *CookieManager) Clear(w http.ResponseWriter) {
	for _, name := range []string{pendingCookieName, sessionCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: name == sessionCookieName,
			Secure:   c.Secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// ClearPending expires only the pending marker, used once factor-2 succeeds.
func (c *CookieManager) ClearPending(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     pendingCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
