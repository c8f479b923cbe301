package http

import (
	"net/http"

	"github.com/retrifix/retrifix/internal/service"
	"github.com/retrifix/retrifix/pkg/httpx"
	"github.com/retrifix/retrifix/pkg/slogx"
)

// SessionMiddleware is the "resolve current principal" capability every
// protected endpoint consumes. It reads the session cookie, verifies the
// token and loads the principal; a missing cookie, an invalid token or a
// vanished subject all end the request with 401. The pending-MFA marker is
// deliberately ignored here.
func SessionMiddleware(auth *service.AuthService, cookies *CookieManager) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			token, ok := cookies.SessionToken(r)
			if !ok {
				httpx.WriteError(w, http.StatusUnauthorized,
					"unauthenticated", "Not authenticated")
				return
			}

			user, err := auth.ResolvePrincipal(ctx, token)
			if err != nil {
				log.Warn("session resolution failed", "err", err)
				httpx.WriteError(w, http.StatusUnauthorized,
					"unauthenticated", "Invalid or expired session")
				return
			}

			ctx = httpx.WithPrincipal(ctx, user.ID, user.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
