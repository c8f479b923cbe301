package http

import (
	"net/http"

	"github.com/retrifix/retrifix/pkg/httpx"
)

// LogoutHandler handles DELETE /logout. It clears both cookies
// unconditionally and is idempotent; it does not require a valid session
// and cannot cryptographically invalidate an already-issued token.
type LogoutHandler struct {
	Cookies *CookieManager
}

func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.Cookies.Clear(w)
	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Logged out, cookies cleared",
	})
}
