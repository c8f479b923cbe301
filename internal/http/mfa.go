package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/retrifix/retrifix/internal/service"
	"github.com/retrifix/retrifix/pkg/httpx"
	"github.com/retrifix/retrifix/pkg/slogx"
)

// VerifyMFARequest carries the submitted one-time code.
type VerifyMFARequest struct {
	Code string `json:"code"`
}

// VerifyMFAHandler handles POST /verify-mfa: the PendingMFA -> Authenticated
// transition. It reads the pending-username marker, verifies the TOTP code
// and only then sets the session cookie. A failed check never issues a
// token.
type VerifyMFAHandler struct {
	AuthService *service.AuthService
	Cookies     *CookieManager
}

func (h *VerifyMFAHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req VerifyMFARequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	username, ok := h.Cookies.Pending(r)
	if !ok {
		httpx.WriteError(w, http.StatusBadRequest,
			"missing_pending_state", "No pending login; start with /login")
		return
	}

	token, user, err := h.AuthService.VerifyMFA(ctx, username, req.Code)
	switch {
	case errors.Is(err, service.ErrUnknownUser):
		httpx.WriteError(w, http.StatusNotFound, "unknown_user", "User not found")
		return
	case errors.Is(err, service.ErrInvalidCode):
		log.Warn("MFA verification failed", "username", username)
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_code", "Invalid MFA code")
		return
	case err != nil:
		log.Error("MFA verification failed", "username", username, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError,
			"server_error", "Internal server error")
		return
	}

	h.Cookies.SetSession(w, token)
	h.Cookies.ClearPending(w)

	log.Info("login completed", "username", user.Username)
	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "MFA verification successful",
	})
}
