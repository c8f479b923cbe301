package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/retrifix/retrifix/internal/service"
	"github.com/retrifix/retrifix/pkg/httpx"
	"github.com/retrifix/retrifix/pkg/slogx"
)

// LoginRequest carries the factor-1 credentials.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse reports factor-1 success. MFAURI is only present for a new
// enrollment and embeds the TOTP secret; it is shown exactly once.
type LoginResponse struct {
	Message string `json:"message"`
	MFAURI  string `json:"mfa_uri,omitempty"`
}

// LoginHandler handles POST /login: factor-1 verification against the
// configured backend. Success sets the pending-MFA cookie only; no session
// token exists yet. Failure sets nothing.
type LoginHandler struct {
	AuthService *service.AuthService
	Cookies     *CookieManager
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if req.Username == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "username and password are required")
		return
	}

	result, err := h.AuthService.Login(ctx, req.Username, req.Password)
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		log.Warn("login failed", "username", req.Username)
		httpx.WriteError(w, http.StatusUnauthorized,
			"invalid_credentials", "Invalid username or password")
		return
	case errors.Is(err, service.ErrServiceUnavailable):
		log.Error("directory unreachable during login", "username", req.Username, "err", err)
		httpx.WriteError(w, http.StatusBadGateway,
			"directory_unavailable", "Directory service unavailable")
		return
	case errors.Is(err, service.ErrProtocolError):
		log.Error("directory protocol error during login", "username", req.Username, "err", err)
		httpx.WriteError(w, http.StatusBadGateway,
			"directory_error", "Directory service error")
		return
	case err != nil:
		log.Error("login failed", "username", req.Username, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError,
			"server_error", "Internal server error")
		return
	}

	h.Cookies.SetPending(w, result.User.Username)

	resp := LoginResponse{Message: "MFA verification required"}
	if result.NewEnrollment {
		resp.Message = "New user registered"
		resp.MFAURI = result.ProvisioningURI
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}
