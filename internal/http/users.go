package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/retrifix/retrifix/internal/directory"
	"github.com/retrifix/retrifix/internal/service"
	"github.com/retrifix/retrifix/pkg/httpx"
	"github.com/retrifix/retrifix/pkg/slogx"
)

// AddUsersResponse lists the usernames actually created; existing ones are
// silently skipped.
type AddUsersResponse struct {
	Message string   `json:"message"`
	Added   []string `json:"added"`
}

// UsersHandler exposes the administrative user endpoints.
type UsersHandler struct {
	UserService *service.UserService

	// Directory is set for LDAP deployments; /add-users then provisions
	// directory entries instead of local principals.
	Directory *directory.Directory
}

// HandleAddUsers handles POST /add-users. Idempotent: entries that already
// exist are skipped.
func (h *UsersHandler) HandleAddUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var users []directory.Credential
	if err := json.NewDecoder(r.Body).Decode(&users); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if len(users) == 0 {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "No users supplied")
		return
	}

	var (
		added []string
		err   error
	)
	if h.Directory != nil {
		added, err = h.Directory.ProvisionUsers(ctx, users)
	} else {
		added, err = h.UserService.ProvisionLocalUsers(ctx, users)
	}

	switch {
	case errors.Is(err, directory.ErrServiceUnavailable):
		log.Error("directory unreachable during provisioning", "err", err)
		httpx.WriteError(w, http.StatusBadGateway,
			"directory_unavailable", "Directory service unavailable")
		return
	case err != nil:
		log.Error("user provisioning failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError,
			"server_error", "Failed to provision users")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, AddUsersResponse{
		Message: "Users added successfully",
		Added:   added,
	})
}

// HandleRegisteredUsers handles GET /registered-users with the number of
// principals known to the store.
func (h *UsersHandler) HandleRegisteredUsers(w http.ResponseWriter, r *http.Request) {
	count, err := h.UserService.CountUsers(r.Context())
	if err != nil {
		slogx.FromContext(r.Context()).Error("failed to count users", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError,
			"server_error", "Internal server error")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]int64{"count": count})
}
