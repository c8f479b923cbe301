package http

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogin_FirstLoginReturnsProvisioningURI(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "hunter2-but-better")

	rr := env.do(t, http.MethodPost, "/login",
		`{"username":"alice","password":"hunter2-but-better"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "New user registered", resp.Message)
	require.Contains(t, resp.MFAURI, "otpauth://totp/")
	require.Contains(t, resp.MFAURI, "alice")

	// Factor-1 success only sets the pending marker, never a session
	pending := findCookie(t, rr, "username")
	require.NotNil(t, pending)
	require.Equal(t, "alice", pending.Value)
	require.Nil(t, findCookie(t, rr, "access_token"))
}

func TestLogin_EnrolledUser(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "hunter2-but-better")

	// First login enrolls, second is a normal pending-MFA hop
	rr := env.do(t, http.MethodPost, "/login",
		`{"username":"alice","password":"hunter2-but-better"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, http.MethodPost, "/login",
		`{"username":"alice","password":"hunter2-but-better"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "MFA verification required", resp.Message)
	require.Empty(t, resp.MFAURI) // the secret is only shown once
}

func TestLogin_WrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "correct-password")

	rr := env.do(t, http.MethodPost, "/login",
		`{"username":"alice","password":"wrong"}`)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Contains(t, rr.Body.String(), "invalid_credentials")

	// A failed login must not set any cookie state
	require.Empty(t, rr.Result().Cookies())
}

func TestLogin_UnknownUser(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/login",
		`{"username":"nobody","password":"whatever"}`)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Contains(t, rr.Body.String(), "invalid_credentials")
}

func TestLogin_BadRequests(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"username":`},
		{"missing password", `{"username":"alice"}`},
		{"missing username", `{"password":"pw"}`},
		{"empty body", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, http.MethodPost, "/login", tt.body)
			require.Equal(t, http.StatusBadRequest, rr.Code)
			require.Contains(t, rr.Body.String(), "invalid_request")
		})
	}
}
