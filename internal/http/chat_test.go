package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChatEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "pw")
	session := env.sessionCookie(t, "alice")

	// Create
	rr := env.do(t, http.MethodPost, "/chats", `{"title":"Holiday plans"}`, session)
	require.Equal(t, http.StatusCreated, rr.Code)

	var chat ChatResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &chat))
	require.Equal(t, "Holiday plans", chat.Title)
	require.NotEmpty(t, chat.ID)

	// Empty body falls back to the default title
	rr = env.do(t, http.MethodPost, "/chats", "", session)
	require.Equal(t, http.StatusCreated, rr.Code)
	require.Contains(t, rr.Body.String(), "New Chat")

	// List
	rr = env.do(t, http.MethodGet, "/chats", "", session)
	require.Equal(t, http.StatusOK, rr.Code)

	var chats []ChatResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &chats))
	require.Len(t, chats, 2)

	// Post a message, get the mock assistant reply back
	rr = env.do(t, http.MethodPost, "/chats/"+chat.ID+"/messages",
		`{"content":"hello there"}`, session)
	require.Equal(t, http.StatusCreated, rr.Code)

	var reply MessageResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &reply))
	require.Equal(t, "assistant", reply.Role)
	require.Equal(t, "Mock reply to: 'hello there'", reply.Content)

	// Detail includes both messages in order
	rr = env.do(t, http.MethodGet, "/chats/"+chat.ID, "", session)
	require.Equal(t, http.StatusOK, rr.Code)

	var detail ChatDetailResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &detail))
	require.Len(t, detail.Messages, 2)
	require.Equal(t, "user", detail.Messages[0].Role)
	require.Equal(t, "assistant", detail.Messages[1].Role)

	// Delete, then the chat is gone
	rr = env.do(t, http.MethodDelete, "/chats/"+chat.ID, "", session)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, http.MethodGet, "/chats/"+chat.ID, "", session)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestChatEndpoints_OwnershipIsEnforced(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "pw")
	env.seedUser(t, "mallory", "pw")

	alice := env.sessionCookie(t, "alice")
	mallory := env.sessionCookie(t, "mallory")

	rr := env.do(t, http.MethodPost, "/chats", `{"title":"private"}`, alice)
	require.Equal(t, http.StatusCreated, rr.Code)

	var chat ChatResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &chat))

	// Someone else's chat reads as 404, never 403
	for _, probe := range []struct{ method, path, body string }{
		{http.MethodGet, "/chats/" + chat.ID, ""},
		{http.MethodPost, "/chats/" + chat.ID + "/messages", `{"content":"hi"}`},
		{http.MethodDelete, "/chats/" + chat.ID, ""},
	} {
		rr := env.do(t, probe.method, probe.path, probe.body, mallory)
		require.Equal(t, http.StatusNotFound, rr.Code,
			fmt.Sprintf("%s %s", probe.method, probe.path))
	}
}

func TestChatEndpoints_RequireAuth(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/chats", `{"title":"nope"}`)
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = env.do(t, http.MethodGet, "/chats", "")
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestPostMessage_EmptyContent(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", "pw")
	session := env.sessionCookie(t, "alice")

	rr := env.do(t, http.MethodPost, "/chats", "", session)
	require.Equal(t, http.StatusCreated, rr.Code)

	var chat ChatResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &chat))

	rr = env.do(t, http.MethodPost, "/chats/"+chat.ID+"/messages",
		`{"content":""}`, session)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "invalid_request")
}
