package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/retrifix/retrifix/internal/domain"
	"github.com/retrifix/retrifix/internal/service"
	"github.com/retrifix/retrifix/pkg/httpx"
	"github.com/retrifix/retrifix/pkg/slogx"
)

type ChatCreateRequest struct {
	Title string `json:"title"`
}

type MessageCreateRequest struct {
	Content string `json:"content"`
}

type ChatResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type MessageResponse struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type ChatDetailResponse struct {
	ChatResponse
	Messages []MessageResponse `json:"messages"`
}

// ChatHandler exposes the chat endpoints. All of them run behind the
// session middleware; the principal comes from the request context.
type ChatHandler struct {
	ChatService *service.ChatService
}

// HandleCreate handles POST /chats.
func (h *ChatHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ChatCreateRequest
	if r.Body != nil {
		// An empty body just means the default title.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	chat, err := h.ChatService.CreateChat(ctx, httpx.UserIDFromCtx(ctx), req.Title)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to create chat", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to create chat")
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toChatResponse(chat))
}

// HandleList handles GET /chats.
func (h *ChatHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	chats, err := h.ChatService.ListChats(ctx, httpx.UserIDFromCtx(ctx))
	if err != nil {
		slogx.FromContext(ctx).Error("failed to list chats", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to list chats")
		return
	}

	out := make([]ChatResponse, 0, len(chats))
	for _, c := range chats {
		out = append(out, toChatResponse(c))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleGet handles GET /chats/{id}.
func (h *ChatHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	chat, msgs, err := h.ChatService.GetChat(ctx, httpx.UserIDFromCtx(ctx), r.PathValue("id"))
	if err != nil {
		writeChatError(w, r, err)
		return
	}

	detail := ChatDetailResponse{
		ChatResponse: toChatResponse(chat),
		Messages:     make([]MessageResponse, 0, len(msgs)),
	}
	for _, m := range msgs {
		detail.Messages = append(detail.Messages, toMessageResponse(m))
	}
	httpx.WriteJSON(w, http.StatusOK, detail)
}

// HandlePostMessage handles POST /chats/{id}/messages and returns the
// assistant reply.
func (h *ChatHandler) HandlePostMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req MessageCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if req.Content == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "content is required")
		return
	}

	reply, err := h.ChatService.PostMessage(ctx, httpx.UserIDFromCtx(ctx), r.PathValue("id"), req.Content)
	if err != nil {
		writeChatError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toMessageResponse(reply))
}

// HandleDelete handles DELETE /chats/{id}.
func (h *ChatHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.ChatService.DeleteChat(ctx, httpx.UserIDFromCtx(ctx), r.PathValue("id")); err != nil {
		writeChatError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"message": "Chat deleted"})
}

func writeChatError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, service.ErrChatNotFound) {
		httpx.WriteError(w, http.StatusNotFound, "not_found", "Chat not found")
		return
	}
	slogx.FromContext(r.Context()).Error("chat operation failed", "err", err)
	httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Internal server error")
}

func toChatResponse(c domain.Chat) ChatResponse {
	return ChatResponse{
		ID:        c.ID,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toMessageResponse(m domain.Message) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		Role:      m.Role,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}
