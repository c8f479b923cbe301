package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/retrifix/retrifix/internal/domain"
	"github.com/retrifix/retrifix/internal/store"
	"github.com/retrifix/retrifix/pkg/idx"
)

// ErrChatNotFound covers both a missing chat and one owned by someone else;
// callers cannot tell the difference.
var ErrChatNotFound = errors.New("chat not found")

const defaultChatTitle = "New Chat"

// ChatService manages chat sessions and their messages. Every operation is
// scoped to the owning user.
type ChatService struct {
	Store store.Store
}

// CreateChat starts a new chat for the user.
func (s *ChatService) CreateChat(ctx context.Context, userID, title string) (domain.Chat, error) {
	if title == "" {
		title = defaultChatTitle
	}

	chat := domain.Chat{
		ID:     idx.New().String(),
		UserID: userID,
		Title:  title,
	}

	if err := s.Store.Chats().CreateChat(ctx, chat); err != nil {
		return domain.Chat{}, fmt.Errorf("failed to create chat: %w", err)
	}
	return chat, nil
}

// ListChats returns the user's active chats, newest first.
func (s *ChatService) ListChats(ctx context.Context, userID string) ([]domain.Chat, error) {
	return s.Store.Chats().ListChatsByUser(ctx, userID)
}

// GetChat returns a chat and its messages, enforcing ownership.
func (s *ChatService) GetChat(ctx context.Context, userID, chatID string) (domain.Chat, []domain.Message, error) {
	chat, err := s.ownedChat(ctx, userID, chatID)
	if err != nil {
		return domain.Chat{}, nil, err
	}

	msgs, err := s.Store.Messages().ListMessagesByChat(ctx, chatID)
	if err != nil {
		return domain.Chat{}, nil, fmt.Errorf("failed to load messages: %w", err)
	}
	return chat, msgs, nil
}

// PostMessage stores the user's message, generates the assistant reply and
// stores it too, atomically. Returns the assistant message.
func (s *ChatService) PostMessage(ctx context.Context, userID, chatID, content string) (domain.Message, error) {
	if _, err := s.ownedChat(ctx, userID, chatID); err != nil {
		return domain.Message{}, err
	}

	userMsg := domain.Message{
		ID:      idx.New().String(),
		ChatID:  chatID,
		Role:    domain.RoleUser,
		Content: content,
	}
	reply := domain.Message{
		ID:      idx.New().String(),
		ChatID:  chatID,
		Role:    domain.RoleAssistant,
		Content: generateReply(content),
	}

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Messages().CreateMessage(ctx, userMsg); err != nil {
			return fmt.Errorf("failed to store user message: %w", err)
		}
		if err := tx.Messages().CreateMessage(ctx, reply); err != nil {
			return fmt.Errorf("failed to store assistant message: %w", err)
		}
		return tx.Chats().TouchChat(ctx, chatID)
	})
	if err != nil {
		return domain.Message{}, err
	}

	return reply, nil
}

// DeleteChat soft-deletes a chat; housekeeping purges the rows later.
// Idempotent for the owner.
func (s *ChatService) DeleteChat(ctx context.Context, userID, chatID string) error {
	if _, err := s.ownedChat(ctx, userID, chatID); err != nil {
		return err
	}
	return s.Store.Chats().SoftDeleteChat(ctx, chatID)
}

func (s *ChatService) ownedChat(ctx context.Context, userID, chatID string) (domain.Chat, error) {
	chat, err := s.Store.Chats().GetChat(ctx, chatID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Chat{}, ErrChatNotFound
	}
	if err != nil {
		return domain.Chat{}, fmt.Errorf("failed to load chat: %w", err)
	}

	if chat.UserID != userID || chat.Deleted {
		return domain.Chat{}, ErrChatNotFound
	}
	return chat, nil
}

// generateReply is a stand-in for a model backend; it echoes the last user
// message the way the mock upstream does.
func generateReply(content string) string {
	if content == "" {
		return "Hello! This is a test response."
	}
	return fmt.Sprintf("Mock reply to: '%s'", content)
}
