package domain

import "time"

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Chat is a conversation owned by a single user. Deleted chats are kept as
// tombstones until housekeeping purges them.
type Chat struct {
	ID        string
	UserID    string
	Title     string
	Deleted   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is a single entry in a chat, authored either by the user or the
// assistant.
type Message struct {
	ID        string
	ChatID    string
	Role      string
	Content   string
	CreatedAt time.Time
}
