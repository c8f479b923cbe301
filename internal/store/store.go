package store

import (
	"context"
	"errors"
	"time"

	"github.com/retrifix/retrifix/internal/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable.
type Store interface {
	Users() Users
	Chats() Chats
	Messages() Messages

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed. This is the
	// recommended way to handle multi-step writes.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByUsername is the lookup used during login and when resolving
	// the current principal from a session token.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	// The username carries a UNIQUE constraint; a duplicate insert returns
	// ErrAlreadyExists so concurrent first logins converge on one row.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateMFASecret sets the TOTP secret and bumps updated_at.
	UpdateMFASecret(ctx context.Context, userID string, secret string) error

	// UpdatePasswordHash sets the password_hash (argon2) and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error

	// CountUsers returns the number of registered users.
	CountUsers(ctx context.Context) (int64, error)
}

type Chats interface {
	// CreateChat inserts a new chat session.
	CreateChat(ctx context.Context, c domain.Chat) error

	// GetChat returns a chat by id, including soft-deleted ones; ownership
	// and tombstone filtering are the service's concern.
	GetChat(ctx context.Context, id string) (domain.Chat, error)

	// ListChatsByUser returns the user's non-deleted chats, newest first.
	ListChatsByUser(ctx context.Context, userID string) ([]domain.Chat, error)

	// TouchChat bumps updated_at, used when a message lands in the chat.
	TouchChat(ctx context.Context, id string) error

	// SoftDeleteChat marks a chat deleted without removing its rows.
	SoftDeleteChat(ctx context.Context, id string) error

	// PurgeDeletedChats removes soft-deleted chats (and their messages, per
	// schema cascade) last updated before the cutoff. Housekeeping.
	PurgeDeletedChats(ctx context.Context, cutoff time.Time) error
}

type Messages interface {
	// CreateMessage appends a message to a chat.
	CreateMessage(ctx context.Context, m domain.Message) error

	// ListMessagesByChat returns a chat's messages in insertion order.
	ListMessagesByChat(ctx context.Context, chatID string) ([]domain.Message, error)
}
