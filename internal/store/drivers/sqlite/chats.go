package sqlite

import (
	"context"
	"time"

	"github.com/retrifix/retrifix/internal/domain"
)

type chatsRepo struct {
	db dbtx
}

const chatColumns = `id, user_id, title, is_deleted, created_at, updated_at`

func (r *chatsRepo) CreateChat(ctx context.Context, c domain.Chat) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO chat_sessions (id, user_id, title, is_deleted, created_at, updated_at)
		 VALUES (?, ?, ?, 0, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
		c.ID, c.UserID, c.Title)
	return mapErr(err)
}

func (r *chatsRepo) GetChat(ctx context.Context, id string) (domain.Chat, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+chatColumns+` FROM chat_sessions WHERE id = ?`, id)

	var c domain.Chat
	if err := row.Scan(&c.ID, &c.UserID, &c.Title, &c.Deleted, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return domain.Chat{}, mapErr(err)
	}
	return c, nil
}

func (r *chatsRepo) ListChatsByUser(ctx context.Context, userID string) ([]domain.Chat, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+chatColumns+` FROM chat_sessions
		 WHERE user_id = ? AND is_deleted = 0
		 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var chats []domain.Chat
	for rows.Next() {
		var c domain.Chat
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.Deleted, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, mapErr(err)
		}
		chats = append(chats, c)
	}
	return chats, mapErr(rows.Err())
}

func (r *chatsRepo) TouchChat(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE chat_sessions SET updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	return mapErr(err)
}

func (r *chatsRepo) SoftDeleteChat(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE chat_sessions SET is_deleted = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	return mapErr(err)
}

func (r *chatsRepo) PurgeDeletedChats(ctx context.Context, cutoff time.Time) error {
	// CURRENT_TIMESTAMP stores UTC "YYYY-MM-DD HH:MM:SS" text; bind the
	// cutoff in the same layout so the comparison is exact.
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM chat_sessions WHERE is_deleted = 1 AND updated_at < ?`,
		cutoff.UTC().Format("2006-01-02 15:04:05"))
	return mapErr(err)
}
