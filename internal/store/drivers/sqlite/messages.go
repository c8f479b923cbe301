package sqlite

import (
	"context"

	"github.com/retrifix/retrifix/internal/domain"
)

type messagesRepo struct {
	db dbtx
}

func (r *messagesRepo) CreateMessage(ctx context.Context, m domain.Message) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO messages (id, chat_id, role, content, created_at)
		 VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		m.ID, m.ChatID, m.Role, m.Content)
	return mapErr(err)
}

func (r *messagesRepo) ListMessagesByChat(ctx context.Context, chatID string) ([]domain.Message, error) {
	// ULIDs sort lexicographically by creation time, so ordering by id keeps
	// messages in insertion order even within one timestamp.
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, chat_id, role, content, created_at FROM messages
		 WHERE chat_id = ? ORDER BY id ASC`, chatID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	var msgs []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, mapErr(err)
		}
		msgs = append(msgs, m)
	}
	return msgs, mapErr(rows.Err())
}
