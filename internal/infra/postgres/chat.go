package postgres

import (
	"context"
	"fmt"

	"github.com/dvloznov/family-finance/internal/domain"
	"github.com/dvloznov/family-finance/internal/store"
	"github.com/jackc/pgx/v5"
)

// ListChatMessages returns the newest messages first. ConversationID takes
// precedence over ThreadID.
func (r *Repository) ListChatMessages(ctx context.Context, f store.ChatFilter) ([]*domain.ChatMessage, error) {
	sql := `
		SELECT message_id, family_id, user_id, conversation_id, thread_id, role, content, created_ts
		FROM chat_messages
		WHERE family_id = $1`
	args := []any{f.FamilyID}
	switch {
	case f.ConversationID != "":
		sql += " AND conversation_id = $2"
		args = append(args, f.ConversationID)
	case f.ThreadID != "":
		sql += " AND thread_id = $2"
		args = append(args, f.ThreadID)
	}
	sql += " ORDER BY created_ts DESC"
	if f.Limit > 0 {
		sql += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("ListChatMessages: query: %w", err)
	}
	defer rows.Close()

	var out []*domain.ChatMessage
	for rows.Next() {
		var m domain.ChatMessage
		var conv, thread *string
		var role string
		if err := rows.Scan(&m.ID, &m.FamilyID, &m.UserID, &conv, &thread, &role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("ListChatMessages: scan: %w", err)
		}
		m.ConversationID = deref(conv)
		m.ThreadID = deref(thread)
		m.Role = domain.ChatRole(role)
		out = append(out, &m)
	}
	return out, rows.Err()
}

// InsertChatMessages writes all messages in one batch.
func (r *Repository) InsertChatMessages(ctx context.Context, msgs ...*domain.ChatMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, m := range msgs {
		batch.Queue(`
			INSERT INTO chat_messages (message_id, family_id, user_id, conversation_id, thread_id, role, content, created_ts)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			m.ID, m.FamilyID, m.UserID, nullable(m.ConversationID), nullable(m.ThreadID),
			string(m.Role), m.Content, m.CreatedAt)
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("InsertChatMessages: %w", err)
	}
	return nil
}
