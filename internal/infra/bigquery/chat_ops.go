package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/family-finance/internal/domain"
	"github.com/dvloznov/family-finance/internal/store"
)

// ListChatMessages returns messages newest-first, scoped to the conversation
// when given, else to the thread.
func (r *Repository) ListChatMessages(ctx context.Context, f store.ChatFilter) ([]*domain.ChatMessage, error) {
	sql := `
		SELECT message_id, family_id, user_id, conversation_id, thread_id, role, content, created_ts
		FROM ` + r.table(chatTable) + `
		WHERE family_id = @family_id`
	params := []bigquery.QueryParameter{{Name: "family_id", Value: f.FamilyID}}

	switch {
	case f.ConversationID != "":
		sql += "\n\t\t  AND conversation_id = @conversation_id"
		params = append(params, bigquery.QueryParameter{Name: "conversation_id", Value: f.ConversationID})
	case f.ThreadID != "":
		sql += "\n\t\t  AND thread_id = @thread_id"
		params = append(params, bigquery.QueryParameter{Name: "thread_id", Value: f.ThreadID})
	}

	sql += "\n\t\tORDER BY created_ts DESC"
	if f.Limit > 0 {
		sql += "\n\t\tLIMIT @limit"
		params = append(params, bigquery.QueryParameter{Name: "limit", Value: f.Limit})
	}

	rows, err := readRows[ChatMessageRow](ctx, "ListChatMessages", r.query(sql, params...))
	if err != nil {
		return nil, err
	}
	out := make([]*domain.ChatMessage, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// InsertChatMessages appends messages through the streaming inserter. Chat
// rows are never updated or deleted, so the streaming buffer is not a concern.
func (r *Repository) InsertChatMessages(ctx context.Context, msgs ...*domain.ChatMessage) error {
	if len(msgs) == 0 {
		return nil
	}

	rows := make([]*ChatMessageRow, 0, len(msgs))
	for _, m := range msgs {
		rows = append(rows, chatRowFromDomain(m))
	}

	inserter := r.client.DatasetInProject(r.projectID, r.datasetID).Table(chatTable).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertChatMessages: inserting rows: %w", err)
	}
	return nil
}
