package assistant

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dvloznov/family-finance/internal/domain"
	"github.com/dvloznov/family-finance/internal/llm"
	"github.com/dvloznov/family-finance/internal/store"
)

const defaultHistoryLimit = 8

// contextLoader reads everything a turn needs before the first model call.
// It has no side effects.
type contextLoader struct {
	store        store.Store
	historyLimit int
}

// resolveFamily prefers the explicit family ID and otherwise uses the user's
// membership.
func (l *contextLoader) resolveFamily(ctx context.Context, userID, familyID string) (string, error) {
	if familyID != "" {
		return familyID, nil
	}
	id, err := l.store.FamilyIDForUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && id == "") {
		return "", validationError("nenhuma família encontrada para o usuário")
	}
	if err != nil {
		return "", fmt.Errorf("resolving family: %w", err)
	}
	return id, nil
}

// history returns up to historyLimit messages in chronological order. The
// conversation ID wins over the thread ID.
func (l *contextLoader) history(ctx context.Context, familyID, conversationID, threadID string) ([]llm.Message, error) {
	if l.historyLimit == 0 {
		return nil, nil
	}
	rows, err := l.store.ListChatMessages(ctx, store.ChatFilter{
		FamilyID:       familyID,
		ConversationID: conversationID,
		ThreadID:       threadID,
		Limit:          l.historyLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("loading chat history: %w", err)
	}

	msgs := make([]llm.Message, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		switch rows[i].Role {
		case domain.RoleUser:
			msgs = append(msgs, llm.UserMessage(rows[i].Content))
		case domain.RoleAssistant:
			msgs = append(msgs, llm.AssistantMessage(rows[i].Content))
		}
	}
	return msgs, nil
}

// categoryBlock renders the family's categories for the system prompt,
// grouped by type with their subcategories.
func (l *contextLoader) categoryBlock(ctx context.Context, familyID string) (string, error) {
	cats, err := l.store.ListCategories(ctx, familyID)
	if err != nil {
		return "", fmt.Errorf("loading categories: %w", err)
	}
	subs, err := l.store.ListSubcategories(ctx, familyID)
	if err != nil {
		return "", fmt.Errorf("loading subcategories: %w", err)
	}
	return formatCategories(cats, subs), nil
}

func formatCategories(cats []*domain.Category, subs []*domain.Subcategory) string {
	subsByCategory := make(map[string][]string)
	for _, s := range subs {
		subsByCategory[s.CategoryID] = append(subsByCategory[s.CategoryID], s.Name)
	}

	sorted := make([]*domain.Category, len(cats))
	copy(sorted, cats)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var b strings.Builder
	for _, section := range []struct {
		title string
		typ   domain.TransactionType
	}{
		{"Categorias de despesa (expense)", domain.TransactionExpense},
		{"Categorias de receita (income)", domain.TransactionIncome},
	} {
		b.WriteString(section.title + ":\n")
		n := 0
		for _, c := range sorted {
			if c.Type != section.typ {
				continue
			}
			n++
			b.WriteString("- " + c.Name)
			if names := subsByCategory[c.ID]; len(names) > 0 {
				sort.Strings(names)
				b.WriteString(" (" + strings.Join(names, ", ") + ")")
			}
			b.WriteString("\n")
		}
		if n == 0 {
			b.WriteString("- (nenhuma)\n")
		}
	}
	return b.String()
}
