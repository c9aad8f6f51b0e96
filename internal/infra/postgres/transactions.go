package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/dvloznov/family-finance/internal/domain"
	"github.com/dvloznov/family-finance/internal/store"
	"github.com/jackc/pgx/v5"
)

const transactionColumns = `transaction_id, family_id, user_id, type, amount::text, description,
	category_id, subcategory_id, date::text, source, created_ts`

func (r *Repository) InsertTransaction(ctx context.Context, t *domain.Transaction) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO transactions (
			transaction_id, family_id, user_id, type, amount, description,
			category_id, subcategory_id, date, source, created_ts
		)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8, $9::date, $10, $11)`,
		t.ID, t.FamilyID, t.UserID, string(t.Type), t.Amount.String(), t.Description,
		t.CategoryID, nullable(t.SubcategoryID), t.Date.String(), string(t.Source), t.CreatedAt)
	if err != nil {
		return fmt.Errorf("InsertTransaction: %w", err)
	}
	return nil
}

// SearchTransactions filters the family's transactions, newest date first.
func (r *Repository) SearchTransactions(ctx context.Context, f store.TransactionFilter) ([]*domain.Transaction, error) {
	where, args := transactionWhere(f)
	sql := "SELECT " + transactionColumns + " FROM transactions WHERE " +
		where + " ORDER BY date DESC, created_ts DESC"
	if f.Limit > 0 {
		sql += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("SearchTransactions: query: %w", err)
	}
	defer rows.Close()

	var out []*domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("SearchTransactions: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// transactionWhere renders f as a WHERE clause with positional arguments.
// Substring matching uses strpos so that % and _ in the text are literal.
func transactionWhere(f store.TransactionFilter) (string, []any) {
	where := []string{"family_id = $1"}
	args := []any{f.FamilyID}
	add := func(clause string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if f.Type != "" {
		add("type = $%d", string(f.Type))
	}
	if len(f.CategoryIDs) > 0 {
		add("category_id = ANY($%d)", f.CategoryIDs)
	}
	if f.StartDate != nil {
		add("date >= $%d::date", f.StartDate.String())
	}
	if f.EndDate != nil {
		add("date <= $%d::date", f.EndDate.String())
	}
	if f.Date != nil {
		add("date = $%d::date", f.Date.String())
	}
	if f.Amount != nil {
		add("amount = $%d::numeric", f.Amount.String())
	}
	if f.Description != "" {
		add("description = $%d", f.Description)
	}
	if f.DescriptionContains != "" {
		add("strpos(lower(description), lower($%d)) > 0", f.DescriptionContains)
	}
	if f.Source != "" {
		add("source = $%d", string(f.Source))
	}
	if f.CreatedSince != nil {
		add("created_ts >= $%d", *f.CreatedSince)
	}
	return strings.Join(where, " AND "), args
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var t domain.Transaction
	var typ, amount, date, source string
	var sub *string
	if err := row.Scan(&t.ID, &t.FamilyID, &t.UserID, &typ, &amount, &t.Description,
		&t.CategoryID, &sub, &date, &source, &t.CreatedAt); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	var err error
	if t.Amount, err = parseDecimal(amount); err != nil {
		return nil, fmt.Errorf("parsing amount %q: %w", amount, err)
	}
	if t.Date, err = parseDate(date); err != nil {
		return nil, fmt.Errorf("parsing date %q: %w", date, err)
	}
	t.Type = domain.TransactionType(typ)
	t.Source = domain.TransactionSource(source)
	t.SubcategoryID = deref(sub)
	return &t, nil
}

func (r *Repository) DeleteTransaction(ctx context.Context, familyID, transactionID string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM transactions WHERE transaction_id = $1 AND family_id = $2`,
		transactionID, familyID)
	if err != nil {
		return fmt.Errorf("DeleteTransaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
