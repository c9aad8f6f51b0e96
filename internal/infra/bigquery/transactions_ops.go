package bigquery

import (
	"context"
	"strings"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/family-finance/internal/domain"
	"github.com/dvloznov/family-finance/internal/store"
)

const transactionColumns = `transaction_id, family_id, user_id, type, amount, description,
	category_id, subcategory_id, date, source, created_ts`

// InsertTransaction stores a new transaction. It uses DML rather than the
// streaming inserter so the row can be deleted right away; streamed rows stay
// in the streaming buffer and reject DELETE for up to 90 minutes.
func (r *Repository) InsertTransaction(ctx context.Context, tx *domain.Transaction) error {
	q := r.query(`
		INSERT INTO `+r.table(transactionsTable)+` (`+transactionColumns+`)
		VALUES (
			@transaction_id, @family_id, @user_id, @type, @amount, @description,
			@category_id, @subcategory_id, @date, @source, @created_ts
		)
	`,
		bigquery.QueryParameter{Name: "transaction_id", Value: tx.ID},
		bigquery.QueryParameter{Name: "family_id", Value: tx.FamilyID},
		bigquery.QueryParameter{Name: "user_id", Value: tx.UserID},
		bigquery.QueryParameter{Name: "type", Value: string(tx.Type)},
		bigquery.QueryParameter{Name: "amount", Value: tx.Amount.Rat()},
		bigquery.QueryParameter{Name: "description", Value: tx.Description},
		bigquery.QueryParameter{Name: "category_id", Value: tx.CategoryID},
		bigquery.QueryParameter{Name: "subcategory_id", Value: nullString(tx.SubcategoryID)},
		bigquery.QueryParameter{Name: "date", Value: tx.Date},
		bigquery.QueryParameter{Name: "source", Value: string(tx.Source)},
		bigquery.QueryParameter{Name: "created_ts", Value: tx.CreatedAt},
	)

	if _, err := r.exec(ctx, "InsertTransaction", q); err != nil {
		return err
	}
	return nil
}

// SearchTransactions returns transactions matching the filter, newest date first.
func (r *Repository) SearchTransactions(ctx context.Context, f store.TransactionFilter) ([]*domain.Transaction, error) {
	where := []string{"TRUE"}
	var params []bigquery.QueryParameter
	add := func(clause, name string, value interface{}) {
		where = append(where, clause)
		params = append(params, bigquery.QueryParameter{Name: name, Value: value})
	}

	if f.FamilyID != "" {
		add("family_id = @family_id", "family_id", f.FamilyID)
	}
	if f.Type != "" {
		add("type = @type", "type", string(f.Type))
	}
	if len(f.CategoryIDs) > 0 {
		add("category_id IN UNNEST(@category_ids)", "category_ids", f.CategoryIDs)
	}
	if f.StartDate != nil {
		add("date >= @start_date", "start_date", *f.StartDate)
	}
	if f.EndDate != nil {
		add("date <= @end_date", "end_date", *f.EndDate)
	}
	if f.Date != nil {
		add("date = @date", "date", *f.Date)
	}
	if f.Amount != nil {
		add("amount = @amount", "amount", f.Amount.Rat())
	}
	if f.Description != "" {
		add("description = @description", "description", f.Description)
	}
	if f.DescriptionContains != "" {
		add("STRPOS(LOWER(description), LOWER(@description_contains)) > 0", "description_contains", f.DescriptionContains)
	}
	if f.Source != "" {
		add("source = @source", "source", string(f.Source))
	}
	if f.CreatedSince != nil {
		add("created_ts >= @created_since", "created_since", *f.CreatedSince)
	}

	sql := `
		SELECT ` + transactionColumns + `
		FROM ` + r.table(transactionsTable) + `
		WHERE ` + strings.Join(where, "\n\t\t  AND ") + `
		ORDER BY date DESC, created_ts DESC`
	if f.Limit > 0 {
		sql += "\n\t\tLIMIT @limit"
		params = append(params, bigquery.QueryParameter{Name: "limit", Value: f.Limit})
	}

	rows, err := readRows[TransactionRow](ctx, "SearchTransactions", r.query(sql, params...))
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Transaction, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// DeleteTransaction removes a transaction of the family.
func (r *Repository) DeleteTransaction(ctx context.Context, familyID, transactionID string) error {
	q := r.query(`
		DELETE FROM `+r.table(transactionsTable)+`
		WHERE transaction_id = @transaction_id
		  AND family_id = @family_id
	`,
		bigquery.QueryParameter{Name: "transaction_id", Value: transactionID},
		bigquery.QueryParameter{Name: "family_id", Value: familyID},
	)

	status, err := r.exec(ctx, "DeleteTransaction", q)
	if err != nil {
		return err
	}
	if affectedRows(status) == 0 {
		return store.ErrNotFound
	}
	return nil
}
