package bigquery

import (
	"context"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/family-finance/internal/domain"
	"github.com/google/uuid"
)

const budgetColumns = `budget_id, family_id, category_id, limit_amount, period, start_date, end_date, created_ts, updated_ts`

// UpsertBudget merges the budget on (family_id, category_id, period, start_date)
// and returns the stored row.
func (r *Repository) UpsertBudget(ctx context.Context, b *domain.Budget) (*domain.Budget, error) {
	now := time.Now()
	id := b.ID
	if id == "" {
		id = uuid.NewString()
	}

	q := r.query(`
		MERGE `+r.table(budgetsTable)+` t
		USING (
			SELECT
				@budget_id AS budget_id,
				@family_id AS family_id,
				@category_id AS category_id,
				@limit_amount AS limit_amount,
				@period AS period,
				@start_date AS start_date,
				@end_date AS end_date
		) s
		ON t.family_id = s.family_id
		   AND t.category_id = s.category_id
		   AND t.period = s.period
		   AND t.start_date = s.start_date
		WHEN MATCHED THEN
			UPDATE SET limit_amount = s.limit_amount, end_date = s.end_date, updated_ts = @now
		WHEN NOT MATCHED THEN
			INSERT (`+budgetColumns+`)
			VALUES (s.budget_id, s.family_id, s.category_id, s.limit_amount, s.period, s.start_date, s.end_date, @now, @now)
	`,
		bigquery.QueryParameter{Name: "budget_id", Value: id},
		bigquery.QueryParameter{Name: "family_id", Value: b.FamilyID},
		bigquery.QueryParameter{Name: "category_id", Value: b.CategoryID},
		bigquery.QueryParameter{Name: "limit_amount", Value: b.LimitAmount.Rat()},
		bigquery.QueryParameter{Name: "period", Value: string(b.Period)},
		bigquery.QueryParameter{Name: "start_date", Value: b.StartDate},
		bigquery.QueryParameter{Name: "end_date", Value: b.EndDate},
		bigquery.QueryParameter{Name: "now", Value: now},
	)

	if _, err := r.exec(ctx, "UpsertBudget", q); err != nil {
		return nil, err
	}

	read := r.query(`
		SELECT `+budgetColumns+`
		FROM `+r.table(budgetsTable)+`
		WHERE family_id = @family_id
		  AND category_id = @category_id
		  AND period = @period
		  AND start_date = @start_date
		LIMIT 1
	`,
		bigquery.QueryParameter{Name: "family_id", Value: b.FamilyID},
		bigquery.QueryParameter{Name: "category_id", Value: b.CategoryID},
		bigquery.QueryParameter{Name: "period", Value: string(b.Period)},
		bigquery.QueryParameter{Name: "start_date", Value: b.StartDate},
	)

	row, err := readOne[BudgetRow](ctx, "UpsertBudget", read)
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// FindBudgetForCategory returns the most recent budget of the category.
func (r *Repository) FindBudgetForCategory(ctx context.Context, familyID, categoryID string) (*domain.Budget, error) {
	q := r.query(`
		SELECT `+budgetColumns+`
		FROM `+r.table(budgetsTable)+`
		WHERE family_id = @family_id
		  AND category_id = @category_id
		ORDER BY start_date DESC
		LIMIT 1
	`,
		bigquery.QueryParameter{Name: "family_id", Value: familyID},
		bigquery.QueryParameter{Name: "category_id", Value: categoryID},
	)

	row, err := readOne[BudgetRow](ctx, "FindBudgetForCategory", q)
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// ListBudgets lists the family's budgets, newest window first.
func (r *Repository) ListBudgets(ctx context.Context, familyID string) ([]*domain.Budget, error) {
	q := r.query(`
		SELECT `+budgetColumns+`
		FROM `+r.table(budgetsTable)+`
		WHERE family_id = @family_id
		ORDER BY start_date DESC
	`, bigquery.QueryParameter{Name: "family_id", Value: familyID})

	rows, err := readRows[BudgetRow](ctx, "ListBudgets", q)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Budget, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// InsertGoal stores a new goal.
func (r *Repository) InsertGoal(ctx context.Context, g *domain.Goal) error {
	deadline := bigquery.NullDate{}
	if g.Deadline != nil {
		deadline = bigquery.NullDate{Date: *g.Deadline, Valid: true}
	}

	q := r.query(`
		INSERT INTO `+r.table(goalsTable)+` (
			goal_id, family_id, name, target_amount, current_amount, deadline, category, status, created_ts
		)
		VALUES (
			@goal_id, @family_id, @name, @target_amount, @current_amount, @deadline, @category, @status, @created_ts
		)
	`,
		bigquery.QueryParameter{Name: "goal_id", Value: g.ID},
		bigquery.QueryParameter{Name: "family_id", Value: g.FamilyID},
		bigquery.QueryParameter{Name: "name", Value: g.Name},
		bigquery.QueryParameter{Name: "target_amount", Value: g.TargetAmount.Rat()},
		bigquery.QueryParameter{Name: "current_amount", Value: g.CurrentAmount.Rat()},
		bigquery.QueryParameter{Name: "deadline", Value: deadline},
		bigquery.QueryParameter{Name: "category", Value: nullString(g.Category)},
		bigquery.QueryParameter{Name: "status", Value: string(g.Status)},
		bigquery.QueryParameter{Name: "created_ts", Value: g.CreatedAt},
	)

	if _, err := r.exec(ctx, "InsertGoal", q); err != nil {
		return err
	}
	return nil
}

// ListGoals lists the family's goals, newest first.
func (r *Repository) ListGoals(ctx context.Context, familyID string) ([]*domain.Goal, error) {
	q := r.query(`
		SELECT goal_id, family_id, name, target_amount, current_amount, deadline, category, status, created_ts
		FROM `+r.table(goalsTable)+`
		WHERE family_id = @family_id
		ORDER BY created_ts DESC
	`, bigquery.QueryParameter{Name: "family_id", Value: familyID})

	rows, err := readRows[GoalRow](ctx, "ListGoals", q)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Goal, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
