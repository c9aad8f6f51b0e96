package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/family-finance/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const budgetColumns = `budget_id, family_id, category_id, limit_amount::text, period,
	start_date::text, end_date::text, created_ts, updated_ts`

// UpsertBudget inserts the budget or updates the limit of an existing
// (family, category, period, start_date) window.
func (r *Repository) UpsertBudget(ctx context.Context, b *domain.Budget) (*domain.Budget, error) {
	id := b.ID
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO budgets (budget_id, family_id, category_id, limit_amount, period, start_date, end_date, created_ts, updated_ts)
		VALUES ($1, $2, $3, $4::numeric, $5, $6::date, $7::date, $8, $8)
		ON CONFLICT (family_id, category_id, period, start_date)
		DO UPDATE SET limit_amount = EXCLUDED.limit_amount, end_date = EXCLUDED.end_date, updated_ts = EXCLUDED.updated_ts
		RETURNING `+budgetColumns,
		id, b.FamilyID, b.CategoryID, b.LimitAmount.String(), string(b.Period),
		b.StartDate.String(), b.EndDate.String(), now)

	out, err := scanBudget(row)
	if err != nil {
		return nil, fmt.Errorf("UpsertBudget: %w", err)
	}
	return out, nil
}

func (r *Repository) FindBudgetForCategory(ctx context.Context, familyID, categoryID string) (*domain.Budget, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+budgetColumns+`
		FROM budgets
		WHERE family_id = $1 AND category_id = $2
		ORDER BY start_date DESC
		LIMIT 1`, familyID, categoryID)

	b, err := scanBudget(row)
	if err != nil {
		return nil, notFound("FindBudgetForCategory", err)
	}
	return b, nil
}

func (r *Repository) ListBudgets(ctx context.Context, familyID string) ([]*domain.Budget, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+budgetColumns+`
		FROM budgets
		WHERE family_id = $1
		ORDER BY start_date DESC`, familyID)
	if err != nil {
		return nil, fmt.Errorf("ListBudgets: query: %w", err)
	}
	defer rows.Close()

	var out []*domain.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("ListBudgets: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// scanBudget returns pgx.ErrNoRows unwrapped so callers can map it.
func scanBudget(row pgx.Row) (*domain.Budget, error) {
	var b domain.Budget
	var limit, period, start, end string
	if err := row.Scan(&b.ID, &b.FamilyID, &b.CategoryID, &limit, &period, &start, &end, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if b.LimitAmount, err = parseDecimal(limit); err != nil {
		return nil, fmt.Errorf("parsing limit %q: %w", limit, err)
	}
	if b.StartDate, err = parseDate(start); err != nil {
		return nil, fmt.Errorf("parsing start date %q: %w", start, err)
	}
	if b.EndDate, err = parseDate(end); err != nil {
		return nil, fmt.Errorf("parsing end date %q: %w", end, err)
	}
	b.Period = domain.BudgetPeriod(period)
	return &b, nil
}

func (r *Repository) InsertGoal(ctx context.Context, g *domain.Goal) error {
	var deadline *string
	if g.Deadline != nil {
		s := g.Deadline.String()
		deadline = &s
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO goals (goal_id, family_id, name, target_amount, current_amount, deadline, category, status, created_ts)
		VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6::date, $7, $8, $9)`,
		g.ID, g.FamilyID, g.Name, g.TargetAmount.String(), g.CurrentAmount.String(),
		deadline, nullable(g.Category), string(g.Status), g.CreatedAt)
	if err != nil {
		return fmt.Errorf("InsertGoal: %w", err)
	}
	return nil
}

func (r *Repository) ListGoals(ctx context.Context, familyID string) ([]*domain.Goal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT goal_id, family_id, name, target_amount::text, current_amount::text,
			deadline::text, category, status, created_ts
		FROM goals
		WHERE family_id = $1
		ORDER BY created_ts DESC`, familyID)
	if err != nil {
		return nil, fmt.Errorf("ListGoals: query: %w", err)
	}
	defer rows.Close()

	var out []*domain.Goal
	for rows.Next() {
		var g domain.Goal
		var target, current, status string
		var deadline, category *string
		if err := rows.Scan(&g.ID, &g.FamilyID, &g.Name, &target, &current, &deadline, &category, &status, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("ListGoals: scan: %w", err)
		}
		if g.TargetAmount, err = parseDecimal(target); err != nil {
			return nil, fmt.Errorf("ListGoals: parsing target %q: %w", target, err)
		}
		if g.CurrentAmount, err = parseDecimal(current); err != nil {
			return nil, fmt.Errorf("ListGoals: parsing current %q: %w", current, err)
		}
		if deadline != nil {
			d, err := parseDate(*deadline)
			if err != nil {
				return nil, fmt.Errorf("ListGoals: parsing deadline %q: %w", *deadline, err)
			}
			g.Deadline = &d
		}
		g.Category = deref(category)
		g.Status = domain.GoalStatus(status)
		out = append(out, &g)
	}
	return out, rows.Err()
}
