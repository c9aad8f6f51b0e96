package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/family-finance/internal/domain"
	"github.com/shopspring/decimal"
)

type budgetArgs struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Period   string          `json:"period"`
}

func (e *Executors) createBudget(ctx context.Context, tc ToolContext, raw json.RawMessage) (Result, error) {
	var args budgetArgs
	if err := decodeArgs(raw, &args); err != nil {
		return fail("Argumentos inválidos: %v", err), nil
	}
	period := domain.BudgetPeriod(args.Period)
	if !period.Valid() {
		return fail("Período inválido %q. Use weekly, monthly ou yearly.", args.Period), nil
	}
	if !args.Amount.IsPositive() {
		return fail("O limite do orçamento deve ser maior que zero."), nil
	}

	idx, err := e.loadCategories(ctx, tc.FamilyID)
	if err != nil {
		return Result{}, fmt.Errorf("criar_orcamento: %w", err)
	}
	category := idx.find(args.Category, domain.TransactionExpense)
	if category == nil {
		return fail("Categoria de despesa %q não encontrada. Disponíveis: %s",
			args.Category, idx.names(domain.TransactionExpense)), nil
	}

	start, end := budgetWindow(e.today(), period)
	now := e.now()
	budget, err := e.store.UpsertBudget(ctx, &domain.Budget{
		ID:          e.newID(),
		FamilyID:    tc.FamilyID,
		CategoryID:  category.ID,
		LimitAmount: args.Amount,
		Period:      period,
		StartDate:   start,
		EndDate:     end,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return Result{}, fmt.Errorf("criar_orcamento: upsert: %w", err)
	}

	return ok(map[string]any{
		"budget": map[string]any{
			"id":           budget.ID,
			"category":     category.Name,
			"limit_amount": budget.LimitAmount,
			"period":       budget.Period,
			"start_date":   budget.StartDate.String(),
			"end_date":     budget.EndDate.String(),
		},
	}), nil
}

// budgetWindow returns the inclusive window containing today: the ISO week
// starting Monday, the calendar month or the calendar year.
func budgetWindow(today civil.Date, period domain.BudgetPeriod) (civil.Date, civil.Date) {
	switch period {
	case domain.PeriodWeekly:
		offset := (int(today.In(time.UTC).Weekday()) + 6) % 7
		start := today.AddDays(-offset)
		return start, start.AddDays(6)
	case domain.PeriodYearly:
		return civil.Date{Year: today.Year, Month: time.January, Day: 1},
			civil.Date{Year: today.Year, Month: time.December, Day: 31}
	default:
		start := civil.Date{Year: today.Year, Month: today.Month, Day: 1}
		next := civil.DateOf(start.In(time.UTC).AddDate(0, 1, 0))
		return start, next.AddDays(-1)
	}
}

type goalArgs struct {
	Name         string          `json:"name"`
	TargetAmount decimal.Decimal `json:"target_amount"`
	Deadline     string          `json:"deadline"`
	Category     string          `json:"category"`
}

func (e *Executors) createGoal(ctx context.Context, tc ToolContext, raw json.RawMessage) (Result, error) {
	var args goalArgs
	if err := decodeArgs(raw, &args); err != nil {
		return fail("Argumentos inválidos: %v", err), nil
	}
	name := strings.TrimSpace(args.Name)
	if name == "" {
		return fail("O nome da meta é obrigatório."), nil
	}
	if !args.TargetAmount.IsPositive() {
		return fail("O valor da meta deve ser maior que zero."), nil
	}
	deadline, err := parseOptionalDate(args.Deadline)
	if err != nil {
		return fail("Prazo inválido %q. Use o formato AAAA-MM-DD.", args.Deadline), nil
	}

	goal := &domain.Goal{
		ID:            e.newID(),
		FamilyID:      tc.FamilyID,
		Name:          name,
		TargetAmount:  args.TargetAmount,
		CurrentAmount: decimal.Zero,
		Deadline:      deadline,
		Category:      strings.TrimSpace(args.Category),
		Status:        domain.GoalActive,
		CreatedAt:     e.now(),
	}
	if err := e.store.InsertGoal(ctx, goal); err != nil {
		return Result{}, fmt.Errorf("criar_meta: insert: %w", err)
	}

	if e.alerts != nil && tc.Settings.GoalAlerts {
		e.effects.Do(ctx, "goal alert", func(ctx context.Context) error {
			return e.alerts.GoalCreated(ctx, tc.UserID, goal)
		})
	}

	return ok(map[string]any{"goal": goal}), nil
}
