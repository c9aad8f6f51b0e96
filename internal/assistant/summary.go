package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/family-finance/internal/domain"
	"github.com/dvloznov/family-finance/internal/store"
	"github.com/shopspring/decimal"
)

// Summary is the aggregate returned by resumo_financeiro.
type Summary struct {
	Period           string          `json:"period"`
	Income           decimal.Decimal `json:"income"`
	Expenses         decimal.Decimal `json:"expenses"`
	Balance          decimal.Decimal `json:"balance"`
	TransactionCount int             `json:"transactionCount"`
}

// Summarize aggregates the family's transactions since the start of period.
func Summarize(ctx context.Context, st store.TransactionStore, familyID, period string, today civil.Date) (*Summary, error) {
	filter := store.TransactionFilter{FamilyID: familyID}
	if start := summaryStart(today, period); start != nil {
		filter.StartDate = start
	}
	txs, err := st.SearchTransactions(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("Summarize: %w", err)
	}

	s := &Summary{Period: period, Income: decimal.Zero, Expenses: decimal.Zero}
	for _, tx := range txs {
		switch tx.Type {
		case domain.TransactionIncome:
			s.Income = s.Income.Add(tx.Amount)
		case domain.TransactionExpense:
			s.Expenses = s.Expenses.Add(tx.Amount)
		}
	}
	s.Balance = s.Income.Sub(s.Expenses)
	s.TransactionCount = len(txs)
	return s, nil
}

// summaryStart maps week/month/year to a start date; anything else is all time.
func summaryStart(today civil.Date, period string) *civil.Date {
	var d civil.Date
	switch period {
	case "week":
		d = today.AddDays(-7)
	case "month":
		d = civil.Date{Year: today.Year, Month: today.Month, Day: 1}
	case "year":
		d = civil.Date{Year: today.Year, Month: time.January, Day: 1}
	default:
		return nil
	}
	return &d
}

type summaryArgs struct {
	Period string `json:"period"`
}

func (e *Executors) financialSummary(ctx context.Context, tc ToolContext, raw json.RawMessage) (Result, error) {
	var args summaryArgs
	if err := decodeArgs(raw, &args); err != nil {
		return fail("Argumentos inválidos: %v", err), nil
	}
	s, err := Summarize(ctx, e.store, tc.FamilyID, args.Period, e.today())
	if err != nil {
		return Result{}, fmt.Errorf("resumo_financeiro: %w", err)
	}
	return ok(map[string]any{
		"period":           s.Period,
		"income":           s.Income,
		"expenses":         s.Expenses,
		"balance":          s.Balance,
		"transactionCount": s.TransactionCount,
	}), nil
}

type explainArgs struct {
	Feature string `json:"feature"`
}

func (e *Executors) explainFeature(_ context.Context, _ ToolContext, raw json.RawMessage) (Result, error) {
	var args explainArgs
	if err := decodeArgs(raw, &args); err != nil {
		return fail("Argumentos inválidos: %v", err), nil
	}
	return ok(map[string]any{"feature": ExplainFeature(args.Feature)}), nil
}
