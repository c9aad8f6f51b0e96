package domain

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// BudgetPeriod is the length of a budget window.
type BudgetPeriod string

const (
	PeriodWeekly  BudgetPeriod = "weekly"
	PeriodMonthly BudgetPeriod = "monthly"
	PeriodYearly  BudgetPeriod = "yearly"
)

// Valid reports whether p is a known budget period.
func (p BudgetPeriod) Valid() bool {
	switch p {
	case PeriodWeekly, PeriodMonthly, PeriodYearly:
		return true
	}
	return false
}

// Budget is a spending limit for one category. It is unique per
// (family, category, period, start date).
type Budget struct {
	ID          string          `json:"id"`
	FamilyID    string          `json:"family_id"`
	CategoryID  string          `json:"category_id"`
	LimitAmount decimal.Decimal `json:"limit_amount"`
	Period      BudgetPeriod    `json:"period"`
	StartDate   civil.Date      `json:"start_date"`
	EndDate     civil.Date      `json:"end_date"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Contains reports whether d falls inside the budget window, inclusive.
func (b *Budget) Contains(d civil.Date) bool {
	return !d.Before(b.StartDate) && !d.After(b.EndDate)
}

// GoalStatus is the lifecycle state of a goal.
type GoalStatus string

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalCancelled GoalStatus = "cancelled"
)

// Goal is a savings target.
type Goal struct {
	ID            string          `json:"id"`
	FamilyID      string          `json:"family_id"`
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	Deadline      *civil.Date     `json:"deadline,omitempty"`
	Category      string          `json:"category,omitempty"`
	Status        GoalStatus      `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}
