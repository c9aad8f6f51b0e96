package assistant

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dvloznov/family-finance/internal/domain"
	"github.com/dvloznov/family-finance/internal/store/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	testUser   = "user-1"
	testFamily = "family-1"
	catFood    = "cat-food"
	catLeisure = "cat-leisure"
	catSalary  = "cat-salary"
	catFreela  = "cat-freela"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type budgetAlert struct {
	Category     string
	Spent, Limit decimal.Decimal
}

type mockAlerter struct {
	TransactionCreatedFunc func(ctx context.Context, userID string, tx *domain.Transaction, categoryName string) error

	mu           sync.Mutex
	transactions []*domain.Transaction
	budgets      []budgetAlert
	goals        []*domain.Goal
}

func (m *mockAlerter) TransactionCreated(ctx context.Context, userID string, tx *domain.Transaction, categoryName string) error {
	m.mu.Lock()
	m.transactions = append(m.transactions, tx)
	m.mu.Unlock()
	if m.TransactionCreatedFunc != nil {
		return m.TransactionCreatedFunc(ctx, userID, tx, categoryName)
	}
	return nil
}

func (m *mockAlerter) BudgetExceeded(ctx context.Context, userID, familyID, categoryName string, spent, limit decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.budgets = append(m.budgets, budgetAlert{Category: categoryName, Spent: spent, Limit: limit})
	return nil
}

func (m *mockAlerter) GoalCreated(ctx context.Context, userID string, goal *domain.Goal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.goals = append(m.goals, goal)
	return nil
}

type fixture struct {
	store  *memory.Store
	clock  *fakeClock
	alerts *mockAlerter
	exec   *Executors
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st := memory.New()
	st.AddUser(&domain.User{ID: testUser, Email: "ana@example.com", Name: "Ana"})
	st.AddFamily(&domain.Family{ID: testFamily, Name: "Silva", OwnerID: testUser})
	st.AddCategory(&domain.Category{ID: catFood, Name: "Alimentação", Type: domain.TransactionExpense})
	st.AddCategory(&domain.Category{ID: catLeisure, Name: "Lazer", Type: domain.TransactionExpense})
	st.AddCategory(&domain.Category{ID: catSalary, Name: "Salário", Type: domain.TransactionIncome})
	st.AddCategory(&domain.Category{ID: catFreela, Name: "Freelance", Type: domain.TransactionIncome, FamilyID: testFamily})
	st.AddSubcategory(&domain.Subcategory{ID: "sub-market", CategoryID: catFood, Name: "Mercado"})

	clock := &fakeClock{t: time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)}
	alerts := &mockAlerter{}
	exec, err := NewExecutors(st, alerts, WithClock(clock.Now))
	require.NoError(t, err)

	return &fixture{store: st, clock: clock, alerts: alerts, exec: exec}
}

func (f *fixture) toolContext(settings *domain.UserSettings) ToolContext {
	if settings == nil {
		settings = domain.DefaultUserSettings(testUser)
	}
	return ToolContext{FamilyID: testFamily, UserID: testUser, Settings: settings}
}
