package memory

import (
	"time"

	"github.com/dvloznov/family-finance/internal/domain"
)

// Demo account created by SeedDemo.
const (
	DemoUserID   = "demo-user"
	DemoFamilyID = "demo-family"
)

// DefaultCategories mirrors the postgres seed migration.
func DefaultCategories() []*domain.Category {
	return []*domain.Category{
		{ID: "cat-alimentacao", Name: "Alimentação", Type: domain.TransactionExpense, Icon: "🍽️"},
		{ID: "cat-transporte", Name: "Transporte", Type: domain.TransactionExpense, Icon: "🚗"},
		{ID: "cat-moradia", Name: "Moradia", Type: domain.TransactionExpense, Icon: "🏠"},
		{ID: "cat-saude", Name: "Saúde", Type: domain.TransactionExpense, Icon: "💊"},
		{ID: "cat-educacao", Name: "Educação", Type: domain.TransactionExpense, Icon: "📚"},
		{ID: "cat-lazer", Name: "Lazer", Type: domain.TransactionExpense, Icon: "🎉"},
		{ID: "cat-outros", Name: "Outros", Type: domain.TransactionExpense, Icon: "📦"},
		{ID: "cat-salario", Name: "Salário", Type: domain.TransactionIncome, Icon: "💰"},
		{ID: "cat-freelance", Name: "Freelance", Type: domain.TransactionIncome, Icon: "💼"},
		{ID: "cat-investimentos", Name: "Investimentos", Type: domain.TransactionIncome, Icon: "📈"},
	}
}

// SeedDemo adds the default categories and a demo user owning a demo family,
// so a memory-backed server is usable with X-User-ID: demo-user.
func (s *Store) SeedDemo(email string, now time.Time) {
	for _, c := range DefaultCategories() {
		s.AddCategory(c)
	}
	s.AddUser(&domain.User{ID: DemoUserID, Email: email, Name: "Demo"})
	s.AddFamily(&domain.Family{ID: DemoFamilyID, Name: "Família Demo", OwnerID: DemoUserID, CreatedAt: now})
	s.PutUserSettings(&domain.UserSettings{
		UserID:               DemoUserID,
		AssistantPersonality: "padrao",
		TransactionAlerts:    true,
		BudgetAlerts:         true,
		GoalAlerts:           true,
		FamilyAlerts:         true,
	})
}
