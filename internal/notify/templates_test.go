package notify

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatBRL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "R$ 0,00"},
		{"5", "R$ 5,00"},
		{"50.5", "R$ 50,50"},
		{"999.999", "R$ 1.000,00"},
		{"1234.56", "R$ 1.234,56"},
		{"1234567.8", "R$ 1.234.567,80"},
		{"-42.1", "-R$ 42,10"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatBRL(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestRender_EveryKind(t *testing.T) {
	data := map[string]any{
		KindTransactionAlert: TransactionAlert{Name: "Ana", Type: "expense", Description: "mercado", Amount: decimal.NewFromInt(50), Category: "Alimentação", Date: "2026-03-15"},
		KindBudgetAlert:      BudgetAlert{Name: "Ana", Category: "Lazer", Spent: decimal.NewFromInt(120), Limit: decimal.NewFromInt(100)},
		KindGoalAlert:        GoalAlert{Name: "Ana", Goal: "Viagem", Target: decimal.NewFromInt(5000), Deadline: "2026-12-01"},
		KindFamilyAlert:      FamilyAlert{Name: "Ana", FamilyName: "Silva", Message: "Bruno entrou na família."},
		KindInvite:           Invite{FamilyName: "Silva", InviterName: "Ana", AcceptURL: "https://app/convite?token=abc"},
		KindPasswordChange:   PasswordChange{Name: "Ana"},
		KindWaitlist:         Waitlist{Name: "Ana"},
		KindAdminNewUser:     AdminNewUser{UserName: "Bruno", UserEmail: "bruno@example.com"},
	}
	require.Len(t, data, len(subjects))

	for kind, d := range data {
		t.Run(kind, func(t *testing.T) {
			subject, body, err := render(kind, templateData{AppURL: "https://app", Data: d})
			require.NoError(t, err)
			assert.Equal(t, subjects[kind], subject)
			assert.Contains(t, body, "<html")
			assert.Contains(t, body, `href="https://app"`)
		})
	}
}

func TestRender_Content(t *testing.T) {
	_, body, err := render(KindBudgetAlert, templateData{Data: BudgetAlert{
		Category: "Lazer", Spent: decimal.RequireFromString("1250.5"), Limit: decimal.NewFromInt(1000),
	}})
	require.NoError(t, err)
	assert.Contains(t, body, "R$ 1.250,50")
	assert.Contains(t, body, "R$ 250,50 acima")

	_, body, err = render(KindTransactionAlert, templateData{Data: TransactionAlert{
		Type: "income", Description: "<script>alert(1)</script>", Amount: decimal.NewFromInt(10),
	}})
	require.NoError(t, err)
	assert.Contains(t, body, "receita")
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "&lt;script&gt;")
}

func TestRender_UnknownKind(t *testing.T) {
	_, _, err := render("sms", templateData{})
	assert.Error(t, err)
}
