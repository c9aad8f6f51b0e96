package notify

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dvloznov/family-finance/internal/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockTransport struct {
	DeliverFunc func(ctx context.Context, email Email) error

	mu   sync.Mutex
	sent []Email
}

func (m *mockTransport) Deliver(ctx context.Context, email Email) error {
	if m.DeliverFunc != nil {
		if err := m.DeliverFunc(ctx, email); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, email)
	return nil
}

func (m *mockTransport) emails() []Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Email(nil), m.sent...)
}

func TestService_Send(t *testing.T) {
	transport := &mockTransport{}
	svc := NewService(transport, "https://app.example.com/")

	res := svc.SendGoalAlert(context.Background(), "ana@example.com", GoalAlert{Goal: "Viagem", Target: decimal.NewFromInt(5000)})
	assert.Equal(t, Result{Success: true}, res)

	sent := transport.emails()
	require.Len(t, sent, 1)
	assert.Equal(t, "ana@example.com", sent[0].To)
	assert.Equal(t, "Nova meta criada", sent[0].Subject)
	assert.Contains(t, sent[0].HTML, "Viagem")
	assert.Contains(t, sent[0].HTML, `href="https://app.example.com"`)
}

func TestService_EveryMethodUsesItsTemplate(t *testing.T) {
	transport := &mockTransport{}
	svc := NewService(transport, "")
	ctx := context.Background()
	to := "ana@example.com"

	results := []Result{
		svc.SendTransactionAlert(ctx, to, TransactionAlert{}),
		svc.SendBudgetAlert(ctx, to, BudgetAlert{}),
		svc.SendGoalAlert(ctx, to, GoalAlert{}),
		svc.SendFamilyAlert(ctx, to, FamilyAlert{}),
		svc.SendInvite(ctx, to, Invite{}),
		svc.SendPasswordChange(ctx, to, PasswordChange{}),
		svc.SendWaitlistNotification(ctx, to, Waitlist{}),
		svc.SendAdminNewUser(ctx, to, AdminNewUser{}),
	}
	for _, r := range results {
		assert.True(t, r.Success, r.Error)
	}

	var got []string
	for _, e := range transport.emails() {
		got = append(got, e.Subject)
	}
	assert.Equal(t, []string{
		subjects[KindTransactionAlert],
		subjects[KindBudgetAlert],
		subjects[KindGoalAlert],
		subjects[KindFamilyAlert],
		subjects[KindInvite],
		subjects[KindPasswordChange],
		subjects[KindWaitlist],
		subjects[KindAdminNewUser],
	}, got)
}

func TestService_Failures(t *testing.T) {
	t.Run("invalid recipient", func(t *testing.T) {
		transport := &mockTransport{}
		res := NewService(transport, "").SendPasswordChange(context.Background(), "not-an-email", PasswordChange{})
		assert.False(t, res.Success)
		assert.Contains(t, res.Error, "invalid recipient")
		assert.Empty(t, transport.emails())
	})

	t.Run("transport error", func(t *testing.T) {
		transport := &mockTransport{DeliverFunc: func(context.Context, Email) error {
			return errors.New("connection refused")
		}}
		res := NewService(transport, "").SendWaitlistNotification(context.Background(), "ana@example.com", Waitlist{})
		assert.False(t, res.Success)
		assert.Contains(t, res.Error, "connection refused")
	})
}

func TestLogTransport(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := logger.WithContext(context.Background(), logger.NewWithWriter(buf))

	require.NoError(t, LogTransport{}.Deliver(ctx, Email{To: "a@b.c", Subject: "Convite", HTML: "<p>oi</p>"}))
	assert.Contains(t, buf.String(), `"to":"a@b.c"`)
	assert.Contains(t, buf.String(), `"subject":"Convite"`)
	assert.Contains(t, buf.String(), `"body_bytes":9`)
}
