package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/family-finance/internal/domain"
	"github.com/dvloznov/family-finance/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) civil.Date { return civil.Date{Year: 2026, Month: time.March, Day: d} }

func seedTransactions(t *testing.T, st *Store) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	txs := []*domain.Transaction{
		{ID: "t1", FamilyID: "f1", Type: domain.TransactionExpense, Amount: decimal.NewFromInt(50), Description: "Mercado Extra", CategoryID: "cat-alimentacao", Date: day(2), Source: domain.SourceChat, CreatedAt: base},
		{ID: "t2", FamilyID: "f1", Type: domain.TransactionIncome, Amount: decimal.NewFromInt(3000), Description: "Salário", CategoryID: "cat-salario", Date: day(5), Source: domain.SourceManual, CreatedAt: base},
		{ID: "t3", FamilyID: "f1", Type: domain.TransactionExpense, Amount: decimal.NewFromInt(20), Description: "Uber", CategoryID: "cat-transporte", Date: day(5), Source: domain.SourceChat, CreatedAt: base.Add(time.Hour)},
		{ID: "t4", FamilyID: "f2", Type: domain.TransactionExpense, Amount: decimal.NewFromInt(50), Description: "Mercado Extra", CategoryID: "cat-alimentacao", Date: day(2), Source: domain.SourceChat, CreatedAt: base},
	}
	for _, tx := range txs {
		require.NoError(t, st.InsertTransaction(ctx, tx))
	}
}

func ids(txs []*domain.Transaction) []string {
	out := make([]string, len(txs))
	for i, tx := range txs {
		out[i] = tx.ID
	}
	return out
}

func TestSearchTransactions(t *testing.T) {
	st := New()
	seedTransactions(t, st)

	d2, d5 := day(2), day(5)
	fifty := decimal.RequireFromString("50.00")
	since := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name   string
		filter store.TransactionFilter
		want   []string
	}{
		{"family scope newest first", store.TransactionFilter{FamilyID: "f1"}, []string{"t3", "t2", "t1"}},
		{"type", store.TransactionFilter{FamilyID: "f1", Type: domain.TransactionExpense}, []string{"t3", "t1"}},
		{"categories", store.TransactionFilter{FamilyID: "f1", CategoryIDs: []string{"cat-salario", "cat-transporte"}}, []string{"t3", "t2"}},
		{"range", store.TransactionFilter{FamilyID: "f1", StartDate: &d2, EndDate: &d2}, []string{"t1"}},
		{"exact date and amount", store.TransactionFilter{FamilyID: "f1", Date: &d2, Amount: &fifty}, []string{"t1"}},
		{"exact description", store.TransactionFilter{FamilyID: "f1", Description: "Mercado Extra"}, []string{"t1"}},
		{"contains ignores case", store.TransactionFilter{FamilyID: "f1", DescriptionContains: "mercado"}, []string{"t1"}},
		{"source", store.TransactionFilter{FamilyID: "f1", Source: domain.SourceManual}, []string{"t2"}},
		{"created since", store.TransactionFilter{FamilyID: "f1", CreatedSince: &since}, []string{"t3"}},
		{"limit", store.TransactionFilter{FamilyID: "f1", StartDate: &d5, Limit: 1}, []string{"t3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := st.SearchTransactions(context.Background(), tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestInsertTransaction_Rejects(t *testing.T) {
	st := New()
	ctx := context.Background()

	assert.Error(t, st.InsertTransaction(ctx, &domain.Transaction{FamilyID: "f1"}))
	require.NoError(t, st.InsertTransaction(ctx, &domain.Transaction{ID: "t1", FamilyID: "f1"}))
	assert.ErrorContains(t, st.InsertTransaction(ctx, &domain.Transaction{ID: "t1", FamilyID: "f1"}), "duplicate")
}

func TestDeleteTransaction(t *testing.T) {
	st := New()
	seedTransactions(t, st)
	ctx := context.Background()

	assert.ErrorIs(t, st.DeleteTransaction(ctx, "f2", "t1"), store.ErrNotFound)
	require.NoError(t, st.DeleteTransaction(ctx, "f1", "t1"))
	assert.ErrorIs(t, st.DeleteTransaction(ctx, "f1", "t1"), store.ErrNotFound)

	st.DeleteHook = func(string) error { return errors.New("backend down") }
	assert.EqualError(t, st.DeleteTransaction(ctx, "f1", "t2"), "backend down")
}

func TestUpsertBudget(t *testing.T) {
	st := New()
	ctx := context.Background()

	b := &domain.Budget{FamilyID: "f1", CategoryID: "cat-lazer", LimitAmount: decimal.NewFromInt(100), Period: domain.PeriodMonthly, StartDate: day(1), EndDate: day(31)}
	first, err := st.UpsertBudget(ctx, b)
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	b.LimitAmount = decimal.NewFromInt(150)
	second, err := st.UpsertBudget(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.LimitAmount.Equal(decimal.NewFromInt(150)))

	april := &domain.Budget{FamilyID: "f1", CategoryID: "cat-lazer", LimitAmount: decimal.NewFromInt(80), Period: domain.PeriodMonthly,
		StartDate: civil.Date{Year: 2026, Month: time.April, Day: 1}, EndDate: civil.Date{Year: 2026, Month: time.April, Day: 30}}
	_, err = st.UpsertBudget(ctx, april)
	require.NoError(t, err)

	found, err := st.FindBudgetForCategory(ctx, "f1", "cat-lazer")
	require.NoError(t, err)
	assert.Equal(t, april.StartDate, found.StartDate)

	list, err := st.ListBudgets(ctx, "f1")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, err = st.FindBudgetForCategory(ctx, "f1", "cat-saude")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListChatMessages(t *testing.T) {
	st := New()
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, st.InsertChatMessages(ctx,
		&domain.ChatMessage{ID: "m1", FamilyID: "f1", ConversationID: "c1", ThreadID: "th1", CreatedAt: at},
		&domain.ChatMessage{ID: "m2", FamilyID: "f1", ConversationID: "c1", ThreadID: "th1", CreatedAt: at},
		&domain.ChatMessage{ID: "m3", FamilyID: "f1", ConversationID: "c2", ThreadID: "th1", CreatedAt: at.Add(time.Minute)},
		&domain.ChatMessage{ID: "m4", FamilyID: "f2", ConversationID: "c1", CreatedAt: at},
	))

	msgIDs := func(f store.ChatFilter) []string {
		msgs, err := st.ListChatMessages(ctx, f)
		require.NoError(t, err)
		out := make([]string, len(msgs))
		for i, m := range msgs {
			out[i] = m.ID
		}
		return out
	}

	assert.Equal(t, []string{"m2", "m1"}, msgIDs(store.ChatFilter{FamilyID: "f1", ConversationID: "c1"}))
	assert.Equal(t, []string{"m3", "m2", "m1"}, msgIDs(store.ChatFilter{FamilyID: "f1", ThreadID: "th1"}))
	assert.Equal(t, []string{"m2", "m1"}, msgIDs(store.ChatFilter{FamilyID: "f1", ConversationID: "c1", ThreadID: "other"}))
	assert.Equal(t, []string{"m3"}, msgIDs(store.ChatFilter{FamilyID: "f1", Limit: 1}))
}

func TestNotifications(t *testing.T) {
	st := New()
	ctx := context.Background()

	require.NoError(t, st.InsertNotification(ctx, &domain.Notification{ID: "n1", UserID: "u1"}))
	require.NoError(t, st.InsertNotification(ctx, &domain.Notification{ID: "n2", UserID: "u1"}))
	require.NoError(t, st.InsertNotification(ctx, &domain.Notification{ID: "n3", UserID: "u2"}))

	assert.ErrorIs(t, st.MarkNotificationRead(ctx, "u2", "n1"), store.ErrNotFound)
	require.NoError(t, st.MarkNotificationRead(ctx, "u1", "n1"))

	all, err := st.ListNotifications(ctx, "u1", false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "n2", all[0].ID)

	unread, err := st.ListNotifications(ctx, "u1", true)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "n2", unread[0].ID)
}

func TestSeedDemo(t *testing.T) {
	st := New()
	ctx := context.Background()
	st.AddCategory(&domain.Category{ID: "cat-pets", Name: "Pets", Type: domain.TransactionExpense, FamilyID: "other"})
	st.SeedDemo("demo@example.com", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	members, err := st.ListFamilyMembers(ctx, DemoFamilyID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, domain.MemberOwner, members[0].Role)

	settings, err := st.GetUserSettings(ctx, DemoUserID)
	require.NoError(t, err)
	assert.True(t, settings.BudgetAlerts)

	cats, err := st.ListCategories(ctx, DemoFamilyID)
	require.NoError(t, err)
	assert.Len(t, cats, 10)
	for _, c := range cats {
		assert.NotEqual(t, "cat-pets", c.ID)
	}
}
