package notionsync

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/family-finance/internal/domain"
	"github.com/dvloznov/family-finance/internal/store/memory"
	"github.com/jomei/notionapi"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockNotion keeps pages in memory and pages its query results two at a time.
type mockNotion struct {
	CreatePageFunc  func(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error)
	ArchivePageFunc func(ctx context.Context, pageID string) error

	mu       sync.Mutex
	pages    []notionapi.Page
	archived []string
	queries  int
	nextID   int
}

func (m *mockNotion) addPage(props notionapi.Properties) string {
	m.nextID++
	id := "page-" + strconv.Itoa(m.nextID)
	m.pages = append(m.pages, notionapi.Page{ID: notionapi.ObjectID(id), Properties: props})
	return id
}

func (m *mockNotion) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	if m.CreatePageFunc != nil {
		if _, err := m.CreatePageFunc(ctx, databaseID, properties); err != nil {
			return nil, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.addPage(properties)
	return &notionapi.Page{ID: notionapi.ObjectID(id), Properties: properties}, nil
}

func (m *mockNotion) UpdatePage(ctx context.Context, pageID string, properties notionapi.Properties) (*notionapi.Page, error) {
	return nil, errors.New("not used")
}

func (m *mockNotion) QueryDatabase(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries++

	var live []notionapi.Page
	for _, p := range m.pages {
		if !p.Archived {
			live = append(live, p)
		}
	}
	start := 0
	if req.StartCursor != "" {
		start, _ = strconv.Atoi(string(req.StartCursor))
	}
	end := min(start+2, len(live))
	resp := &notionapi.DatabaseQueryResponse{Results: live[start:end]}
	if end < len(live) {
		resp.HasMore = true
		resp.NextCursor = notionapi.Cursor(strconv.Itoa(end))
	}
	return resp, nil
}

func (m *mockNotion) ArchivePage(ctx context.Context, pageID string) error {
	if m.ArchivePageFunc != nil {
		if err := m.ArchivePageFunc(ctx, pageID); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.pages {
		if string(m.pages[i].ID) == pageID {
			m.pages[i].Archived = true
		}
	}
	m.archived = append(m.archived, pageID)
	return nil
}

func (m *mockNotion) liveTransactionIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for _, p := range m.pages {
		if !p.Archived {
			ids = append(ids, pageText(p, PropTransactionID))
		}
	}
	return ids
}

func day(d int) civil.Date {
	return civil.Date{Year: 2026, Month: time.March, Day: d}
}

func newTestStore(t *testing.T, n int) *memory.Store {
	t.Helper()
	st := memory.New()
	st.AddCategory(&domain.Category{ID: "cat-food", Name: "Alimentação", Type: domain.TransactionExpense})
	for i := 1; i <= n; i++ {
		require.NoError(t, st.InsertTransaction(context.Background(), &domain.Transaction{
			ID:          fmt.Sprintf("tx-%d", i),
			FamilyID:    "f1",
			Type:        domain.TransactionExpense,
			Amount:      decimal.NewFromInt(int64(10 * i)),
			Description: fmt.Sprintf("compra %d", i),
			CategoryID:  "cat-food",
			Date:        day(i),
			Source:      domain.SourceChat,
		}))
	}
	return st
}

func stalePage(txID, familyID string, date civil.Date) notionapi.Properties {
	return notionapi.Properties{
		PropTransactionID: notionapi.RichTextProperty{RichText: richText(txID)},
		PropFamilyID:      notionapi.RichTextProperty{RichText: richText(familyID)},
		PropDate:          dateProperty(civilToTime(date)),
	}
}

func TestSyncTransactions_CreatesPages(t *testing.T) {
	notion := &mockNotion{}
	s := NewSyncer(newTestStore(t, 3), notion, "db-1")

	stats, err := s.SyncTransactions(context.Background(), "f1", day(1), day(31), false)
	require.NoError(t, err)
	assert.Equal(t, &Stats{Total: 3, Created: 3}, stats)
	assert.ElementsMatch(t, []string{"tx-1", "tx-2", "tx-3"}, notion.liveTransactionIDs())
}

func TestSyncTransactions_Idempotent(t *testing.T) {
	notion := &mockNotion{}
	s := NewSyncer(newTestStore(t, 5), notion, "db-1")
	ctx := context.Background()

	_, err := s.SyncTransactions(ctx, "f1", day(1), day(31), false)
	require.NoError(t, err)

	stats, err := s.SyncTransactions(ctx, "f1", day(1), day(31), false)
	require.NoError(t, err)
	assert.Equal(t, &Stats{Total: 5, Skipped: 5}, stats)
	assert.Len(t, notion.liveTransactionIDs(), 5)
}

func TestSyncTransactions_ArchivesStalePages(t *testing.T) {
	notion := &mockNotion{}
	deleted := notion.addPage(stalePage("tx-gone", "f1", day(10)))
	outOfRange := notion.addPage(stalePage("tx-april", "f1", civil.Date{Year: 2026, Month: time.April, Day: 2}))
	otherFamily := notion.addPage(stalePage("tx-other", "f2", day(10)))
	orphan := notion.addPage(notionapi.Properties{PropName: notionapi.TitleProperty{Title: richText("sem id")}})

	s := NewSyncer(newTestStore(t, 2), notion, "db-1")
	stats, err := s.SyncTransactions(context.Background(), "f1", day(1), day(31), false)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Created)
	assert.Equal(t, 2, stats.Archived)
	assert.ElementsMatch(t, []string{deleted, orphan}, notion.archived)
	assert.NotContains(t, notion.archived, outOfRange)
	assert.NotContains(t, notion.archived, otherFamily)
}

func TestSyncTransactions_DryRun(t *testing.T) {
	notion := &mockNotion{}
	notion.addPage(stalePage("tx-gone", "f1", day(10)))

	s := NewSyncer(newTestStore(t, 2), notion, "db-1")
	stats, err := s.SyncTransactions(context.Background(), "f1", day(1), day(31), true)
	require.NoError(t, err)

	assert.Equal(t, &Stats{Total: 2, Created: 2, Archived: 1}, stats)
	assert.Empty(t, notion.archived)
	assert.Equal(t, []string{"tx-gone"}, notion.liveTransactionIDs())
}

func TestSyncTransactions_PageFailuresAreCounted(t *testing.T) {
	notion := &mockNotion{
		CreatePageFunc: func(ctx context.Context, databaseID string, props notionapi.Properties) (*notionapi.Page, error) {
			if pageText(notionapi.Page{Properties: props}, PropTransactionID) == "tx-2" {
				return nil, errors.New("rate limited")
			}
			return nil, nil
		},
		ArchivePageFunc: func(ctx context.Context, pageID string) error {
			return errors.New("forbidden")
		},
	}
	notion.addPage(stalePage("tx-gone", "f1", day(10)))

	s := NewSyncer(newTestStore(t, 3), notion, "db-1")
	stats, err := s.SyncTransactions(context.Background(), "f1", day(1), day(31), false)
	require.NoError(t, err)

	assert.Equal(t, &Stats{Total: 3, Created: 2, Failed: 2}, stats)
}

func TestSyncTransactions_Paginates(t *testing.T) {
	notion := &mockNotion{}
	s := NewSyncer(newTestStore(t, 5), notion, "db-1")
	ctx := context.Background()

	_, err := s.SyncTransactions(ctx, "f1", day(1), day(31), false)
	require.NoError(t, err)
	notion.queries = 0

	_, err = s.SyncTransactions(ctx, "f1", day(1), day(31), false)
	require.NoError(t, err)
	assert.Equal(t, 3, notion.queries)
}

func TestTransactionToNotionProperties(t *testing.T) {
	tx := &domain.Transaction{
		ID:            "tx-1",
		FamilyID:      "f1",
		Type:          domain.TransactionExpense,
		Amount:        decimal.RequireFromString("45.5"),
		Description:   "feira",
		CategoryID:    "cat-food",
		SubcategoryID: "sub-market",
		Date:          day(10),
		Source:        domain.SourceChat,
	}
	names := Names{
		Categories:    map[string]string{"cat-food": "Alimentação"},
		Subcategories: map[string]string{"sub-market": "Mercado"},
	}

	props := TransactionToNotionProperties(tx, names)
	page := notionapi.Page{Properties: props}

	assert.Equal(t, "feira", pageText(page, PropName))
	assert.Equal(t, "tx-1", pageText(page, PropTransactionID))
	assert.Equal(t, "f1", pageText(page, PropFamilyID))
	date, ok := pageDate(page, PropDate)
	require.True(t, ok)
	assert.Equal(t, day(10), date)
	assert.Equal(t, -45.5, props[PropAmount].(notionapi.NumberProperty).Number)
	assert.Equal(t, "Despesa", props[PropType].(notionapi.SelectProperty).Select.Name)
	assert.Equal(t, "Alimentação", props[PropCategory].(notionapi.SelectProperty).Select.Name)
	assert.Equal(t, "Mercado", props[PropSubcategory].(notionapi.SelectProperty).Select.Name)
	assert.Equal(t, "chat", props[PropSource].(notionapi.SelectProperty).Select.Name)
	assert.NotContains(t, props, PropCreatedAt)

	tx.Type = domain.TransactionIncome
	tx.SubcategoryID = ""
	props = TransactionToNotionProperties(tx, names)
	assert.Equal(t, 45.5, props[PropAmount].(notionapi.NumberProperty).Number)
	assert.Equal(t, "Receita", props[PropType].(notionapi.SelectProperty).Select.Name)
	assert.NotContains(t, props, PropSubcategory)
}

func TestPageText_APIShape(t *testing.T) {
	page := notionapi.Page{Properties: notionapi.Properties{
		PropTransactionID: &notionapi.RichTextProperty{RichText: []notionapi.RichText{{PlainText: "tx-9"}}},
	}}
	assert.Equal(t, "tx-9", pageText(page, PropTransactionID))
	assert.Equal(t, "", pageText(page, PropFamilyID))
	_, ok := pageDate(page, PropDate)
	assert.False(t, ok)
}
