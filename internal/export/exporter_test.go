package export

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/family-finance/internal/domain"
	"github.com/dvloznov/family-finance/internal/store/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockStorage struct {
	UploadFunc    func(ctx context.Context, bucket, object, contentType string, r io.Reader) error
	SignedURLFunc func(ctx context.Context, bucket, object string, expires time.Time) (string, error)

	uploaded    string
	object      string
	contentType string
}

func (m *mockStorage) Upload(ctx context.Context, bucket, object, contentType string, r io.Reader) error {
	if m.UploadFunc != nil {
		return m.UploadFunc(ctx, bucket, object, contentType, r)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.uploaded = string(data)
	m.object = object
	m.contentType = contentType
	return nil
}

func (m *mockStorage) SignedURL(ctx context.Context, bucket, object string, expires time.Time) (string, error) {
	if m.SignedURLFunc != nil {
		return m.SignedURLFunc(ctx, bucket, object, expires)
	}
	return "https://storage.example.com/" + bucket + "/" + object, nil
}

var fixedNow = time.Date(2026, 3, 20, 10, 0, 0, 0, time.UTC)

func date(month time.Month, day int) civil.Date {
	return civil.Date{Year: 2026, Month: month, Day: day}
}

func newTestExporter(t *testing.T, storage ObjectStorage) *Exporter {
	t.Helper()
	st := memory.New()
	st.AddCategory(&domain.Category{ID: "cat-food", Name: "Alimentação", Type: domain.TransactionExpense})
	st.AddCategory(&domain.Category{ID: "cat-salary", Name: "Salário", Type: domain.TransactionIncome})
	st.AddSubcategory(&domain.Subcategory{ID: "sub-market", CategoryID: "cat-food", Name: "Mercado"})

	ctx := context.Background()
	rows := []*domain.Transaction{
		{ID: "t1", FamilyID: "f1", Type: domain.TransactionExpense, Amount: decimal.RequireFromString("45.5"),
			Description: "feira, centro", CategoryID: "cat-food", SubcategoryID: "sub-market", Date: date(time.March, 10), Source: domain.SourceChat},
		{ID: "t2", FamilyID: "f1", Type: domain.TransactionIncome, Amount: decimal.NewFromInt(5000),
			Description: "salário", CategoryID: "cat-salary", Date: date(time.March, 5), Source: domain.SourceManual},
		{ID: "t3", FamilyID: "f1", Type: domain.TransactionExpense, Amount: decimal.NewFromInt(20),
			Description: "fora do período", CategoryID: "cat-food", Date: date(time.April, 1), Source: domain.SourceChat},
		{ID: "t4", FamilyID: "f2", Type: domain.TransactionExpense, Amount: decimal.NewFromInt(99),
			Description: "outra família", CategoryID: "cat-food", Date: date(time.March, 6), Source: domain.SourceChat},
	}
	for _, tx := range rows {
		require.NoError(t, st.InsertTransaction(ctx, tx))
	}

	e := NewExporter(st, storage, "exports-bucket")
	e.now = func() time.Time { return fixedNow }
	return e
}

func TestExport(t *testing.T) {
	storage := &mockStorage{}
	e := newTestExporter(t, storage)

	res, err := e.Export(context.Background(), "f1", date(time.March, 1), date(time.March, 31))
	require.NoError(t, err)

	wantObject := "exports/f1/transacoes_2026-03-01_2026-03-31_1774000800.csv"
	assert.Equal(t, wantObject, storage.object)
	assert.Equal(t, "text/csv; charset=utf-8", storage.contentType)
	assert.Equal(t, "gs://exports-bucket/"+wantObject, res.URI)
	assert.Equal(t, "https://storage.example.com/exports-bucket/"+wantObject, res.URL)
	assert.Equal(t, 2, res.Rows)
	assert.Equal(t, fixedNow.Add(15*time.Minute), res.ExpiresAt)

	records, err := csv.NewReader(strings.NewReader(storage.uploaded)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, []string{"2026-03-05", "income", "salário", "Salário", "", "5000.00", "manual"}, records[1])
	assert.Equal(t, []string{"2026-03-10", "expense", "feira, centro", "Alimentação", "Mercado", "-45.50", "chat"}, records[2])
}

func TestExport_EmptyRange(t *testing.T) {
	storage := &mockStorage{}
	e := newTestExporter(t, storage)

	res, err := e.Export(context.Background(), "f1", date(time.January, 1), date(time.January, 31))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Rows)
	assert.Equal(t, strings.Join(csvHeader, ",")+"\n", storage.uploaded)
}

func TestExport_Errors(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name    string
		storage *mockStorage
		start   civil.Date
		end     civil.Date
		wantErr error
		wantMsg string
	}{
		{
			name:    "inverted range",
			storage: &mockStorage{},
			start:   date(time.March, 31),
			end:     date(time.March, 1),
			wantErr: ErrInvalidRange,
		},
		{
			name: "upload fails",
			storage: &mockStorage{UploadFunc: func(context.Context, string, string, string, io.Reader) error {
				return boom
			}},
			start:   date(time.March, 1),
			end:     date(time.March, 31),
			wantErr: boom,
			wantMsg: "uploading",
		},
		{
			name: "signing fails",
			storage: &mockStorage{SignedURLFunc: func(context.Context, string, string, time.Time) (string, error) {
				return "", boom
			}},
			start:   date(time.March, 1),
			end:     date(time.March, 31),
			wantErr: boom,
			wantMsg: "signing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestExporter(t, tt.storage)
			_, err := e.Export(context.Background(), "f1", tt.start, tt.end)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestParseGCSURI(t *testing.T) {
	tests := []struct {
		uri        string
		wantBucket string
		wantObject string
		wantErr    bool
	}{
		{uri: "gs://bucket/exports/f1/a.csv", wantBucket: "bucket", wantObject: "exports/f1/a.csv"},
		{uri: "gs://bucket/a.csv", wantBucket: "bucket", wantObject: "a.csv"},
		{uri: "https://bucket/a.csv", wantErr: true},
		{uri: "gs://bucket", wantErr: true},
		{uri: "gs://bucket/", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			bucket, object, err := ParseGCSURI(tt.uri)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBucket, bucket)
			assert.Equal(t, tt.wantObject, object)
			assert.Equal(t, tt.uri, GCSURI(bucket, object))
		})
	}
}

func TestWithLinkTTL(t *testing.T) {
	e := NewExporter(nil, &mockStorage{}, "b", WithLinkTTL(time.Hour))
	assert.Equal(t, time.Hour, e.ttl)

	e = NewExporter(nil, &mockStorage{}, "b", WithLinkTTL(0))
	assert.Equal(t, DefaultLinkTTL, e.ttl)
}
