// Package export produces CSV files of a family's transactions and serves
// them through short-lived signed links.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/family-finance/internal/domain"
	"github.com/dvloznov/family-finance/internal/logger"
	"github.com/dvloznov/family-finance/internal/store"
)

// DefaultLinkTTL is how long a download link stays valid.
const DefaultLinkTTL = 15 * time.Minute

// ErrInvalidRange is returned when the start date is after the end date.
var ErrInvalidRange = errors.New("export: start date after end date")

// Store is what the exporter reads.
type Store interface {
	store.CategoryStore
	store.TransactionStore
}

// Result describes a finished export.
type Result struct {
	URI       string    `json:"uri"`
	URL       string    `json:"url"`
	Rows      int       `json:"rows"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Exporter writes transactions to CSV and uploads them to a bucket.
type Exporter struct {
	store   Store
	storage ObjectStorage
	bucket  string
	ttl     time.Duration
	now     func() time.Time
}

// ExporterOption customises an Exporter.
type ExporterOption func(*Exporter)

// WithLinkTTL sets how long signed links stay valid.
func WithLinkTTL(d time.Duration) ExporterOption {
	return func(e *Exporter) {
		if d > 0 {
			e.ttl = d
		}
	}
}

// NewExporter creates an Exporter uploading into bucket.
func NewExporter(st Store, storage ObjectStorage, bucket string, opts ...ExporterOption) *Exporter {
	e := &Exporter{
		store:   st,
		storage: storage,
		bucket:  bucket,
		ttl:     DefaultLinkTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export writes the family's transactions dated within [start, end] and
// returns a signed link to the file.
func (e *Exporter) Export(ctx context.Context, familyID string, start, end civil.Date) (*Result, error) {
	if end.Before(start) {
		return nil, ErrInvalidRange
	}
	log := logger.FromContext(ctx)

	txs, err := e.store.SearchTransactions(ctx, store.TransactionFilter{
		FamilyID:  familyID,
		StartDate: &start,
		EndDate:   &end,
	})
	if err != nil {
		return nil, fmt.Errorf("Export: searching transactions: %w", err)
	}
	names, err := e.categoryNames(ctx, familyID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := writeCSV(&buf, txs, names); err != nil {
		return nil, fmt.Errorf("Export: writing csv: %w", err)
	}

	now := e.now()
	object := fmt.Sprintf("exports/%s/transacoes_%s_%s_%d.csv", familyID, start, end, now.Unix())
	if err := e.storage.Upload(ctx, e.bucket, object, "text/csv; charset=utf-8", &buf); err != nil {
		return nil, fmt.Errorf("Export: uploading: %w", err)
	}

	expires := now.Add(e.ttl)
	url, err := e.storage.SignedURL(ctx, e.bucket, object, expires)
	if err != nil {
		return nil, fmt.Errorf("Export: signing: %w", err)
	}

	log.Info().
		Str("family_id", familyID).
		Str("object", object).
		Int("rows", len(txs)).
		Msg("Transactions exported")

	return &Result{
		URI:       GCSURI(e.bucket, object),
		URL:       url,
		Rows:      len(txs),
		ExpiresAt: expires,
	}, nil
}

type categoryNames struct {
	categories    map[string]string
	subcategories map[string]string
}

func (e *Exporter) categoryNames(ctx context.Context, familyID string) (categoryNames, error) {
	names := categoryNames{
		categories:    make(map[string]string),
		subcategories: make(map[string]string),
	}
	cats, err := e.store.ListCategories(ctx, familyID)
	if err != nil {
		return names, fmt.Errorf("Export: listing categories: %w", err)
	}
	for _, c := range cats {
		names.categories[c.ID] = c.Name
	}
	subs, err := e.store.ListSubcategories(ctx, familyID)
	if err != nil {
		return names, fmt.Errorf("Export: listing subcategories: %w", err)
	}
	for _, s := range subs {
		names.subcategories[s.ID] = s.Name
	}
	return names, nil
}

var csvHeader = []string{"data", "tipo", "descricao", "categoria", "subcategoria", "valor", "origem"}

// writeCSV writes txs oldest first. Expenses carry a negative amount.
func writeCSV(w io.Writer, txs []*domain.Transaction, names categoryNames) error {
	sorted := make([]*domain.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Date != sorted[j].Date {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, tx := range sorted {
		record := []string{
			tx.Date.String(),
			string(tx.Type),
			tx.Description,
			names.categories[tx.CategoryID],
			names.subcategories[tx.SubcategoryID],
			tx.Signed().StringFixed(2),
			string(tx.Source),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
