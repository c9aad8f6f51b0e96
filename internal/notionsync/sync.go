// Package notionsync mirrors a family's transactions into a Notion database.
package notionsync

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/family-finance/internal/logger"
	"github.com/dvloznov/family-finance/internal/store"
	"github.com/jomei/notionapi"
)

const (
	// BatchSize defines the number of transactions to process in a single batch
	BatchSize = 100
)

// Store is what the syncer reads.
type Store interface {
	store.CategoryStore
	store.TransactionStore
}

// Stats counts what a sync did (or would do, on a dry run).
type Stats struct {
	Total    int `json:"total"`
	Created  int `json:"created"`
	Skipped  int `json:"skipped"`
	Archived int `json:"archived"`
	Failed   int `json:"failed"`
}

// Syncer mirrors transactions into one Notion database. Several families may
// share the database; pages are told apart by their Family ID property.
type Syncer struct {
	store      Store
	notion     NotionService
	databaseID string
}

// NewSyncer creates a Syncer.
func NewSyncer(st Store, notion NotionService, databaseID string) *Syncer {
	return &Syncer{store: st, notion: notion, databaseID: databaseID}
}

// SyncTransactions mirrors the family's transactions dated within
// [start, end]. It is idempotent: a transaction already present in Notion
// (matched on its Transaction ID property) is skipped. Pages of the family in
// that range whose transaction no longer exists, and pages without a
// Transaction ID, are archived. Failures on single pages are logged and
// counted, not returned.
func (s *Syncer) SyncTransactions(ctx context.Context, familyID string, start, end civil.Date, dryRun bool) (*Stats, error) {
	log := logger.FromContext(ctx).With().Str("family_id", familyID).Logger()

	log.Info().
		Str("start_date", start.String()).
		Str("end_date", end.String()).
		Bool("dry_run", dryRun).
		Msg("Starting transaction sync to Notion")

	transactions, err := s.store.SearchTransactions(ctx, store.TransactionFilter{
		FamilyID:  familyID,
		StartDate: &start,
		EndDate:   &end,
	})
	if err != nil {
		return nil, fmt.Errorf("SyncTransactions: querying transactions: %w", err)
	}
	names, err := s.names(ctx, familyID)
	if err != nil {
		return nil, err
	}

	valid := make(map[string]bool, len(transactions))
	for _, tx := range transactions {
		valid[tx.ID] = true
	}

	pages, err := queryAllNotionPages(ctx, s.notion, s.databaseID)
	if err != nil {
		return nil, fmt.Errorf("SyncTransactions: %w", err)
	}

	stats := &Stats{Total: len(transactions)}
	existing := make(map[string]bool)
	for _, page := range pages {
		txID := pageText(page, PropTransactionID)
		if txID != "" && pageText(page, PropFamilyID) != familyID {
			continue
		}
		if txID != "" {
			if valid[txID] {
				existing[txID] = true
				continue
			}
			date, ok := pageDate(page, PropDate)
			if !ok || date.Before(start) || date.After(end) {
				continue
			}
		}
		s.archive(ctx, page, txID, dryRun, stats)
	}

	for i := 0; i < len(transactions); i += BatchSize {
		batchEnd := min(i+BatchSize, len(transactions))
		log.Debug().
			Int("batch_start", i).
			Int("batch_end", batchEnd).
			Msg("Processing batch")

		for _, tx := range transactions[i:batchEnd] {
			if existing[tx.ID] {
				stats.Skipped++
				continue
			}
			if dryRun {
				log.Info().Str("transaction_id", tx.ID).Msg("[DRY RUN] Would create new Notion page")
				stats.Created++
				continue
			}

			page, err := s.notion.CreatePage(ctx, s.databaseID, TransactionToNotionProperties(tx, names))
			if err != nil {
				log.Warn().
					Err(err).
					Str("transaction_id", tx.ID).
					Msg("Failed to create Notion page")
				stats.Failed++
				continue
			}
			log.Debug().
				Str("transaction_id", tx.ID).
				Str("page_id", string(page.ID)).
				Msg("Created Notion page")
			stats.Created++
		}
	}

	log.Info().
		Int("archived", stats.Archived).
		Int("created", stats.Created).
		Int("skipped", stats.Skipped).
		Int("failed", stats.Failed).
		Int("total", stats.Total).
		Msg("Transaction sync completed")

	return stats, nil
}

func (s *Syncer) archive(ctx context.Context, page notionapi.Page, txID string, dryRun bool, stats *Stats) {
	log := logger.FromContext(ctx).With().
		Str("transaction_id", txID).
		Str("page_id", string(page.ID)).
		Logger()

	if dryRun {
		log.Info().Msg("[DRY RUN] Would archive stale Notion page")
		stats.Archived++
		return
	}
	if err := s.notion.ArchivePage(ctx, string(page.ID)); err != nil {
		log.Warn().Err(err).Msg("Failed to archive stale Notion page")
		stats.Failed++
		return
	}
	log.Debug().Msg("Archived stale Notion page")
	stats.Archived++
}

func (s *Syncer) names(ctx context.Context, familyID string) (Names, error) {
	names := Names{
		Categories:    make(map[string]string),
		Subcategories: make(map[string]string),
	}
	cats, err := s.store.ListCategories(ctx, familyID)
	if err != nil {
		return names, fmt.Errorf("SyncTransactions: listing categories: %w", err)
	}
	for _, c := range cats {
		names.Categories[c.ID] = c.Name
	}
	subs, err := s.store.ListSubcategories(ctx, familyID)
	if err != nil {
		return names, fmt.Errorf("SyncTransactions: listing subcategories: %w", err)
	}
	for _, sc := range subs {
		names.Subcategories[sc.ID] = sc.Name
	}
	return names, nil
}

// queryAllNotionPages queries all pages from a Notion database and returns them.
// Handles pagination automatically.
func queryAllNotionPages(ctx context.Context, notionClient NotionService, databaseID string) ([]notionapi.Page, error) {
	var allPages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			PageSize: 100,
		}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := notionClient.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllNotionPages: %w", err)
		}

		allPages = append(allPages, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return allPages, nil
}
