package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/family-finance/internal/store"
	"google.golang.org/api/iterator"
)

const (
	usersTable         = "users"
	familiesTable      = "families"
	membersTable       = "family_members"
	settingsTable      = "user_settings"
	categoriesTable    = "categories"
	subcategoriesTable = "subcategories"
	chatTable          = "chat_messages"
	transactionsTable  = "transactions"
	budgetsTable       = "budgets"
	goalsTable         = "goals"
	auditTable         = "audit_logs"
	metricsTable       = "usage_metrics"
	notificationsTable = "notifications"
	invitationsTable   = "invitations"

	dateFormat = "2006-01-02"
)

// Repository is the BigQuery implementation of store.Store. It holds a shared
// BigQuery client to avoid creating a new connection for each operation.
type Repository struct {
	client    *bigquery.Client
	projectID string
	datasetID string
}

// NewRepository creates a Repository for the given project and dataset.
func NewRepository(ctx context.Context, projectID, datasetID string) (*Repository, error) {
	if projectID == "" {
		return nil, fmt.Errorf("NewRepository: project ID is required")
	}
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewRepository: creating client: %w", err)
	}
	return NewRepositoryWithClient(client, projectID, datasetID), nil
}

// NewRepositoryWithClient wraps an existing client.
func NewRepositoryWithClient(client *bigquery.Client, projectID, datasetID string) *Repository {
	if datasetID == "" {
		datasetID = "finance"
	}
	return &Repository{client: client, projectID: projectID, datasetID: datasetID}
}

// Close closes the BigQuery client connection.
func (r *Repository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// table returns the fully qualified, backtick-quoted table name.
func (r *Repository) table(name string) string {
	return "`" + r.projectID + "." + r.datasetID + "." + name + "`"
}

// query builds a parameterised query.
func (r *Repository) query(sql string, params ...bigquery.QueryParameter) *bigquery.Query {
	q := r.client.Query(sql)
	q.Parameters = params
	return q
}

// exec runs a DML statement and waits for it to finish.
func (r *Repository) exec(ctx context.Context, op string, q *bigquery.Query) (*bigquery.JobStatus, error) {
	job, err := q.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: run query: %w", op, err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: wait for job: %w", op, err)
	}

	if err := status.Err(); err != nil {
		return nil, fmt.Errorf("%s: job error: %w", op, err)
	}

	return status, nil
}

// affectedRows extracts the DML row count from a finished job.
func affectedRows(status *bigquery.JobStatus) int64 {
	if status == nil || status.Statistics == nil {
		return 0
	}
	if qs, ok := status.Statistics.Details.(*bigquery.QueryStatistics); ok {
		return qs.NumDMLAffectedRows
	}
	return 0
}

// readRows runs q and scans every row into a new T.
func readRows[T any](ctx context.Context, op string, q *bigquery.Query) ([]*T, error) {
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: query read: %w", op, err)
	}

	var rows []*T
	for {
		var row T
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: iter next: %w", op, err)
		}
		rows = append(rows, &row)
	}

	return rows, nil
}

// readOne returns the first row of q or store.ErrNotFound.
func readOne[T any](ctx context.Context, op string, q *bigquery.Query) (*T, error) {
	rows, err := readRows[T](ctx, op, q)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, store.ErrNotFound
	}
	return rows[0], nil
}

// Ensure Repository implements store.Store.
var _ store.Store = (*Repository)(nil)
