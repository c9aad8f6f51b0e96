package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/family-finance/internal/domain"
)

// InsertAuditLog records an audit entry. It runs as DML so the call only
// returns once the row is durable; callers gate destructive work on it.
func (r *Repository) InsertAuditLog(ctx context.Context, entry *domain.AuditLogEntry) error {
	q := r.query(`
		INSERT INTO `+r.table(auditTable)+` (
			audit_id, user_id, action, entity_type, entity_id, old_data, created_ts
		)
		VALUES (
			@audit_id, @user_id, @action, @entity_type, @entity_id, PARSE_JSON(@old_data), @created_ts
		)
	`,
		bigquery.QueryParameter{Name: "audit_id", Value: entry.ID},
		bigquery.QueryParameter{Name: "user_id", Value: entry.UserID},
		bigquery.QueryParameter{Name: "action", Value: string(entry.Action)},
		bigquery.QueryParameter{Name: "entity_type", Value: entry.EntityType},
		bigquery.QueryParameter{Name: "entity_id", Value: entry.EntityID},
		bigquery.QueryParameter{Name: "old_data", Value: string(entry.OldData)},
		bigquery.QueryParameter{Name: "created_ts", Value: entry.CreatedAt},
	)

	if _, err := r.exec(ctx, "InsertAuditLog", q); err != nil {
		return err
	}
	return nil
}

// InsertUsageMetric appends a usage metric through the streaming inserter.
func (r *Repository) InsertUsageMetric(ctx context.Context, m *domain.UsageMetric) error {
	row := &UsageMetricRow{
		MetricID:  m.ID,
		UserID:    m.UserID,
		FamilyID:  m.FamilyID,
		Event:     m.Event,
		Payload:   string(m.Payload),
		CreatedTS: m.CreatedAt,
	}

	inserter := r.client.DatasetInProject(r.projectID, r.datasetID).Table(metricsTable).Inserter()
	if err := inserter.Put(ctx, row); err != nil {
		return fmt.Errorf("InsertUsageMetric: inserting row: %w", err)
	}
	return nil
}
