package postgres

import (
	"context"
	"fmt"

	"github.com/dvloznov/family-finance/internal/domain"
)

func (r *Repository) InsertAuditLog(ctx context.Context, e *domain.AuditLogEntry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_logs (audit_id, user_id, action, entity_type, entity_id, old_data, created_ts)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7)`,
		e.ID, e.UserID, string(e.Action), e.EntityType, e.EntityID, string(e.OldData), e.CreatedAt)
	if err != nil {
		return fmt.Errorf("InsertAuditLog: %w", err)
	}
	return nil
}

func (r *Repository) InsertUsageMetric(ctx context.Context, m *domain.UsageMetric) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO usage_metrics (metric_id, user_id, family_id, event, payload, created_ts)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6)`,
		m.ID, m.UserID, m.FamilyID, m.Event, string(m.Payload), m.CreatedAt)
	if err != nil {
		return fmt.Errorf("InsertUsageMetric: %w", err)
	}
	return nil
}
