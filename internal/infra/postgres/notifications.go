package postgres

import (
	"context"
	"fmt"

	"github.com/dvloznov/family-finance/internal/domain"
	"github.com/dvloznov/family-finance/internal/store"
	"github.com/jackc/pgx/v5"
)

func (r *Repository) InsertNotification(ctx context.Context, n *domain.Notification) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notifications (notification_id, user_id, family_id, type, title, message, is_read, created_ts)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7)`,
		n.ID, n.UserID, n.FamilyID, n.Type, n.Title, n.Message, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("InsertNotification: %w", err)
	}
	return nil
}

func (r *Repository) ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]*domain.Notification, error) {
	sql := `
		SELECT notification_id, user_id, family_id, type, title, message, is_read, created_ts
		FROM notifications
		WHERE user_id = $1`
	if unreadOnly {
		sql += " AND NOT is_read"
	}
	sql += " ORDER BY created_ts DESC LIMIT 100"

	rows, err := r.pool.Query(ctx, sql, userID)
	if err != nil {
		return nil, fmt.Errorf("ListNotifications: query: %w", err)
	}
	defer rows.Close()

	var out []*domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.FamilyID, &n.Type, &n.Title, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("ListNotifications: scan: %w", err)
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}

func (r *Repository) MarkNotificationRead(ctx context.Context, userID, notificationID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE notification_id = $1 AND user_id = $2`,
		notificationID, userID)
	if err != nil {
		return fmt.Errorf("MarkNotificationRead: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

const invitationColumns = `invitation_id, family_id, invited_by, email, role, token, status, expires_ts, created_ts`

func (r *Repository) InsertInvitation(ctx context.Context, inv *domain.Invitation) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO invitations (`+invitationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		inv.ID, inv.FamilyID, inv.InvitedBy, inv.Email, string(inv.Role), inv.Token,
		string(inv.Status), inv.ExpiresAt, inv.CreatedAt)
	if err != nil {
		return fmt.Errorf("InsertInvitation: %w", err)
	}
	return nil
}

func (r *Repository) GetInvitationByToken(ctx context.Context, token string) (*domain.Invitation, error) {
	inv, err := scanInvitation(r.pool.QueryRow(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE token = $1`, token))
	if err != nil {
		return nil, notFound("GetInvitationByToken", err)
	}
	return inv, nil
}

func (r *Repository) ListPendingInvitations(ctx context.Context, familyID string) ([]*domain.Invitation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+invitationColumns+`
		FROM invitations
		WHERE family_id = $1 AND status = 'pending'
		ORDER BY created_ts DESC`, familyID)
	if err != nil {
		return nil, fmt.Errorf("ListPendingInvitations: query: %w", err)
	}
	defer rows.Close()

	var out []*domain.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, fmt.Errorf("ListPendingInvitations: scan: %w", err)
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateInvitationStatus(ctx context.Context, invitationID string, status domain.InvitationStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE invitations SET status = $1 WHERE invitation_id = $2`, string(status), invitationID)
	if err != nil {
		return fmt.Errorf("UpdateInvitationStatus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func scanInvitation(row pgx.Row) (*domain.Invitation, error) {
	var inv domain.Invitation
	var role, status string
	if err := row.Scan(&inv.ID, &inv.FamilyID, &inv.InvitedBy, &inv.Email, &role, &inv.Token,
		&status, &inv.ExpiresAt, &inv.CreatedAt); err != nil {
		return nil, err
	}
	inv.Role = domain.MemberRole(role)
	inv.Status = domain.InvitationStatus(status)
	return &inv, nil
}
