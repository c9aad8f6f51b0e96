package bigquery

import (
	"context"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/family-finance/internal/domain"
	"github.com/dvloznov/family-finance/internal/store"
)

// InsertNotification stores an in-app notification.
func (r *Repository) InsertNotification(ctx context.Context, n *domain.Notification) error {
	q := r.query(`
		INSERT INTO `+r.table(notificationsTable)+` (
			notification_id, user_id, family_id, type, title, message, is_read, created_ts
		)
		VALUES (@notification_id, @user_id, @family_id, @type, @title, @message, FALSE, @created_ts)
	`,
		bigquery.QueryParameter{Name: "notification_id", Value: n.ID},
		bigquery.QueryParameter{Name: "user_id", Value: n.UserID},
		bigquery.QueryParameter{Name: "family_id", Value: n.FamilyID},
		bigquery.QueryParameter{Name: "type", Value: n.Type},
		bigquery.QueryParameter{Name: "title", Value: n.Title},
		bigquery.QueryParameter{Name: "message", Value: n.Message},
		bigquery.QueryParameter{Name: "created_ts", Value: n.CreatedAt},
	)

	if _, err := r.exec(ctx, "InsertNotification", q); err != nil {
		return err
	}
	return nil
}

// ListNotifications lists a user's notifications, newest first.
func (r *Repository) ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]*domain.Notification, error) {
	sql := `
		SELECT notification_id, user_id, family_id, type, title, message, is_read, created_ts
		FROM ` + r.table(notificationsTable) + `
		WHERE user_id = @user_id`
	if unreadOnly {
		sql += "\n\t\t  AND is_read = FALSE"
	}
	sql += "\n\t\tORDER BY created_ts DESC\n\t\tLIMIT 100"

	rows, err := readRows[NotificationRow](ctx, "ListNotifications",
		r.query(sql, bigquery.QueryParameter{Name: "user_id", Value: userID}))
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Notification, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// MarkNotificationRead flags a notification as read.
func (r *Repository) MarkNotificationRead(ctx context.Context, userID, notificationID string) error {
	q := r.query(`
		UPDATE `+r.table(notificationsTable)+`
		SET is_read = TRUE
		WHERE notification_id = @notification_id
		  AND user_id = @user_id
	`,
		bigquery.QueryParameter{Name: "notification_id", Value: notificationID},
		bigquery.QueryParameter{Name: "user_id", Value: userID},
	)

	status, err := r.exec(ctx, "MarkNotificationRead", q)
	if err != nil {
		return err
	}
	if affectedRows(status) == 0 {
		return store.ErrNotFound
	}
	return nil
}

// InsertInvitation stores a family invitation.
func (r *Repository) InsertInvitation(ctx context.Context, inv *domain.Invitation) error {
	q := r.query(`
		INSERT INTO `+r.table(invitationsTable)+` (
			invitation_id, family_id, invited_by, email, role, token, status, expires_ts, created_ts
		)
		VALUES (@invitation_id, @family_id, @invited_by, @email, @role, @token, @status, @expires_ts, @created_ts)
	`,
		bigquery.QueryParameter{Name: "invitation_id", Value: inv.ID},
		bigquery.QueryParameter{Name: "family_id", Value: inv.FamilyID},
		bigquery.QueryParameter{Name: "invited_by", Value: inv.InvitedBy},
		bigquery.QueryParameter{Name: "email", Value: inv.Email},
		bigquery.QueryParameter{Name: "role", Value: string(inv.Role)},
		bigquery.QueryParameter{Name: "token", Value: inv.Token},
		bigquery.QueryParameter{Name: "status", Value: string(inv.Status)},
		bigquery.QueryParameter{Name: "expires_ts", Value: inv.ExpiresAt},
		bigquery.QueryParameter{Name: "created_ts", Value: inv.CreatedAt},
	)

	if _, err := r.exec(ctx, "InsertInvitation", q); err != nil {
		return err
	}
	return nil
}

const invitationColumns = `invitation_id, family_id, invited_by, email, role, token, status, expires_ts, created_ts`

// GetInvitationByToken retrieves an invitation by its secret token.
func (r *Repository) GetInvitationByToken(ctx context.Context, token string) (*domain.Invitation, error) {
	q := r.query(`
		SELECT `+invitationColumns+`
		FROM `+r.table(invitationsTable)+`
		WHERE token = @token
		LIMIT 1
	`, bigquery.QueryParameter{Name: "token", Value: token})

	row, err := readOne[InvitationRow](ctx, "GetInvitationByToken", q)
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// ListPendingInvitations lists a family's pending invitations.
func (r *Repository) ListPendingInvitations(ctx context.Context, familyID string) ([]*domain.Invitation, error) {
	q := r.query(`
		SELECT `+invitationColumns+`
		FROM `+r.table(invitationsTable)+`
		WHERE family_id = @family_id
		  AND status = 'pending'
		ORDER BY created_ts DESC
	`, bigquery.QueryParameter{Name: "family_id", Value: familyID})

	rows, err := readRows[InvitationRow](ctx, "ListPendingInvitations", q)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Invitation, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// UpdateInvitationStatus moves an invitation to a new status.
func (r *Repository) UpdateInvitationStatus(ctx context.Context, invitationID string, status domain.InvitationStatus) error {
	q := r.query(`
		UPDATE `+r.table(invitationsTable)+`
		SET status = @status
		WHERE invitation_id = @invitation_id
	`,
		bigquery.QueryParameter{Name: "status", Value: string(status)},
		bigquery.QueryParameter{Name: "invitation_id", Value: invitationID},
	)

	js, err := r.exec(ctx, "UpdateInvitationStatus", q)
	if err != nil {
		return err
	}
	if affectedRows(js) == 0 {
		return store.ErrNotFound
	}
	return nil
}
