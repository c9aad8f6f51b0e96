package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/family-finance/internal/domain"
	"github.com/shopspring/decimal"
)

// TransactionRow represents a transaction record in BigQuery.
type TransactionRow struct {
	TransactionID string              `bigquery:"transaction_id"`
	FamilyID      string              `bigquery:"family_id"`
	UserID        string              `bigquery:"user_id"`
	Type          string              `bigquery:"type"`
	Amount        *big.Rat            `bigquery:"amount"` // NUMERIC, always positive
	Description   string              `bigquery:"description"`
	CategoryID    string              `bigquery:"category_id"`
	SubcategoryID bigquery.NullString `bigquery:"subcategory_id"`
	Date          civil.Date          `bigquery:"date"`
	Source        string              `bigquery:"source"`
	CreatedTS     time.Time           `bigquery:"created_ts"`
}

// CategoryRow represents a category record. FamilyID is NULL for global defaults.
type CategoryRow struct {
	CategoryID string              `bigquery:"category_id"`
	Name       string              `bigquery:"name"`
	Type       string              `bigquery:"type"`
	FamilyID   bigquery.NullString `bigquery:"family_id"`
	Icon       bigquery.NullString `bigquery:"icon"`
}

// SubcategoryRow represents a subcategory record.
type SubcategoryRow struct {
	SubcategoryID string              `bigquery:"subcategory_id"`
	CategoryID    string              `bigquery:"category_id"`
	Name          string              `bigquery:"name"`
	FamilyID      bigquery.NullString `bigquery:"family_id"`
}

// ChatMessageRow represents a chat message record.
type ChatMessageRow struct {
	MessageID      string              `bigquery:"message_id"`
	FamilyID       string              `bigquery:"family_id"`
	UserID         string              `bigquery:"user_id"`
	ConversationID bigquery.NullString `bigquery:"conversation_id"`
	ThreadID       bigquery.NullString `bigquery:"thread_id"`
	Role           string              `bigquery:"role"`
	Content        string              `bigquery:"content"`
	CreatedTS      time.Time           `bigquery:"created_ts"`
}

// BudgetRow represents a budget record.
type BudgetRow struct {
	BudgetID    string     `bigquery:"budget_id"`
	FamilyID    string     `bigquery:"family_id"`
	CategoryID  string     `bigquery:"category_id"`
	LimitAmount *big.Rat   `bigquery:"limit_amount"`
	Period      string     `bigquery:"period"`
	StartDate   civil.Date `bigquery:"start_date"`
	EndDate     civil.Date `bigquery:"end_date"`
	CreatedTS   time.Time  `bigquery:"created_ts"`
	UpdatedTS   time.Time  `bigquery:"updated_ts"`
}

// GoalRow represents a goal record.
type GoalRow struct {
	GoalID        string              `bigquery:"goal_id"`
	FamilyID      string              `bigquery:"family_id"`
	Name          string              `bigquery:"name"`
	TargetAmount  *big.Rat            `bigquery:"target_amount"`
	CurrentAmount *big.Rat            `bigquery:"current_amount"`
	Deadline      bigquery.NullDate   `bigquery:"deadline"`
	Category      bigquery.NullString `bigquery:"category"`
	Status        string              `bigquery:"status"`
	CreatedTS     time.Time           `bigquery:"created_ts"`
}

// AuditLogRow represents an audit log record. OldData holds the JSON snapshot.
type AuditLogRow struct {
	AuditID    string    `bigquery:"audit_id"`
	UserID     string    `bigquery:"user_id"`
	Action     string    `bigquery:"action"`
	EntityType string    `bigquery:"entity_type"`
	EntityID   string    `bigquery:"entity_id"`
	OldData    string    `bigquery:"old_data"`
	CreatedTS  time.Time `bigquery:"created_ts"`
}

// UsageMetricRow represents a usage metric record.
type UsageMetricRow struct {
	MetricID  string    `bigquery:"metric_id"`
	UserID    string    `bigquery:"user_id"`
	FamilyID  string    `bigquery:"family_id"`
	Event     string    `bigquery:"event"`
	Payload   string    `bigquery:"payload"`
	CreatedTS time.Time `bigquery:"created_ts"`
}

// NotificationRow represents an in-app notification record.
type NotificationRow struct {
	NotificationID string    `bigquery:"notification_id"`
	UserID         string    `bigquery:"user_id"`
	FamilyID       string    `bigquery:"family_id"`
	Type           string    `bigquery:"type"`
	Title          string    `bigquery:"title"`
	Message        string    `bigquery:"message"`
	IsRead         bool      `bigquery:"is_read"`
	CreatedTS      time.Time `bigquery:"created_ts"`
}

// InvitationRow represents a family invitation record.
type InvitationRow struct {
	InvitationID string    `bigquery:"invitation_id"`
	FamilyID     string    `bigquery:"family_id"`
	InvitedBy    string    `bigquery:"invited_by"`
	Email        string    `bigquery:"email"`
	Role         string    `bigquery:"role"`
	Token        string    `bigquery:"token"`
	Status       string    `bigquery:"status"`
	ExpiresTS    time.Time `bigquery:"expires_ts"`
	CreatedTS    time.Time `bigquery:"created_ts"`
}

// ratToDecimal converts a NUMERIC column value. BigQuery NUMERIC has 9 digits of scale.
func ratToDecimal(r *big.Rat) decimal.Decimal {
	if r == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(r.FloatString(9))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}

func (row *TransactionRow) toDomain() *domain.Transaction {
	return &domain.Transaction{
		ID:            row.TransactionID,
		FamilyID:      row.FamilyID,
		UserID:        row.UserID,
		Type:          domain.TransactionType(row.Type),
		Amount:        ratToDecimal(row.Amount),
		Description:   row.Description,
		CategoryID:    row.CategoryID,
		SubcategoryID: row.SubcategoryID.StringVal,
		Date:          row.Date,
		Source:        domain.TransactionSource(row.Source),
		CreatedAt:     row.CreatedTS,
	}
}

func (row *CategoryRow) toDomain() *domain.Category {
	return &domain.Category{
		ID:       row.CategoryID,
		Name:     row.Name,
		Type:     domain.TransactionType(row.Type),
		FamilyID: row.FamilyID.StringVal,
		Icon:     row.Icon.StringVal,
	}
}

func (row *SubcategoryRow) toDomain() *domain.Subcategory {
	return &domain.Subcategory{
		ID:         row.SubcategoryID,
		CategoryID: row.CategoryID,
		Name:       row.Name,
		FamilyID:   row.FamilyID.StringVal,
	}
}

func chatRowFromDomain(m *domain.ChatMessage) *ChatMessageRow {
	return &ChatMessageRow{
		MessageID:      m.ID,
		FamilyID:       m.FamilyID,
		UserID:         m.UserID,
		ConversationID: nullString(m.ConversationID),
		ThreadID:       nullString(m.ThreadID),
		Role:           string(m.Role),
		Content:        m.Content,
		CreatedTS:      m.CreatedAt,
	}
}

func (row *ChatMessageRow) toDomain() *domain.ChatMessage {
	return &domain.ChatMessage{
		ID:             row.MessageID,
		FamilyID:       row.FamilyID,
		UserID:         row.UserID,
		ConversationID: row.ConversationID.StringVal,
		ThreadID:       row.ThreadID.StringVal,
		Role:           domain.ChatRole(row.Role),
		Content:        row.Content,
		CreatedAt:      row.CreatedTS,
	}
}

func (row *BudgetRow) toDomain() *domain.Budget {
	return &domain.Budget{
		ID:          row.BudgetID,
		FamilyID:    row.FamilyID,
		CategoryID:  row.CategoryID,
		LimitAmount: ratToDecimal(row.LimitAmount),
		Period:      domain.BudgetPeriod(row.Period),
		StartDate:   row.StartDate,
		EndDate:     row.EndDate,
		CreatedAt:   row.CreatedTS,
		UpdatedAt:   row.UpdatedTS,
	}
}

func (row *GoalRow) toDomain() *domain.Goal {
	g := &domain.Goal{
		ID:            row.GoalID,
		FamilyID:      row.FamilyID,
		Name:          row.Name,
		TargetAmount:  ratToDecimal(row.TargetAmount),
		CurrentAmount: ratToDecimal(row.CurrentAmount),
		Category:      row.Category.StringVal,
		Status:        domain.GoalStatus(row.Status),
		CreatedAt:     row.CreatedTS,
	}
	if row.Deadline.Valid {
		d := row.Deadline.Date
		g.Deadline = &d
	}
	return g
}

func (row *NotificationRow) toDomain() *domain.Notification {
	return &domain.Notification{
		ID:        row.NotificationID,
		UserID:    row.UserID,
		FamilyID:  row.FamilyID,
		Type:      row.Type,
		Title:     row.Title,
		Message:   row.Message,
		Read:      row.IsRead,
		CreatedAt: row.CreatedTS,
	}
}

func (row *InvitationRow) toDomain() *domain.Invitation {
	return &domain.Invitation{
		ID:        row.InvitationID,
		FamilyID:  row.FamilyID,
		InvitedBy: row.InvitedBy,
		Email:     row.Email,
		Role:      domain.MemberRole(row.Role),
		Token:     row.Token,
		Status:    domain.InvitationStatus(row.Status),
		ExpiresAt: row.ExpiresTS,
		CreatedAt: row.CreatedTS,
	}
}
