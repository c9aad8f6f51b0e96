// Package store defines the persistence gateway used by the assistant and the
// API. Backends live in internal/store/memory, internal/infra/bigquery and
// internal/infra/postgres.
package store

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/family-finance/internal/domain"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned by single-row lookups when no row matches.
var ErrNotFound = errors.New("store: not found")

// UserStore reads users, families and their settings.
type UserStore interface {
	// GetUser retrieves a user by ID.
	GetUser(ctx context.Context, userID string) (*domain.User, error)

	// FamilyIDForUser returns the family the user belongs to, or ErrNotFound.
	FamilyIDForUser(ctx context.Context, userID string) (string, error)

	// GetFamily retrieves a family by ID.
	GetFamily(ctx context.Context, familyID string) (*domain.Family, error)

	// ListFamilyMembers lists the users of a family.
	ListFamilyMembers(ctx context.Context, familyID string) ([]*domain.FamilyMember, error)

	// AddFamilyMember links a user to a family.
	AddFamilyMember(ctx context.Context, member *domain.FamilyMember) error

	// GetUserSettings returns the user's settings, or ErrNotFound if none are stored.
	GetUserSettings(ctx context.Context, userID string) (*domain.UserSettings, error)
}

// CategoryStore reads the category taxonomy.
type CategoryStore interface {
	// ListCategories returns the global default categories plus the family's own.
	ListCategories(ctx context.Context, familyID string) ([]*domain.Category, error)

	// ListSubcategories returns the subcategories visible to the family.
	ListSubcategories(ctx context.Context, familyID string) ([]*domain.Subcategory, error)
}

// ChatFilter scopes a chat history read. ConversationID wins over ThreadID.
type ChatFilter struct {
	FamilyID       string
	ConversationID string
	ThreadID       string
	Limit          int
}

// ChatStore persists the chat log.
type ChatStore interface {
	// ListChatMessages returns messages newest-first.
	ListChatMessages(ctx context.Context, filter ChatFilter) ([]*domain.ChatMessage, error)

	// InsertChatMessages appends messages in the given order.
	InsertChatMessages(ctx context.Context, msgs ...*domain.ChatMessage) error
}

// TransactionFilter composes the predicates of a transaction query. Zero
// values are ignored.
type TransactionFilter struct {
	FamilyID            string
	Type                domain.TransactionType
	CategoryIDs         []string
	StartDate           *civil.Date
	EndDate             *civil.Date
	Date                *civil.Date
	Amount              *decimal.Decimal
	Description         string // exact match
	DescriptionContains string // case-insensitive substring
	Source              domain.TransactionSource
	CreatedSince        *time.Time
	Limit               int
}

// TransactionStore persists transactions.
type TransactionStore interface {
	// InsertTransaction stores a new transaction.
	InsertTransaction(ctx context.Context, tx *domain.Transaction) error

	// SearchTransactions returns transactions matching the filter, newest date first.
	SearchTransactions(ctx context.Context, filter TransactionFilter) ([]*domain.Transaction, error)

	// DeleteTransaction removes a transaction of the family.
	DeleteTransaction(ctx context.Context, familyID, transactionID string) error
}

// BudgetStore persists budgets.
type BudgetStore interface {
	// UpsertBudget inserts or updates the budget keyed by
	// (family_id, category_id, period, start_date) and returns the stored row.
	UpsertBudget(ctx context.Context, b *domain.Budget) (*domain.Budget, error)

	// FindBudgetForCategory returns the most recent budget of the category, or ErrNotFound.
	FindBudgetForCategory(ctx context.Context, familyID, categoryID string) (*domain.Budget, error)

	// ListBudgets lists the family's budgets.
	ListBudgets(ctx context.Context, familyID string) ([]*domain.Budget, error)
}

// GoalStore persists goals.
type GoalStore interface {
	InsertGoal(ctx context.Context, g *domain.Goal) error
	ListGoals(ctx context.Context, familyID string) ([]*domain.Goal, error)
}

// AuditStore persists audit log entries.
type AuditStore interface {
	InsertAuditLog(ctx context.Context, entry *domain.AuditLogEntry) error
}

// MetricStore persists usage metrics.
type MetricStore interface {
	InsertUsageMetric(ctx context.Context, m *domain.UsageMetric) error
}

// NotificationStore persists in-app notifications.
type NotificationStore interface {
	InsertNotification(ctx context.Context, n *domain.Notification) error
	ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]*domain.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, notificationID string) error
}

// InvitationStore persists family invitations.
type InvitationStore interface {
	InsertInvitation(ctx context.Context, inv *domain.Invitation) error
	GetInvitationByToken(ctx context.Context, token string) (*domain.Invitation, error)
	ListPendingInvitations(ctx context.Context, familyID string) ([]*domain.Invitation, error)
	UpdateInvitationStatus(ctx context.Context, invitationID string, status domain.InvitationStatus) error
}

// Store is the complete persistence gateway.
type Store interface {
	UserStore
	CategoryStore
	ChatStore
	TransactionStore
	BudgetStore
	GoalStore
	AuditStore
	MetricStore
	NotificationStore
	InvitationStore

	// Close releases backend resources.
	Close() error
}
