package domain

import "time"

// User is an authenticated account.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Family is the ownership scope of all financial data.
type Family struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

// MemberRole is a user's role inside a family.
type MemberRole string

const (
	MemberOwner  MemberRole = "owner"
	MemberAdult  MemberRole = "member"
	MemberViewer MemberRole = "viewer"
)

// FamilyMember links a user to a family.
type FamilyMember struct {
	FamilyID string     `json:"family_id"`
	UserID   string     `json:"user_id"`
	Role     MemberRole `json:"role"`
	JoinedAt time.Time  `json:"joined_at"`
}

// InvitationStatus tracks an invitation through acceptance.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationExpired  InvitationStatus = "expired"
)

// Invitation asks someone by email to join a family.
type Invitation struct {
	ID        string           `json:"id"`
	FamilyID  string           `json:"family_id"`
	InvitedBy string           `json:"invited_by"`
	Email     string           `json:"email"`
	Role      MemberRole       `json:"role"`
	Token     string           `json:"-"`
	Status    InvitationStatus `json:"status"`
	ExpiresAt time.Time        `json:"expires_at"`
	CreatedAt time.Time        `json:"created_at"`
}

// UserSettings holds per-user preferences read by the assistant.
type UserSettings struct {
	UserID               string `json:"user_id"`
	AssistantPersonality string `json:"assistant_personality"`
	TransactionAlerts    bool   `json:"transaction_alerts"`
	BudgetAlerts         bool   `json:"budget_alerts"`
	GoalAlerts           bool   `json:"goal_alerts"`
	FamilyAlerts         bool   `json:"family_alerts"`
}

// DefaultUserSettings returns the settings used when a user has none stored.
func DefaultUserSettings(userID string) *UserSettings {
	return &UserSettings{
		UserID:               userID,
		AssistantPersonality: "padrao",
	}
}

// Notification is an in-app message shown to a user.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	FamilyID  string    `json:"family_id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
