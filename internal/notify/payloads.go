package notify

import (
	"github.com/shopspring/decimal"
)

// TransactionAlert is sent when a transaction is registered.
type TransactionAlert struct {
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Date        string          `json:"date"`
}

// BudgetAlert is sent when spending in a category passes its limit.
type BudgetAlert struct {
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Spent    decimal.Decimal `json:"spent"`
	Limit    decimal.Decimal `json:"limit"`
}

// Over returns how much the limit was exceeded by.
func (b BudgetAlert) Over() decimal.Decimal { return b.Spent.Sub(b.Limit) }

// GoalAlert is sent when a goal is created.
type GoalAlert struct {
	Name     string          `json:"name"`
	Goal     string          `json:"goal"`
	Target   decimal.Decimal `json:"target"`
	Deadline string          `json:"deadline,omitempty"`
}

// FamilyAlert tells family members about a change in the family.
type FamilyAlert struct {
	Name       string `json:"name"`
	FamilyName string `json:"family_name"`
	Message    string `json:"message"`
}

// Invite asks someone to join a family.
type Invite struct {
	FamilyName  string `json:"family_name"`
	InviterName string `json:"inviter_name"`
	AcceptURL   string `json:"accept_url"`
	ExpiresAt   string `json:"expires_at"`
}

// PasswordChange confirms a password change.
type PasswordChange struct {
	Name string `json:"name"`
}

// Waitlist tells someone on the waitlist that their access is ready.
type Waitlist struct {
	Name string `json:"name"`
}

// AdminNewUser tells the administrator about a sign-up.
type AdminNewUser struct {
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
}
