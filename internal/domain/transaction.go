package domain

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a transaction. Amounts are always stored
// positive; the type carries the sign.
type TransactionType string

const (
	TransactionExpense TransactionType = "expense"
	TransactionIncome  TransactionType = "income"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	return t == TransactionExpense || t == TransactionIncome
}

// TransactionSource records how a transaction entered the system.
type TransactionSource string

const (
	SourceManual TransactionSource = "manual"
	SourceChat   TransactionSource = "chat"
)

// Transaction is a single income or expense owned by a family.
type Transaction struct {
	ID            string            `json:"id"`
	FamilyID      string            `json:"family_id"`
	UserID        string            `json:"user_id"`
	Type          TransactionType   `json:"type"`
	Amount        decimal.Decimal   `json:"amount"`
	Description   string            `json:"description"`
	CategoryID    string            `json:"category_id"`
	SubcategoryID string            `json:"subcategory_id,omitempty"`
	Date          civil.Date        `json:"date"`
	Source        TransactionSource `json:"source"`
	CreatedAt     time.Time         `json:"created_at"`
}

// Signed returns the amount with the sign implied by the transaction type.
func (t *Transaction) Signed() decimal.Decimal {
	if t.Type == TransactionExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}
