package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a transaction.
type TransactionType string

const (
	Income   TransactionType = "INCOME"
	Expense  TransactionType = "EXPENSE"
	Transfer TransactionType = "TRANSFER"
)

// PaymentStatus tells whether money actually moved.
type PaymentStatus string

const (
	Paid   PaymentStatus = "PAID"
	Credit PaymentStatus = "CREDIT"
)

// SyncStatus marks whether a record has been pushed since its last change.
type SyncStatus string

const (
	SyncPending SyncStatus = "PENDING"
	SyncSynced  SyncStatus = "SYNCED"
)

// Transaction is a single bookkeeping entry.
type Transaction struct {
	ID            string          `json:"id"`
	CompanyID     string          `json:"companyId"`
	Amount        decimal.Decimal `json:"amount"`
	Type          TransactionType `json:"type"`
	Category      string          `json:"category"`
	Date          time.Time       `json:"date"`
	Note          string          `json:"note"`
	AccountID     string          `json:"accountId"`
	ToAccountID   *string         `json:"toAccountId,omitempty"` // TRANSFER only
	EntityID      *string         `json:"entityId,omitempty"`
	ProductID     *string         `json:"productId,omitempty"`
	Quantity      *int            `json:"quantity,omitempty"`
	PaymentStatus PaymentStatus   `json:"paymentStatus"`
	CreatedBy     string          `json:"createdBy"`
	SyncStatus    SyncStatus      `json:"syncStatus"`
	Version       int             `json:"version"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Validate checks the internal consistency of the transaction.
func (t Transaction) Validate() error {
	if !t.Amount.IsPositive() {
		return fmt.Errorf("amount must be positive")
	}
	switch t.Type {
	case Income, Expense:
	case Transfer:
		if t.ToAccountID == nil || *t.ToAccountID == "" {
			return fmt.Errorf("destination account is required for transfers")
		}
		if *t.ToAccountID == t.AccountID {
			return fmt.Errorf("transfer source and destination must differ")
		}
	default:
		return fmt.Errorf("unknown transaction type %q", t.Type)
	}
	if t.PaymentStatus != Paid && t.PaymentStatus != Credit {
		return fmt.Errorf("unknown payment status %q", t.PaymentStatus)
	}
	if t.Quantity != nil && *t.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive")
	}
	return nil
}
