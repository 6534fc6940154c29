package dto

import (
	"time"

	"github.com/SscSPs/ledger_sync/internal/core/domain"
	"github.com/shopspring/decimal"
)

// PostTransactionRequest defines the data needed to post a transaction.
// CompanyID and CreatedBy default to the session user.
type PostTransactionRequest struct {
	CompanyID     string                 `json:"companyId"`
	Amount        decimal.Decimal        `json:"amount"`
	Type          domain.TransactionType `json:"type" validate:"required,oneof=INCOME EXPENSE TRANSFER"`
	Category      string                 `json:"category"`
	Date          time.Time              `json:"date"`
	Note          string                 `json:"note"`
	AccountID     string                 `json:"accountId" validate:"required"`
	ToAccountID   *string                `json:"toAccountId"`
	EntityID      *string                `json:"entityId"`
	ProductID     *string                `json:"productId"`
	Quantity      *int                   `json:"quantity"`
	PaymentStatus domain.PaymentStatus   `json:"paymentStatus" validate:"required,oneof=PAID CREDIT"`
}
