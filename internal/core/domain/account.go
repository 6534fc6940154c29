package domain

import (
	"github.com/shopspring/decimal"
)

// AccountType defines where the money of an account is held.
type AccountType string

const (
	AccountCash   AccountType = "CASH"
	AccountBank   AccountType = "BANK"
	AccountCredit AccountType = "CREDIT"
)

// Account is a money holder of a company. Balance only moves when a PAID
// transaction is posted against it.
type Account struct {
	ID        string          `json:"id"`
	CompanyID string          `json:"companyId"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
	Color     string          `json:"color"`
	Type      AccountType     `json:"type"`
}
