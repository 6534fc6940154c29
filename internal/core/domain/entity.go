package domain

import "github.com/shopspring/decimal"

// EntityType distinguishes customers from suppliers.
type EntityType string

const (
	EntityClient EntityType = "CLIENT"
	EntityVendor EntityType = "VENDOR"
)

// Entity is a counterparty. A positive balance is owed to the company
// (receivable), a negative one is owed by it (payable).
type Entity struct {
	ID        string          `json:"id"`
	CompanyID string          `json:"companyId"`
	Name      string          `json:"name"`
	Type      EntityType      `json:"type"`
	Phone     string          `json:"phone"`
	Email     string          `json:"email"`
	Address   string          `json:"address"`
	Balance   decimal.Decimal `json:"balance"`
}
