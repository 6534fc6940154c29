package domain

import "github.com/shopspring/decimal"

// Product is a stock item of a company.
type Product struct {
	ID            string          `json:"id"`
	CompanyID     string          `json:"companyId"`
	Name          string          `json:"name"`
	SKU           string          `json:"sku"`
	Tags          []string        `json:"tags"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
	SellingPrice  decimal.Decimal `json:"sellingPrice"`
	Stock         int             `json:"stock"`
	ReorderLevel  int             `json:"reorderLevel"`
}

// NeedsReorder reports whether stock fell to or below the reorder threshold.
func (p Product) NeedsReorder() bool {
	return p.Stock <= p.ReorderLevel
}
