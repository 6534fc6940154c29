package domain

import (
	"maps"
	"slices"

	"github.com/shopspring/decimal"
)

// PricingRule adjusts a selling price by a percentage for a product tag.
type PricingRule struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Tag      string          `json:"tag"`
	Percent  decimal.Decimal `json:"percent"`
	IsActive bool            `json:"isActive"`
}

// Settings is per-installation configuration.
type Settings struct {
	RemoteEndpoint string        `json:"remoteEndpoint"`
	AutoSync       bool          `json:"autoSync"`
	Currency       string        `json:"currency"`
	PricingRules   []PricingRule `json:"pricingRules"`
}

// DefaultSettings is what a fresh installation starts with.
func DefaultSettings() Settings {
	return Settings{
		AutoSync:     true,
		Currency:     "USD",
		PricingRules: []PricingRule{},
	}
}

// Clone returns a copy that shares no slices with s.
func (s Settings) Clone() Settings {
	s.PricingRules = slices.Clone(s.PricingRules)
	return s
}

// Categories lists the category names available per transaction type.
type Categories map[string][]string

// DefaultCategories is the category set of a fresh installation.
func DefaultCategories() Categories {
	return Categories{
		string(Income):   {"Sales", "Services", "Other Income"},
		string(Expense):  {"Purchases", "Rent", "Salaries", "Utilities", "Other Expense"},
		string(Transfer): {"Transfer"},
	}
}

// Clone returns a deep copy.
func (c Categories) Clone() Categories {
	if c == nil {
		return nil
	}
	out := maps.Clone(c)
	for k, v := range out {
		out[k] = slices.Clone(v)
	}
	return out
}
