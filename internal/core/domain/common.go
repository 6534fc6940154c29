package domain

import "github.com/shopspring/decimal"

func init() {
	// Balances and amounts travel as plain JSON numbers, the same shape the
	// remote documents store.
	decimal.MarshalJSONWithoutQuotes = true
}

// SystemTenantID is the pseudo company the SUPER_ADMIN user belongs to.
// No Company record exists for it.
const SystemTenantID = "SYSTEM"

// GlobalPartitionKey addresses every tenant partition at once. Only a
// SUPER_ADMIN session syncs against it.
const GlobalPartitionKey = "GLOBAL"
