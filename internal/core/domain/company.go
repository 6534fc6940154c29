package domain

import "time"

// CompanyStatus is the lifecycle state of a tenant.
type CompanyStatus string

const (
	// CompanySuspended is the state right after registration, until approval.
	CompanySuspended CompanyStatus = "SUSPENDED"
	CompanyActive    CompanyStatus = "ACTIVE"
)

// Company is a tenant. Every business record carries the id of its company.
type Company struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	RegisteredAt time.Time     `json:"registeredAt"`
	Status       CompanyStatus `json:"status"`
}
