package dto

import "github.com/SscSPs/ledger_sync/internal/core/domain"

// RegisterCompanyRequest defines the data needed to sign a new company up.
type RegisterCompanyRequest struct {
	CompanyName string `json:"companyName" validate:"required"`
	OwnerName   string `json:"ownerName" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required"`
	PIN         string `json:"pin" validate:"required,len=4,numeric"`
}

// RegistrationResult is what a registration created.
type RegistrationResult struct {
	Company domain.Company `json:"company"`
	Owner   domain.User    `json:"owner"`
	Account domain.Account `json:"account"`
}

// LoginRequest carries the credentials of a login attempt.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}
