package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrEmailTaken is returned by registration when the e-mail is already used by any user,
// in any company. It wraps ErrDuplicate.
var ErrEmailTaken = fmt.Errorf("%w: email already registered", ErrDuplicate)

// ErrInvalidCredentials indicates a wrong e-mail/password pair or a wrong PIN.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrAccountNotActive indicates a user that is pending approval or was rejected.
var ErrAccountNotActive = errors.New("account is not active")

// ErrNoSession indicates an operation that needs a logged-in user.
var ErrNoSession = errors.New("no active session")

// AppError carries an HTTP-ish status code together with the underlying error.
type AppError struct {
	Code    int
	Message string
	Err     error
}

// NewAppError creates an AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}
