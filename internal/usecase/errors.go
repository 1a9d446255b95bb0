package usecase

import (
	"errors"
	"fmt"

	"github.com/xavierca1/leadflow/internal/entity"
)

const (
	CodeNotFound          = "NOT_FOUND"
	CodeDuplicatePhone    = "DUPLICATE_PHONE"
	CodeAlreadyCalled     = "ALREADY_CALLED"
	CodeInvalidInput      = "INVALID_INPUT"
	CodePermissionDenied  = "PERMISSION_DENIED"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeConflict          = "CONFLICT"

	CodeStorageError  = "STORAGE_ERROR"
	CodeInternalError = "INTERNAL_ERROR"
)

type DomainError struct {
	Code    string
	Message string
	// Fields lists per-field problems for INVALID_INPUT.
	Fields []ValidationError
	Err    error
}

func (e *DomainError) Error() string {
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

type TechnicalError struct {
	Code    string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *TechnicalError) Unwrap() error {
	return e.Err
}

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}

// ErrorCode returns the code carried by err, or INTERNAL_ERROR for errors
// that did not come out of this package.
func ErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	var te *TechnicalError
	if errors.As(err, &te) {
		return te.Code
	}
	return CodeInternalError
}

func permissionDenied(msg string) *DomainError {
	return &DomainError{Code: CodePermissionDenied, Message: msg}
}

func invalidInput(msg string) *DomainError {
	return &DomainError{Code: CodeInvalidInput, Message: msg}
}

func invalidTransition(err error) *DomainError {
	return &DomainError{Code: CodeInvalidTransition, Message: err.Error(), Err: err}
}

// translateError maps repository and entity errors onto the error kinds
// callers see. Unknown errors become a TechnicalError.
func translateError(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsDomainError(err) || IsTechnicalError(err) {
		return err
	}

	switch {
	case errors.Is(err, entity.ErrLeadNotFound):
		return &DomainError{Code: CodeNotFound, Message: "lead not found", Err: err}
	case errors.Is(err, entity.ErrUserNotFound):
		return &DomainError{Code: CodeNotFound, Message: "user not found", Err: err}
	case errors.Is(err, entity.ErrDuplicatePhone):
		return &DomainError{Code: CodeDuplicatePhone, Message: "phone number already exists", Err: err}
	case errors.Is(err, entity.ErrAlreadyCalled):
		return &DomainError{Code: CodeAlreadyCalled, Message: "lead has already been called", Err: err}
	case errors.Is(err, entity.ErrInvalidTransition):
		return invalidTransition(err)
	case errors.Is(err, entity.ErrRevisionConflict):
		return &DomainError{Code: CodeConflict, Message: "lead was modified by another request, reload and try again", Err: err}
	case errors.Is(err, entity.ErrEmailAlreadyExists):
		return &DomainError{Code: CodeConflict, Message: "email already registered", Err: err}
	}

	return &TechnicalError{Code: CodeStorageError, Message: op + " failed", Err: err}
}
