package entity

import "errors"

var (
	ErrLeadNotFound       = errors.New("lead not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrDuplicatePhone     = errors.New("phone number already exists")
	ErrAlreadyCalled      = errors.New("lead has already been called")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrRevisionConflict   = errors.New("lead was modified concurrently")
	ErrEmailAlreadyExists = errors.New("email already registered")
)
