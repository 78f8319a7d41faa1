package models

import "errors"

// Errors shared by every service; handlers map them onto HTTP statuses.
var (
	ErrValidation        = errors.New("validation failed")
	ErrInvalidAmount     = errors.New("amount must be greater than zero")
	ErrNotFound          = errors.New("record not found")
	ErrInvalidOperation  = errors.New("operation not supported for this goal type")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrConflict          = errors.New("record was modified concurrently")
	ErrUnauthorized      = errors.New("unauthorized")
)
