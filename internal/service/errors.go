package service

import (
	"errors"

	"inventory-api/internal/repository"
)

// Domain errors. Services wrap these with fmt.Errorf("...: %w", ...) so
// handlers can classify via errors.Is while keeping the human-readable
// message intact. Any error not matching one of these maps to HTTP 500.
var (
	ErrValidation        = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidCoupon     = errors.New("invalid or inactive coupon")
	ErrAlreadyPaid       = errors.New("order already paid")
	ErrInvalidState      = errors.New("operation not valid for current order status")
	ErrAlreadyRefunded   = errors.New("transaction already refunded")

	// ErrBusy surfaces lost row-lock races from the unit-of-work layer.
	ErrBusy = repository.ErrLockNotAvailable
)
