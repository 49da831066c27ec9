package services

import (
	"errors"
	"fmt"
)

// --- Engine errors ---
var (
	ErrValidation         = errors.New("validation failed")
	ErrItemNotFound       = errors.New("inventory item not found")
	ErrLogNotFound        = errors.New("inventory log not found")
	ErrBookingNotFound    = errors.New("booking not found")
	ErrCostOfSaleNotFound = errors.New("cost of sale entry not found")
	ErrCostOfSaleExists   = errors.New("item is already configured as cost of sale")
	ErrCapacityExceeded   = errors.New("session capacity exceeded")
	ErrInvalidOperation   = errors.New("invalid operation")
	ErrCorruptAuditData   = errors.New("audit log entry is missing required snapshot data")
	ErrInsufficientStock  = errors.New("insufficient stock")
)

// CapacityExceededError carries the rejected capacity decision.
type CapacityExceededError struct {
	Result CapacityResult
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("%s: %d booked, %d requested, %d max (%d remaining)",
		ErrCapacityExceeded, e.Result.CurrentCapacity, e.Result.RequestedPax, e.Result.MaxCapacity, e.Result.SpotsRemaining)
}

func (e *CapacityExceededError) Unwrap() error {
	return ErrCapacityExceeded
}

func validationErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
