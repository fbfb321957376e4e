/*
errors.go - Centralized error types for the calculation core

PURPOSE:
  All validation errors raised by the pure components in one place.
  These errors are client-detected: they are caught at the form boundary,
  shown inline, and never reach the network layer.

ERROR CATEGORIES:
  1. Unit errors       - Unknown pricing units, bad conversion factors
  2. Weight errors     - Negative inputs, tare exceeding gross
  3. Draft errors      - Missing required selections

USAGE:
  Callers branch with errors.Is():

    if errors.Is(err, trade.ErrTareExceedsGross) {
        // highlight the tare field
    }

SEE ALSO:
  - backend/errors.go: Network and server rejection errors
*/
package trade

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrUnknownUnit is returned when a unit is neither the base unit nor
	// one of the commodity's allowed pricing units.
	ErrUnknownUnit = errors.New("unknown unit for commodity")

	// ErrTareExceedsGross is returned when total tare is greater than or
	// equal to a positive gross weight. Physically impossible; the input is
	// rejected, never clamped.
	ErrTareExceedsGross = errors.New("total tare exceeds gross weight")

	// ErrInvalidConversionFactor is returned when a conversion factor is
	// zero or negative.
	ErrInvalidConversionFactor = errors.New("conversion factor must be positive")

	// ErrNegativeQuantity is returned for negative quantity inputs
	// (gross weight, bag count, tare, net quantity).
	ErrNegativeQuantity = errors.New("quantity must not be negative")

	// ErrNegativePrice is returned for negative price inputs.
	ErrNegativePrice = errors.New("price must not be negative")

	// ErrMissingCommodity is returned when a draft operation requires a
	// commodity selection that hasn't been made.
	ErrMissingCommodity = errors.New("no commodity selected")
)

// =============================================================================
// STRUCTURED ERRORS - Carry field context for inline display
// =============================================================================

// UnknownUnitError reports which unit was rejected for which commodity.
type UnknownUnitError struct {
	Unit      Unit
	Commodity CommodityID
}

func (e *UnknownUnitError) Error() string {
	return fmt.Sprintf("unit %q is not configured for commodity %q", e.Unit, e.Commodity)
}

func (e *UnknownUnitError) Unwrap() error { return ErrUnknownUnit }

// TareError reports the gross/tare pair that failed the physical check.
type TareError struct {
	Gross     decimal.Decimal
	TotalTare decimal.Decimal
}

func (e *TareError) Error() string {
	return fmt.Sprintf("total tare %s >= gross %s", e.TotalTare, e.Gross)
}

func (e *TareError) Unwrap() error { return ErrTareExceedsGross }

// FieldError attaches a form field name to a validation failure so the UI
// can place the message next to the offending input.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation reports whether err is a client-detected validation error.
// Validation errors are shown inline and must never be sent over the network.
func IsValidation(err error) bool {
	return errors.Is(err, ErrUnknownUnit) ||
		errors.Is(err, ErrTareExceedsGross) ||
		errors.Is(err, ErrInvalidConversionFactor) ||
		errors.Is(err, ErrNegativeQuantity) ||
		errors.Is(err, ErrNegativePrice) ||
		errors.Is(err, ErrMissingCommodity)
}
