package lending

import (
	"errors"
	"fmt"
)

// Failure kinds. Every error returned by Session wraps exactly one of them.
var (
	ErrInvalidRequest      = errors.New("invalid request")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrBorrowLimitExceeded = errors.New("borrow limit exceeded")
	ErrCapacityViolation   = errors.New("capacity violation")
	ErrItemInUse           = errors.New("item in use")
	ErrUnknownLoan         = errors.New("unknown loan")
	ErrUnknownItem         = errors.New("unknown item")
	ErrInvalidQuantity     = errors.New("invalid quantity")
)

var codes = map[error]string{
	ErrInvalidRequest:      "invalid_request",
	ErrInsufficientStock:   "insufficient_stock",
	ErrBorrowLimitExceeded: "borrow_limit_exceeded",
	ErrCapacityViolation:   "capacity_violation",
	ErrItemInUse:           "item_in_use",
	ErrUnknownLoan:         "unknown_loan",
	ErrUnknownItem:         "unknown_item",
	ErrInvalidQuantity:     "invalid_quantity",
}

// Error carries the failing condition together with the counts a caller
// needs to render a precise message. The counts are always encoded since
// zero is a meaningful value; ids are omitted when unset.
type Error struct {
	Kind    error  `json:"-"`
	Message string `json:"message"`

	ItemID    int `json:"itemId,omitempty"`
	LoanID    int `json:"loanId,omitempty"`
	Current   int `json:"current"`
	Limit     int `json:"limit"`
	Requested int `json:"requested"`
	Available int `json:"available"`
}

func (e *Error) Error() string { return e.Kind.Error() + ": " + e.Message }

func (e *Error) Unwrap() error { return e.Kind }

// Code is a stable machine-readable name for the kind.
func (e *Error) Code() string { return codes[e.Kind] }

// CodeOf returns the code of a lending error, or "internal" for anything else.
func CodeOf(err error) string {
	var le *Error
	if errors.As(err, &le) {
		return le.Code()
	}
	return "internal"
}

func invalid(format string, args ...any) *Error {
	return &Error{Kind: ErrInvalidRequest, Message: fmt.Sprintf(format, args...)}
}

func invalidQuantity(qty int, format string, args ...any) *Error {
	return &Error{Kind: ErrInvalidQuantity, Message: fmt.Sprintf(format, args...), Requested: qty}
}

func unknownItem(id int) *Error {
	return &Error{Kind: ErrUnknownItem, Message: fmt.Sprintf("item %d not found", id), ItemID: id}
}

func unknownLoan(id int) *Error {
	return &Error{Kind: ErrUnknownLoan, Message: fmt.Sprintf("no open loan with id %d", id), LoanID: id}
}

func insufficientStock(id int, name string, requested, available int) *Error {
	return &Error{
		Kind:      ErrInsufficientStock,
		Message:   fmt.Sprintf("not enough %s available: requested %d, available %d", name, requested, available),
		ItemID:    id,
		Requested: requested,
		Available: available,
	}
}

func limitExceeded(current, requested, limit int) *Error {
	return &Error{
		Kind:      ErrBorrowLimitExceeded,
		Message:   fmt.Sprintf("current: %d, requested: %d, limit: %d", current, requested, limit),
		Current:   current,
		Requested: requested,
		Limit:     limit,
	}
}

func capacityViolation(id, borrowed, requested int) *Error {
	return &Error{
		Kind:      ErrCapacityViolation,
		Message:   fmt.Sprintf("cannot reduce quantity below borrowed amount (%d)", borrowed),
		ItemID:    id,
		Current:   borrowed,
		Requested: requested,
	}
}

func itemInUse(id, outstanding int) *Error {
	return &Error{
		Kind:    ErrItemInUse,
		Message: fmt.Sprintf("cannot delete item with %d unit(s) on loan", outstanding),
		ItemID:  id,
		Current: outstanding,
	}
}
