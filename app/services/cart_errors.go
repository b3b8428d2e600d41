package services

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindValidation        ErrorKind = "VALIDATION_ERROR"
	KindNotFound          ErrorKind = "NOT_FOUND"
	KindInsufficientStock ErrorKind = "INSUFFICIENT_STOCK"
	KindUnknown           ErrorKind = "UNKNOWN_ERROR"
)

const (
	ErrMsgQuantityPositive    = "Quantity must be greater than zero"
	ErrMsgQuantityNegative    = "Quantity cannot be negative"
	ErrMsgProductIDRequired   = "Product ID is required"
	ErrMsgItemIDRequired      = "Item ID is required"
	ErrMsgOwnerRequired       = "Cart owner is required"
	ErrMsgProductNotFound     = "Product not found"
	ErrMsgVariantNotFound     = "Product variant not found"
	ErrMsgItemNotFound        = "Cart item not found"
	ErrMsgCartEmpty           = "Cart is empty"
	ErrMsgLoginRequired       = "You must be logged in to continue"
	ErrMsgSomethingWentWrong  = "Something went wrong, please try again."
	errMsgInsufficientStockFm = "Only %d more of %s can be added"
	errMsgStockLimitFm        = "Only %d of %s in stock"
)

// CartError is the typed failure of a cart or checkout operation. Available is
// only meaningful for KindInsufficientStock.
type CartError struct {
	Kind      ErrorKind
	Message   string
	Available int
}

func (e *CartError) Error() string {
	return e.Message
}

func NewValidationError(message string) *CartError {
	return &CartError{Kind: KindValidation, Message: message}
}

func NewNotFoundError(message string) *CartError {
	return &CartError{Kind: KindNotFound, Message: message}
}

func NewInsufficientStockError(name string, available int) *CartError {
	if available < 0 {
		available = 0
	}
	return &CartError{
		Kind:      KindInsufficientStock,
		Message:   fmt.Sprintf(errMsgInsufficientStockFm, available, name),
		Available: available,
	}
}

// NewStockLimitError is returned when a line is set to more than the total
// stock, so the message names the stock rather than what is left to add.
func NewStockLimitError(name string, stock int) *CartError {
	if stock < 0 {
		stock = 0
	}
	return &CartError{
		Kind:      KindInsufficientStock,
		Message:   fmt.Sprintf(errMsgStockLimitFm, stock, name),
		Available: stock,
	}
}

// KindOf reports the kind of err; anything that is not a *CartError is unknown.
func KindOf(err error) ErrorKind {
	var ce *CartError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnknown
}
