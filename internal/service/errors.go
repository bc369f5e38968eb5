package service

import (
	"errors"
	"fmt"
)

var (
	ErrCartNotFound = errors.New("cart not found")
	ErrEmptyCart    = errors.New("cart is empty")
	ErrQuoteMode    = errors.New("cart is in quote mode and cannot be finalized")
)

// InsufficientStockError names the first cart line whose product does not
// have enough stock at checkout time.
type InsufficientStockError struct {
	ProductID int64
	Name      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.Name, e.Requested, e.Available)
}

// PersistenceError wraps a storage failure during checkout. The cart is left
// untouched when it is returned.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist sale: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
