package domain

import "fmt"

// basic error that can occur
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	ErrInvalidCredentials Error = "invalid credentials"
	ErrUsernameTaken      Error = "username or email already exists"
	ErrInvalidToken       Error = "invalid token"
	ErrCartItemNotFound   Error = "cart item not found"
	ErrCartItemConflict   Error = "cart item was changed by another request"
	ErrPasswordTooLong    Error = "password must be at most 72 bytes"
	ErrProductNotFound    Error = "product not found"
	ErrInvalidQuantity    Error = "quantity must be a positive integer"
	ErrOutOfStock         Error = "out of stock"
)

// OutOfStockError reports a reservation that would take stock below zero.
// errors.Is(err, ErrOutOfStock) holds for it.
type OutOfStockError struct {
	ProductID   int64
	ProductName string
	Available   int
	Requested   int
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("Product '%s' is out of stock. Available: %d, Requested: %d",
		e.ProductName, e.Available, e.Requested)
}

func (e *OutOfStockError) Is(target error) bool {
	return target == ErrOutOfStock
}
