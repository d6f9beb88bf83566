package service

import "errors"

var (
	ErrItemNotFound   = errors.New("item is not in the catalog")
	ErrEmptyCart      = errors.New("cart is empty, nothing to checkout")
	ErrUnknownOrder   = errors.New("order token is unknown or already consumed")
	ErrAmountMismatch = errors.New("claimed amount does not match the order total")
)
