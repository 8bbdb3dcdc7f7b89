package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")        // 400
	ErrNotFound        = errors.New("not found")               // 404
	ErrRejected        = errors.New("rejected")                // 422
	ErrTransient       = errors.New("temporarily unavailable") // 503
	ErrForbidden       = errors.New("forbidden")               // 403
)

var (
	ErrCartNotFound      = fmt.Errorf("%w: cart", ErrNotFound)
	ErrLineNotFound      = fmt.Errorf("%w: cart line", ErrNotFound)
	ErrItemNotFound      = fmt.Errorf("%w: catalog item", ErrNotFound)
	ErrNoLongerInCatalog = fmt.Errorf("%w: item is no longer in the catalog", ErrNotFound)
	ErrOrderNotFound     = fmt.Errorf("%w: order", ErrNotFound)

	ErrOutOfStock        = fmt.Errorf("%w: item is out of stock", ErrRejected)
	ErrInsufficientStock = fmt.Errorf("%w: not enough stock for requested quantity", ErrRejected)
	ErrInvalidLine       = fmt.Errorf("%w: cart line is invalid", ErrRejected)
	ErrEmptyCart         = fmt.Errorf("%w: cart is empty", ErrRejected)
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func transient(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrTransient, op, err)
}
