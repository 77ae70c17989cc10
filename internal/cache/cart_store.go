package cache

import (
	"context"
	"errors"
)

// Cart maps string-form product ids to positive quantities.
type Cart map[string]int64

// Items is the sum of all quantities in the cart.
func (c Cart) Items() int64 {
	var n int64
	for _, qty := range c {
		n += qty
	}
	return n
}

// CartStore persists one cart per session id. Implementations never store a non-positive quantity.
type CartStore interface {
	Get(ctx context.Context, sessionID string) (Cart, error)
	// Add increments the stored quantity by qty, which must be positive.
	Add(ctx context.Context, sessionID, productID string, qty int64) (Cart, error)
	// Set replaces the quantity; qty <= 0 deletes the line.
	Set(ctx context.Context, sessionID, productID string, qty int64) (Cart, error)
	// Remove deletes the line and is a no-op when it is absent.
	Remove(ctx context.Context, sessionID, productID string) (Cart, error)
	Clear(ctx context.Context, sessionID string) error
}

var ErrInvalidQuantity = errors.New("quantity must be positive")
