// internal/services/errors.go
package services

import "errors"

var (
	ErrNotFound           = errors.New("record not found")
	ErrValidation         = errors.New("validation failed")
	ErrForbidden          = errors.New("access denied")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserExists         = errors.New("user already exists")
	ErrAccountInactive    = errors.New("account is not active")

	ErrNotInCart = errors.New("product is not in the cart")
	// ErrEmptyCart means no line of the cart references an active product.
	ErrEmptyCart = errors.New("cart has no purchasable products")

	ErrWebhookSecretMissing = errors.New("webhook secret is not configured")
	ErrInvalidSignature     = errors.New("invalid webhook signature")
	ErrInvalidEvent         = errors.New("malformed webhook event")
)
