// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthUserExists         = "auth.user_exists"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAuthLogoutSuccess      = "auth.logout_success"
	KeyAuthRegisterSuccess    = "auth.register_success"
	KeyAccessDenied           = "auth.access_denied"

	// Not found, keyed by resource
	KeyUserNotFound    = "user.not_found"
	KeyProductNotFound = "product.not_found"
	KeyOrderNotFound   = "order.not_found"
	KeyAssetNotFound   = "asset.not_found"
	KeyNoteNotFound    = "note.not_found"

	// Cart
	KeyCartNotInCart      = "cart.not_in_cart"
	KeyCartMissingProduct = "cart.missing_product_id"

	// Checkout
	KeyCheckoutSuccess = "checkout.success"
	KeyCheckoutCancel  = "checkout.cancel"
	KeyCheckoutFailed  = "checkout.failed"

	// Notes and reviews
	KeyNoteCreated     = "note.created"
	KeyNoteUpdated     = "note.updated"
	KeyNoteDeleted     = "note.deleted"
	KeyNoteNotOwned    = "note.product_not_owned"
	KeyReviewThanks    = "review.thanks"
	KeyReviewBadRating = "review.invalid_rating"

	// Validation
	KeyValidationInvalid = "validation.invalid"
)
