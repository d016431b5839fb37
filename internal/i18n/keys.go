// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess = "success"
	KeyError   = "error"

	// Authentication
	KeyAuthRequired     = "auth.required"
	KeyAuthInvalidToken = "auth.invalid_token"
	KeyAuthTokenExpired = "auth.token_expired"
	KeyAccessDenied     = "auth.access_denied"

	// Products
	KeyProductCreated     = "product.created"
	KeyProductUpdated     = "product.updated"
	KeyProductDeactivated = "product.deactivated"
	KeyProductNotFound    = "product.not_found"
	KeyVariantCreated     = "variant.created"
	KeyVariantNotFound    = "variant.not_found"

	// Discounts
	KeyDiscountCreated     = "discount.created"
	KeyDiscountUpdated     = "discount.updated"
	KeyDiscountDeactivated = "discount.deactivated"
	KeyDiscountNotFound    = "discount.not_found"
	KeyDiscountApplied     = "discount.applied"
	KeyDiscountInactive    = "discount.inactive"
	KeyDiscountInvalidRule = "discount.invalid_rule"

	// Inventory
	KeyInventoryCreated      = "inventory.created"
	KeyInventoryNotFound     = "inventory.not_found"
	KeyTransactionRecorded   = "inventory.transaction_recorded"
	KeyInsufficientQuantity  = "inventory.insufficient_quantity"
	KeyUnitNotFound          = "unit.not_found"
	KeyUnitUpdated           = "unit.updated"
	KeyUnitInvalidTransition = "unit.invalid_transition"

	// Notifications
	KeyNotificationNotFound = "notification.not_found"
	KeyNotificationRead     = "notification.read"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"
)
