// HTTP-layer error codes. Codes are lowercase snake_case and stable: clients
// branch on them programmatically, so renaming one is a breaking change.
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeCreateFailed       = "create_failed"
	ErrCodeListFailed         = "list_failed"
	ErrCodeDeleteFailed       = "delete_failed"
	ErrCodeRetryFailed        = "retry_failed"
	ErrCodeCheckoutFailed     = "checkout_failed"
	ErrCodeWebhookInvalid     = "webhook_invalid"
	ErrCodeCountryUnsupported = "country_unsupported"
	ErrCodeFeatureDisabled    = "feature_disabled"
	ErrCodeMethodNotAllowed   = "method_not_allowed"
)
