package httputil

// Machine-readable error codes returned in ErrorResponse.Code.
const (
	CodeInternalError      = "INTERNAL_ERROR"
	CodeInvalidRequestBody = "INVALID_REQUEST_BODY"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeRouteNotFound      = "ROUTE_NOT_FOUND"
	CodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	CodeTooManyRequests    = "TOO_MANY_REQUESTS"

	// auth
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeEmailAlreadyExists = "EMAIL_ALREADY_EXISTS"
	CodeMissingAuth        = "MISSING_AUTH"
	CodeInvalidAuthHeader  = "INVALID_AUTH_HEADER"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeInvalidTokenUserID = "INVALID_TOKEN_USER_ID"

	// transactions
	CodeInvalidSort           = "INVALID_SORT"
	CodeInvalidTransactionID  = "INVALID_TRANSACTION_ID"
	CodeTransactionNotFound   = "TRANSACTION_NOT_FOUND"
	CodeIdempotencyInProgress = "IDEMPOTENCY_IN_PROGRESS"
)
