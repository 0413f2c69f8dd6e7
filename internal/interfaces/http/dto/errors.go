package dto

import "net/http"

// Error codes carried in the response envelope. Domain codes pass through
// unchanged; the transport adds its own for auth and malformed requests.
const (
	// Domain codes
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeStateConflict       = "STATE_CONFLICT"
	ErrCodeNotDue              = "PAYOUT_NOT_DUE"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeDependencyFailure   = "DEPENDENCY_FAILURE"
	ErrCodePermissionDenied    = "PERMISSION_DENIED"
	ErrCodeAlreadyExists       = "ALREADY_EXISTS"
	ErrCodeConcurrencyConflict = "CONCURRENCY_CONFLICT"

	// Transport codes
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeTokenExpired    = "TOKEN_EXPIRED"
	ErrCodeTokenInvalid    = "INVALID_TOKEN"
	ErrCodeTokenNotValid   = "TOKEN_NOT_VALID"
	ErrCodeTokenRevoked    = "TOKEN_REVOKED"
	ErrCodeInvalidJSON     = "INVALID_JSON"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	ErrCodeRateLimited     = "RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeValidation:          http.StatusBadRequest,
	ErrCodeStateConflict:       http.StatusConflict,
	ErrCodeNotDue:              http.StatusConflict,
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeDependencyFailure:   http.StatusBadGateway,
	ErrCodePermissionDenied:    http.StatusForbidden,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeUnauthorized:    http.StatusUnauthorized,
	ErrCodeTokenExpired:    http.StatusUnauthorized,
	ErrCodeTokenInvalid:    http.StatusUnauthorized,
	ErrCodeTokenNotValid:   http.StatusUnauthorized,
	ErrCodeTokenRevoked:    http.StatusUnauthorized,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:     http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// errorCodeAliases maps older or alternative spellings to the canonical code
var errorCodeAliases = map[string]string{
	"INVALID_INPUT":   ErrCodeValidation,
	"BAD_REQUEST":     ErrCodeValidation,
	"INVALID_STATE":   ErrCodeStateConflict,
	"FORBIDDEN":       ErrCodePermissionDenied,
	"INTERNAL":        ErrCodeInternal,
	"NOT_DUE":         ErrCodeNotDue,
	"TOO_MANY":        ErrCodeRateLimited,
	"UNAUTHENTICATED": ErrCodeUnauthorized,
}

// NormalizeErrorCode converts an alias to its canonical code.
// Canonical and unknown codes are returned as-is.
func NormalizeErrorCode(code string) string {
	if canonical, ok := errorCodeAliases[code]; ok {
		return canonical
	}
	return code
}
