package dto

import (
	"errors"
	"net/http"

	"github.com/orderbridge/backend/internal/domain/sync"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeValidation is used for invalid input data
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeRateLimited is used when a rate limit is exceeded
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// Sync error codes
const (
	// ErrCodeSyncAlreadyRunning is used when a run is already active for
	// the requested entity type and direction
	ErrCodeSyncAlreadyRunning = "ERR_SYNC_ALREADY_RUNNING"
	// ErrCodeSyncNotRecoverable is used when resuming a finished task
	ErrCodeSyncNotRecoverable = "ERR_SYNC_NOT_RECOVERABLE"
	// ErrCodeMappingConflict is used when a mapping write loses to an
	// existing target-side mapping
	ErrCodeMappingConflict = "ERR_MAPPING_CONFLICT"
	// ErrCodePlatformNotConfigured is used for unknown platform codes
	ErrCodePlatformNotConfigured = "ERR_PLATFORM_NOT_CONFIGURED"
	// ErrCodePlatformUnavailable is used when a platform call failed
	ErrCodePlatformUnavailable = "ERR_PLATFORM_UNAVAILABLE"
)

// Webhook error codes
const (
	// ErrCodeWebhookBadSignature is used when signature verification fails
	ErrCodeWebhookBadSignature = "ERR_WEBHOOK_BAD_SIGNATURE"
	// ErrCodeWebhookMalformed is used for undecodable webhook bodies
	ErrCodeWebhookMalformed = "ERR_WEBHOOK_MALFORMED"
)

// errorCodeHTTPStatus maps error codes to HTTP status codes
var errorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:    http.StatusInternalServerError,
	ErrCodeBadRequest:  http.StatusBadRequest,
	ErrCodeNotFound:    http.StatusNotFound,
	ErrCodeConflict:    http.StatusConflict,
	ErrCodeValidation:  http.StatusBadRequest,
	ErrCodeRateLimited: http.StatusTooManyRequests,

	ErrCodeSyncAlreadyRunning:    http.StatusConflict,
	ErrCodeSyncNotRecoverable:    http.StatusUnprocessableEntity,
	ErrCodeMappingConflict:       http.StatusConflict,
	ErrCodePlatformNotConfigured: http.StatusBadRequest,
	ErrCodePlatformUnavailable:   http.StatusBadGateway,

	ErrCodeWebhookBadSignature: http.StatusUnauthorized,
	ErrCodeWebhookMalformed:    http.StatusBadRequest,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500 Internal Server Error.
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// CodeForError translates a domain error into its API error code
func CodeForError(err error) string {
	switch {
	case errors.Is(err, sync.ErrTaskAlreadyRunning):
		return ErrCodeSyncAlreadyRunning
	case errors.Is(err, sync.ErrTaskNotRecoverable):
		return ErrCodeSyncNotRecoverable
	case errors.Is(err, sync.ErrTaskNotFound), errors.Is(err, sync.ErrMappingNotFound):
		return ErrCodeNotFound
	case errors.Is(err, sync.ErrMappingTargetConflict):
		return ErrCodeMappingConflict
	case errors.Is(err, sync.ErrPlatformNotConfigured):
		return ErrCodePlatformNotConfigured
	case errors.Is(err, sync.ErrWebhookBadSignature):
		return ErrCodeWebhookBadSignature
	case errors.Is(err, sync.ErrWebhookMalformed):
		return ErrCodeWebhookMalformed
	case errors.Is(err, sync.ErrEntityInvalid), errors.Is(err, sync.ErrInvalidDirection):
		return ErrCodeValidation
	case errors.Is(err, sync.ErrEntityNotFound):
		return ErrCodeNotFound
	case sync.Classify(err) == sync.ClassRateLimited:
		return ErrCodeRateLimited
	case sync.Classify(err) == sync.ClassTransient && isPlatformError(err):
		return ErrCodePlatformUnavailable
	default:
		return ErrCodeInternal
	}
}

func isPlatformError(err error) bool {
	var pe *sync.PlatformError
	return errors.As(err, &pe)
}
