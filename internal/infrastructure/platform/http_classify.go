package platform

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/orderbridge/backend/internal/domain/sync"
)

// classifyHTTPStatus translates an HTTP error status into a classified
// platform error. A Retry-After header on 429 responses is carried through
// as the backoff hint.
func classifyHTTPStatus(platform sync.PlatformCode, status int, retryAfter string) error {
	err := fmt.Errorf("%w: HTTP %d", sync.ErrPlatformRequestFailed, status)

	switch {
	case status == http.StatusTooManyRequests:
		pe := sync.NewPlatformError(sync.ClassRateLimited, platform, sync.ErrPlatformRateLimited)
		pe.RetryAfter = parseRetryAfter(retryAfter)
		return pe
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return sync.NewPlatformError(sync.ClassFatal, platform, sync.ErrPlatformAuthFailed)
	case status == http.StatusNotFound:
		return sync.NewPlatformError(sync.ClassNotFound, platform, sync.ErrEntityNotFound)
	case status == http.StatusConflict:
		return sync.NewPlatformError(sync.ClassConflictWrite, platform, err)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return sync.NewPlatformError(sync.ClassValidation, platform, err)
	case status >= 500:
		return sync.NewPlatformError(sync.ClassTransient, platform,
			fmt.Errorf("%w: HTTP %d", sync.ErrPlatformUnavailable, status))
	default:
		return sync.NewPlatformError(sync.ClassTransient, platform, err)
	}
}

// parseRetryAfter reads a Retry-After header value. Only the delta-seconds
// form is honored; HTTP-date values fall back to zero.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
