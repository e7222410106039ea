package shared

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication & authorization errors
	ErrAuthentication = fmt.Errorf("authentication failed")
	ErrAuthorization  = fmt.Errorf("insufficient permissions")
	ErrRefreshFailed  = fmt.Errorf("token refresh failed")
	ErrNoRefreshToken = fmt.Errorf("no refresh token available")
	ErrTimeout        = fmt.Errorf("operation timed out")

	// API and service errors
	ErrRateLimited        = fmt.Errorf("rate limit exceeded")
	ErrTransport          = fmt.Errorf("API request failed")
	ErrValidation         = fmt.Errorf("validation failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Input validation errors
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrMissingArgument = fmt.Errorf("missing required argument")
)

var statusMarker = regexp.MustCompile(`\(status (\d{3})\)`)

// StatusFromError infers the HTTP status a boundary layer should relay for err.
//
// Sentinel errors map directly; otherwise the message is scanned for an
// embedded "(status NNN)" marker left by the service clients. Unknown errors
// map to 500.
func StatusFromError(err error) int {
	if err == nil {
		return 200
	}

	switch {
	case errors.Is(err, ErrAuthentication), errors.Is(err, ErrRefreshFailed), errors.Is(err, ErrNoRefreshToken):
		return 401
	case errors.Is(err, ErrAuthorization):
		return 403
	case errors.Is(err, ErrRateLimited):
		return 429
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidArgument), errors.Is(err, ErrMissingArgument):
		return 400
	}

	if m := statusMarker.FindStringSubmatch(err.Error()); m != nil {
		if code, convErr := strconv.Atoi(m[1]); convErr == nil {
			return code
		}
	}

	return 500
}
