package web

import (
	"errors"
	"net/http"

	"google.golang.org/api/googleapi"
)

// Common web errors.
var (
	// ErrUnauthorized indicates an invalid API key.
	ErrUnauthorized = errors.New("web: unauthorised (invalid API key)")

	// ErrForbidden indicates the key may not use the search engine.
	ErrForbidden = errors.New("web: forbidden (API not enabled or engine not shared)")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("web: rate limit exceeded")

	// ErrUnsupportedScheme indicates a download URL that is not http(s).
	ErrUnsupportedScheme = errors.New("web: only http and https downloads are supported")

	// ErrTooLarge indicates a download exceeded the size limit.
	ErrTooLarge = errors.New("web: download exceeds size limit")
)

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusTooManyRequests
	}
	return false
}

// WrapError converts a Google API error to a more specific error type.
func WrapError(err error) error {
	if err == nil {
		return nil
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}

	switch gerr.Code {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return err
	}
}
