package google

import (
	"errors"
	"net/http"

	"google.golang.org/api/googleapi"
)

var (
	// ErrSDKUnavailable means no OAuth authorizer was wired in. Every sync
	// feature is unavailable until the host provides one.
	ErrSDKUnavailable = errors.New("oauth authorizer not available")

	// ErrAuthDenied means the user declined consent. It is surfaced to the
	// caller and never retried automatically.
	ErrAuthDenied = errors.New("authorization denied")

	// ErrUnauthorized is a 401 from a downstream API. Clients recover by
	// invalidating the cached token and retrying the request once.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound is a 404 for a remote resource. Delete treats it as
	// success, update treats it as a signal to recreate.
	ErrNotFound = errors.New("remote resource not found")

	// ErrRemoteRejected is any other non-success remote response. It is
	// surfaced as a failed result, never a panic, and leaves local state
	// untouched.
	ErrRemoteRejected = errors.New("remote rejected request")
)

// statusCode extracts the HTTP status from a googleapi error chain.
func statusCode(err error) int {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	return 0
}

// IsNotFound reports whether err represents a missing remote resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || statusCode(err) == http.StatusNotFound
}

// IsUnauthorized reports whether err represents an expired or rejected
// bearer token.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) || statusCode(err) == http.StatusUnauthorized
}
