package radarr

import (
	"errors"
	"fmt"
)

// Sentinel errors for Radarr API failures. Callers distinguish them with
// errors.Is.
var (
	ErrAuthentication = errors.New("radarr authentication failed, check API key")
	ErrNotFound       = errors.New("radarr resource not found")
	ErrConnection     = errors.New("cannot connect to radarr")
)

// APIError carries the HTTP status and response body of a failed call.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("radarr API returned status %d: %s", e.StatusCode, e.Body)
}

// classifyStatus maps an HTTP status to the matching sentinel, or to an
// APIError for anything else.
func classifyStatus(statusCode int, body string) error {
	switch statusCode {
	case 401:
		return ErrAuthentication
	case 404:
		return ErrNotFound
	default:
		return &APIError{StatusCode: statusCode, Body: body}
	}
}
