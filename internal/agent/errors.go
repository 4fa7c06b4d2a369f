package agent

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx response from the agent daemon.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("agent: HTTP %d", e.Status)
	}
	return fmt.Sprintf("agent: HTTP %d: %s", e.Status, e.Body)
}

// StatusCode returns the HTTP status of the failed request.
func (e *APIError) StatusCode() int {
	return e.Status
}

// NotReady reports whether the agent rejected the request because it has
// not finished initializing (HTTP 428). Callers may retry such requests.
func (e *APIError) NotReady() bool {
	return e.Status == http.StatusPreconditionRequired
}

// IsNotReady reports whether err is a 428 "agent not initialized" response.
func IsNotReady(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.NotReady()
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// IsUnauthorized reports whether err is a 401 response, which almost
// always means a missing or stale secret key.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}
