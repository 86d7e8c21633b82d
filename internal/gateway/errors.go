package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// genericMessage is shown when the server reply carries no usable error body.
const genericMessage = "request failed"

// APIError is a failed gateway call. Message is the server-provided,
// human-readable error when one was available.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s (status %d)", genericMessage, e.Status)
	}
	return e.Message
}

// IsNotFound reports whether err is an APIError with a 404 status.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// IsUnauthorized reports whether err is an APIError with a 401 status.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}
