package api

import (
	"errors"
	"fmt"
	nethttp "net/http"
	"strings"
)

var (
	// ErrNotFound indicates the folder does not exist or is not visible to the key.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates a missing or rejected API key.
	ErrUnauthorized = errors.New("unauthorized")
)

// StatusError is returned for a non-200 API response.
type StatusError struct {
	StatusCode int
	Body       string
}

func newStatusError(code int, body []byte) *StatusError {
	return &StatusError{StatusCode: code, Body: strings.TrimSpace(string(body))}
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Body)
}

// Is maps status codes onto the package sentinels.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == nethttp.StatusNotFound
	case ErrUnauthorized:
		return e.StatusCode == nethttp.StatusUnauthorized || e.StatusCode == nethttp.StatusForbidden
	}
	return false
}
