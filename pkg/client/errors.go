package client

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrSessionExpired is returned when a silent refresh was rejected.  The
// session has been cleared and the user must log in again.
var ErrSessionExpired = errors.New("session expired, please log in again")

// ErrNotLoggedIn is returned by calls that need a stored session.
var ErrNotLoggedIn = errors.New("not logged in")

// FieldError is one entry of a validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Message string
	Fields  []FieldError
}

func (e *APIError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("%d: %s (%s: %s)", e.Status, e.Message, e.Fields[0].Field, e.Fields[0].Message)
}

// rejectsSession reports whether a refresh failure means the refresh token
// itself was refused.  Throttling and server errors leave it usable.
func (e *APIError) rejectsSession() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}
