// Package apperror defines the one error shape handlers hand to the
// terminal error layer.  A validation error carries per-field messages, a
// domain error carries an HTTP status and a client-safe message, and an
// internal error carries a cause that is logged but never rendered.
package apperror

import (
	"fmt"
	"net/http"
	"strings"
)

// Kind tags an Error.
type Kind string

const (
	KindValidation Kind = "validation"
	KindDomain     Kind = "domain"
	KindInternal   Kind = "internal"
)

// FieldError is one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the tagged result every handler failure is normalized to.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Fields  []FieldError
	Cause   error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindValidation:
		parts := make([]string, 0, len(e.Fields))
		for _, f := range e.Fields {
			parts = append(parts, f.Field+": "+f.Message)
		}
		return "validation failed: " + strings.Join(parts, "; ")
	case KindInternal:
		if e.Cause != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Cause)
		}
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Validation builds a 400 error from field errors.
func Validation(fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Status: http.StatusBadRequest, Message: "Validation failed", Fields: fields}
}

// Domain builds a client-visible error with the given status.
func Domain(status int, message string) *Error {
	return &Error{Kind: KindDomain, Status: status, Message: message}
}

// Internal wraps an infrastructure failure.  op names the failed step for
// the server log.
func Internal(op string, cause error) *Error {
	return &Error{Kind: KindInternal, Status: http.StatusInternalServerError, Message: op, Cause: cause}
}

// Client-visible messages of the auth taxonomy.
const (
	MsgAccessTokenRequired = "Access token required"
	MsgTokenExpired        = "Token expired"
	MsgInvalidToken        = "Invalid token"
	MsgInvalidCredentials  = "Invalid credentials"
	MsgInvalidRefreshToken = "Invalid refresh token"
	MsgAdminRequired       = "Admin access required"
	MsgEmailInUse          = "Email already in use"
)

func AccessTokenRequired() *Error { return Domain(http.StatusUnauthorized, MsgAccessTokenRequired) }
func TokenExpired() *Error        { return Domain(http.StatusUnauthorized, MsgTokenExpired) }
func InvalidToken() *Error        { return Domain(http.StatusUnauthorized, MsgInvalidToken) }
func InvalidCredentials() *Error  { return Domain(http.StatusUnauthorized, MsgInvalidCredentials) }
func InvalidRefreshToken() *Error { return Domain(http.StatusForbidden, MsgInvalidRefreshToken) }
func AdminRequired() *Error       { return Domain(http.StatusForbidden, MsgAdminRequired) }
func EmailInUse() *Error          { return Domain(http.StatusConflict, MsgEmailInUse) }
