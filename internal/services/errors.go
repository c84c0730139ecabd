package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors recovered at the handler boundary. Not-found conditions
// are reported as mongo.ErrNoDocuments by the services and mapped to 404.
var (
	// ErrForbidden is the authorization failure signal. It is surfaced to
	// the actor as a distinguishable outcome, never treated as a crash.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidStatus rejects inquiry status tokens outside the known set.
	ErrInvalidStatus = errors.New("invalid inquiry status")

	// ErrInvalidCredentials covers unknown username, wrong password and
	// deactivated accounts without distinguishing them to the caller.
	ErrInvalidCredentials = errors.New("invalid username or password")

	ErrUsernameExists = errors.New("username already taken")
	ErrEmailExists    = errors.New("email already in use by another account")
)

// ValidationError reports malformed form input, field by field, so the
// caller can re-render the form with messages next to each field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AsValidationError unwraps a *ValidationError if err carries one.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
