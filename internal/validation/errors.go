// Package validation collects field-level input violations so a request can
// report all of them at once instead of failing on the first.
package validation

import (
	"errors"
	"strings"
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

// Errors is an ordered list of field violations. It implements error.
type Errors []FieldError

func (e Errors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		msgs = append(msgs, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Add records a violation.
func (e *Errors) Add(field, message string, value any) {
	*e = append(*e, FieldError{Field: field, Message: message, Value: value})
}

// Has reports whether field has at least one violation.
func (e Errors) Has(field string) bool {
	for _, fe := range e {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// Err returns nil when nothing was recorded, otherwise e itself.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// As extracts Errors from err.
func As(err error) (Errors, bool) {
	var verrs Errors
	if errors.As(err, &verrs) {
		return verrs, true
	}
	return nil, false
}
