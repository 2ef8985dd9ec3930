package utils

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrorRecordNotFound   = errors.New("record not found")
	ErrBusinessIdRequired = errors.New("business id is required")
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports required fields missing or out of range on a form-like input.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func NewValidationError(field string, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

func (e *ValidationError) Add(field string, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

func (e *ValidationError) HasField(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// OrNil returns nil when nothing was added, so callers can `return verr.OrNil()`.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// InvalidInputError is a single malformed value (negative quantity, NaN, unparseable number).
type InvalidInputError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func InvalidInput(field string, reason string) error {
	return &InvalidInputError{Field: field, Reason: reason}
}

func (e *InvalidInputError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid input for %s: %s", e.Field, e.Reason)
}

type StockShortfall struct {
	LineId      int      `json:"line_id"`
	Name        string   `json:"name"`
	Ingredients []string `json:"ingredients"`
}

// InsufficientStockError lists every cart line whose ingredients cannot be covered.
type InsufficientStockError struct {
	Lines []StockShortfall `json:"lines"`
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Lines))
	for _, l := range e.Lines {
		parts = append(parts, fmt.Sprintf("%s (%s)", l.Name, strings.Join(l.Ingredients, ", ")))
	}
	return "insufficient stock for: " + strings.Join(parts, "; ")
}

// RemoteFailureError wraps a failed call to the data collaborator.
type RemoteFailureError struct {
	Op  string
	Err error
}

// RemoteFailure wraps err unless it is nil or already a remote failure.
func RemoteFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	var rf *RemoteFailureError
	if errors.As(err, &rf) {
		return err
	}
	return &RemoteFailureError{Op: op, Err: err}
}

func (e *RemoteFailureError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *RemoteFailureError) Unwrap() error {
	return e.Err
}

func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsInvalidInput(err error) bool {
	var v *InvalidInputError
	return errors.As(err, &v)
}

func IsInsufficientStock(err error) bool {
	var v *InsufficientStockError
	return errors.As(err, &v)
}

func IsRemoteFailure(err error) bool {
	var v *RemoteFailureError
	return errors.As(err, &v)
}
