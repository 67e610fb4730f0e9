package core

import (
	"strings"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

// Error returns the error message followed by every field error, in order.
func (err ValidationError) Error() string {
	var msg string
	if err.Err != nil {
		msg = err.Err.Error()
	}
	if len(err.Fields) == 0 {
		return msg
	}

	flds := make([]string, 0, len(err.Fields))
	for _, fErr := range err.Fields {
		flds = append(flds, fErr.Field+": "+fErr.Error)
	}
	if msg == "" {
		return strings.Join(flds, "; ")
	}
	return msg + ": " + strings.Join(flds, "; ")
}

// FieldMap returns the field errors keyed by field name.
func (err ValidationError) FieldMap() map[string]string {
	fldErrs := make(map[string]string, len(err.Fields))
	for _, fErr := range err.Fields {
		fldErrs[fErr.Field] = fErr.Error
	}
	return fldErrs
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
