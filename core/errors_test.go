package core

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "message only", err: NewValidationError(errors.New("nil roster")), want: "nil roster"},
		{
			name: "fields only",
			err:  NewValidationError(nil, FieldError{Field: "class_id", Error: "does not match the url"}),
			want: "class_id: does not match the url",
		},
		{
			name: "message and fields",
			err: NewValidationError(
				errors.New("invalid input"),
				FieldError{Field: "Header.final_score", Error: "final_score must be 10 or less"},
				FieldError{Field: "school_year", Error: "school year must look like 2023-2024"},
			),
			want: "invalid input: Header.final_score: final_score must be 10 or less; school_year: school year must look like 2023-2024",
		},
		{name: "empty", err: NewValidationError(nil), want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}
