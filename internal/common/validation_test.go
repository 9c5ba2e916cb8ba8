package common

import (
	"testing"

	"dreamforge/internal/errors"
	"dreamforge/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateOutputFormat(t *testing.T) {
	supported := []string{"json", "text", "markdown"}

	tests := []struct {
		name          string
		format        string
		supported     []string
		expectedError string
	}{
		{name: "json", format: "json", supported: supported},
		{name: "markdown", format: "markdown", supported: supported},
		{name: "xml rejected", format: "xml", supported: supported,
			expectedError: "unsupported output format 'xml'. Supported formats: [json text markdown]"},
		{name: "case sensitive", format: "JSON", supported: supported,
			expectedError: "unsupported output format 'JSON'. Supported formats: [json text markdown]"},
		{name: "no restrictions configured", format: "xml", supported: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format, tt.supported)
			if tt.expectedError == "" {
				if err != nil {
					t.Errorf("Expected no error but got: %v", err)
				}
				return
			}
			if err == nil || err.Error() != tt.expectedError {
				t.Errorf("Expected error '%s', got '%v'", tt.expectedError, err)
			}
		})
	}
}

func TestValidatorRegisterInput(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name       string
		input      types.RegisterInput
		wantFields []string
	}{
		{
			name:  "valid",
			input: types.RegisterInput{Name: "Asha", Email: "asha@example.com", Password: "correct-horse"},
		},
		{
			name:       "all missing",
			input:      types.RegisterInput{},
			wantFields: []string{"name", "email", "password"},
		},
		{
			name:       "blank name and bad email",
			input:      types.RegisterInput{Name: "   ", Email: "not-an-email", Password: "correct-horse"},
			wantFields: []string{"name", "email"},
		},
		{
			name:       "short password",
			input:      types.RegisterInput{Name: "Asha", Email: "asha@example.com", Password: "short"},
			wantFields: []string{"password"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.input)
			if len(tt.wantFields) == 0 {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

			appErr, ok := err.(*errors.AppError)
			require.True(t, ok)
			assert.Len(t, appErr.Fields, len(tt.wantFields))
			for _, field := range tt.wantFields {
				assert.Contains(t, appErr.Fields, field)
			}
		})
	}
}

func TestValidatorMessages(t *testing.T) {
	v := NewValidator()

	err := v.Validate(types.ChatMessage{Role: "system", Content: "hi"})
	require.Error(t, err)

	appErr := err.(*errors.AppError)
	assert.Equal(t, "Must be one of: user, assistant", appErr.Fields["role"])
	assert.Equal(t, "invalid fields: role", appErr.Message)
}
