package validation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name string `json:"name" validate:"required,max=5"`
	URL  string `json:"url,omitempty" validate:"omitempty,url"`
	Plan string `json:"plan" validate:"omitempty,oneof=free paid"`
}

func TestValidateReportsJSONFieldNames(t *testing.T) {
	v := New()

	err := v.Validate(sample{Name: "", URL: "not a url", Plan: "gold"})
	require.Error(t, err)

	var ve *Error
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "is required", ve.Fields["name"])
	assert.Equal(t, "must be a valid URL", ve.Fields["url"])
	assert.Equal(t, "must be one of: free paid", ve.Fields["plan"])
	assert.Contains(t, err.Error(), "name is required")
}

func TestValidatePasses(t *testing.T) {
	assert.NoError(t, New().Validate(sample{Name: "ok", URL: "https://example.com", Plan: "free"}))
}

func TestIsValidationError(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", Errorf("rating must be between %.1f and %.1f", 0.5, 5.0))

	assert.True(t, IsValidationError(err))
	assert.False(t, IsValidationError(fmt.Errorf("other")))
	assert.Equal(t, "wrapped: rating must be between 0.5 and 5.0", err.Error())
}
