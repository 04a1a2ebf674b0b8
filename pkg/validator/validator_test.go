package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/johnquangdev/levelus/errors"
)

type sample struct {
	Name string `json:"name" validate:"notblank,max=5"`
	Mode string `json:"mode" validate:"omitempty,oneof=intro discussion"`
}

func TestValidate(t *testing.T) {
	v := New()

	require.NoError(t, v.Validate(&sample{Name: "Alex"}))
	require.NoError(t, v.Validate(&sample{Name: "Alex", Mode: "intro"}))

	tests := []struct {
		name    string
		in      sample
		message string
	}{
		{"blank", sample{Name: "   "}, "name is required"},
		{"too long", sample{Name: "Alexandra"}, "name must be at most 5 characters"},
		{"bad mode", sample{Name: "Alex", Mode: "panel"}, "mode must be one of: intro discussion"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(&tt.in)

			require.Error(t, err)
			assert.True(t, appErrors.IsValidation(err))
			var appErr appErrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.message, appErr.Message)
		})
	}
}
