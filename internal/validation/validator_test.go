package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/folioapp/folio-server/internal/errors"
)

type publishForm struct {
	Title       string `json:"title" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"max=10"`
	Email       string `json:"email" validate:"omitempty,email"`
}

func TestValidate_Passes(t *testing.T) {
	v := New()
	assert.NoError(t, v.Validate(publishForm{Title: "A Book"}))
}

func TestValidate_ReturnsDomainError(t *testing.T) {
	v := New()

	err := v.Validate(publishForm{Description: "way too long for the limit"})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation), "got %v", err)
}

func TestValidate_FieldErrorsUseJSONNames(t *testing.T) {
	v := New()

	err := v.Validate(publishForm{Email: "not-an-email"})
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.True(t, domainerrors.As(err, &domainErr))

	fields, ok := domainErr.Details.(map[string]string)
	require.True(t, ok, "details %T", domainErr.Details)
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "title")
	assert.Equal(t, "is required", fields["title"])
	assert.Equal(t, "must be a valid email address", fields["email"])
}
