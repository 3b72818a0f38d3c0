package form

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registrationForm() *Form {
	return New(
		Field{Name: "first_name", Label: "First name", Required: true},
		Field{Name: "last_name", Label: "Last name", Required: true},
		Field{Name: "email", Label: "Email", Required: true, Email: true},
		Field{Name: "password", Label: "Password", Required: true, MinLen: 6},
		Field{Name: "phone", Label: "Phone"},
	)
}

func TestForm_RequiredFields(t *testing.T) {
	f := registrationForm()
	f.Set("first_name", "  ")

	err := f.Validate()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Fields, 4)
	assert.True(t, verr.Has("first_name"))
	assert.False(t, verr.Has("phone"))
	assert.Equal(t, "First name is required", verr.Fields[0].Message)
}

func TestForm_PasswordMinLength(t *testing.T) {
	f := registrationForm()
	f.Set("first_name", "Ada")
	f.Set("last_name", "Lovelace")
	f.Set("email", "ada@example.com")
	f.Set("password", "12345")

	err := f.Validate()
	require.Error(t, err)
	assert.Equal(t, "Password must be at least 6 characters", err.Error())

	f.Set("password", "123456")
	assert.NoError(t, f.Validate())
}

func TestForm_Email(t *testing.T) {
	f := New(Field{Name: "email", Required: true, Email: true})
	f.Set("email", "not-an-email")
	assert.Error(t, f.Validate())
}

func TestForm_SetIgnoresUnknownAndReset(t *testing.T) {
	f := registrationForm()
	f.Set("nickname", "x")
	f.Set("phone", "+7 900")
	assert.Equal(t, map[string]string{"phone": "+7 900"}, f.Values())

	f.Reset()
	assert.Empty(t, f.Values())
	assert.Equal(t, "", f.Get("phone"))
}
