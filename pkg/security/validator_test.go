package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmailValidator(t *testing.T) {
	v := NewEmailValidator(true)

	assert.NoError(t, v.Validate("ann@example.com"))
	assert.Error(t, v.Validate("ann@"))
	assert.Error(t, v.Validate(""))
	assert.Equal(t, "ann@example.com", v.Sanitize("  Ann@Example.COM "))
	assert.NoError(t, NewEmailValidator(false).Validate(""))
}

func TestPhoneValidator(t *testing.T) {
	v := NewPhoneValidator(true, "")

	assert.NoError(t, v.Validate("+14155550100"))
	assert.Error(t, v.Validate("12345"))
	assert.Equal(t, "+14155550100", v.Sanitize(" +1 (415) 555-0100 "))

	cn := NewPhoneValidator(true, "CN")
	assert.NoError(t, cn.Validate("13800138000"))
	assert.Error(t, cn.Validate("23800138000"))
}

func TestUsernameValidator(t *testing.T) {
	v := NewUsernameValidator()

	assert.NoError(t, v.Validate("ann_lee.01"))
	assert.Error(t, v.Validate("an"))
	assert.Error(t, v.Validate("ann lee"))
}

func TestValidatorSet(t *testing.T) {
	set := NewValidatorSet().
		AddRule("username", NewUsernameValidator()).
		AddRule("email", NewEmailValidator(true))

	cleaned, result := set.Validate(map[string]string{
		"username": " ann ",
		"email":    "not-an-email",
	})

	assert.False(t, result.Valid)
	assert.Equal(t, "ann", cleaned["username"])
	assert.Contains(t, result.Errors, "email")
	assert.NotContains(t, result.Errors, "username")
	assert.Contains(t, result.Error(), "email:")
}
