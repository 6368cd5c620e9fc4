package serverutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
	Name     string `validate:"max=10"`
}

func TestValidateRequestOK(t *testing.T) {
	err := ValidateRequest(signupForm{
		Email:    "dev@example.com",
		Password: "supersecret",
		Name:     "Dev",
	})
	assert.NoError(t, err)
}

func TestValidateRequestRequired(t *testing.T) {
	err := ValidateRequest(signupForm{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Email is required")
	assert.Contains(t, err.Error(), "Password is required")
}

func TestValidateRequestFieldMessages(t *testing.T) {
	err := ValidateRequest(signupForm{
		Email:    "not-an-email",
		Password: "short",
		Name:     "waaaaaay too long",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Email must be a valid email")
	assert.Contains(t, err.Error(), "Password must be at least 8 characters")
	assert.Contains(t, err.Error(), "Name must be at most 10 characters")
}
