package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	t.Parallel()

	u, err := CreateUser("  Maria.Perez@Example.COM ", "secret123", "Maria", "Perez")
	require.NoError(t, err)

	assert.Equal(t, "maria.perez@example.com", u.Email)
	assert.Equal(t, ROLE_USER, u.Role)
	assert.Equal(t, REGISTER_METHOD_EMAIL, u.RegisterMethod)
	assert.False(t, u.EmailVerified)

	// The stored password is a bcrypt hash, never the plaintext.
	assert.NotEqual(t, "secret123", u.Password)
	assert.True(t, u.CheckPassword("secret123"))
	assert.False(t, u.CheckPassword("wrong"))
}

func TestCreateUserRejectsInvalidEmail(t *testing.T) {
	t.Parallel()

	_, err := CreateUser("not-an-email", "secret123", "Maria", "Perez")
	assert.Error(t, err)
}

func TestCheckPasswordEmptyHash(t *testing.T) {
	t.Parallel()

	// Google accounts carry no password hash; any guess must fail.
	u := &User{}
	assert.False(t, u.CheckPassword(""))
	assert.False(t, u.CheckPassword("anything"))
}

func TestVerificationTokenLifecycle(t *testing.T) {
	t.Parallel()

	u := &User{}
	require.NoError(t, u.GenerateVerificationToken())
	require.NotEmpty(t, u.VerificationToken)
	require.NotNil(t, u.VerificationExpires)

	assert.True(t, u.IsVerificationTokenValid(u.VerificationToken))
	assert.False(t, u.IsVerificationTokenValid("other-token"))

	expired := time.Now().Add(-time.Minute)
	u.VerificationExpires = &expired
	assert.False(t, u.IsVerificationTokenValid(u.VerificationToken))

	u.ClearVerificationToken()
	assert.Empty(t, u.VerificationToken)
	assert.Nil(t, u.VerificationExpires)
}

func TestResetTokenLifecycle(t *testing.T) {
	t.Parallel()

	u := &User{}
	require.NoError(t, u.GenerateResetToken())
	assert.True(t, u.IsResetTokenValid(u.ResetToken))
	assert.False(t, u.IsResetTokenValid(""))

	expired := time.Now().Add(-time.Second)
	u.ResetExpires = &expired
	assert.False(t, u.IsResetTokenValid(u.ResetToken))

	u.ClearResetToken()
	assert.Empty(t, u.ResetToken)
	assert.Nil(t, u.ResetExpires)
}

func TestSetPassword(t *testing.T) {
	t.Parallel()

	u := &User{}
	require.NoError(t, u.SetPassword("brand-new-pass"))
	assert.True(t, u.CheckPassword("brand-new-pass"))
}

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a@b.com", NormalizeEmail(" A@B.COM "))
	assert.Equal(t, "a@b.com", NormalizeEmail("a@b.com"))
}
