package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndParse(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	signed, err := Sign(42, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	claims, err := Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "baches-api", claims.Issuer)
}

func TestParseExpired(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	signed, err := Sign(7, -time.Minute)
	require.NoError(t, err)

	_, err = Parse(signed)
	assert.Error(t, err)
}

func TestParseWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	signed, err := Sign(7, time.Hour)
	require.NoError(t, err)

	t.Setenv("JWT_SECRET", "another-secret")
	_, err = Parse(signed)
	assert.Error(t, err)
}

func TestParseGarbage(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	_, err := Parse("not.a.token")
	assert.Error(t, err)
}
