package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hashed, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hashed)

	assert.NoError(t, VerifyPassword(hashed, "s3cret-pass"))
	assert.Error(t, VerifyPassword(hashed, "wrong-pass"))
}

func TestHashPasswordSalts(t *testing.T) {
	a, err := HashPassword("same")
	require.NoError(t, err)
	b, err := HashPassword("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestHashPasswordTooLong(t *testing.T) {
	_, err := HashPassword(strings.Repeat("x", MaxPasswordBytes+1))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}
