package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("abcdef")
	require.NoError(t, err)
	require.NotEqual(t, "abcdef", hash)

	assert.True(t, CheckPasswordHash("abcdef", hash))
	assert.False(t, CheckPasswordHash("abcdeg", hash))
	assert.False(t, CheckPasswordHash("", hash))
}

func TestPasswordHashesAreSalted(t *testing.T) {
	first, err := HashPassword("abcdef")
	require.NoError(t, err)
	second, err := HashPassword("abcdef")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}
