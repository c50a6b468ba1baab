package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateVerificationToken(t *testing.T) {
	first, err := generateVerificationToken()
	require.NoError(t, err)
	second, err := generateVerificationToken()
	require.NoError(t, err)

	assert.Len(t, first, 64) // 32 random bytes, hex encoded
	assert.NotEqual(t, first, second)
}

func TestHashVerificationToken(t *testing.T) {
	hash := hashVerificationToken("raw-token")

	assert.Len(t, hash, 64)
	assert.Equal(t, hash, hashVerificationToken("raw-token"))
	assert.NotEqual(t, hash, hashVerificationToken("other-token"))
	assert.NotContains(t, hash, "raw-token")
}
