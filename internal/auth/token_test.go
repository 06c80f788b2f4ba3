package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateAgentToken()
	require.NoError(t, err)
	assert.Len(t, token, 43)

	hash, err := HashToken(token)
	require.NoError(t, err)
	assert.True(t, IsTokenHash(hash))

	other, err := GenerateAgentToken()
	require.NoError(t, err)
	otherHash, err := HashToken(other)
	require.NoError(t, err)

	assert.True(t, VerifyToken(token, []string{otherHash, hash}))
	assert.True(t, VerifyToken(other, []string{otherHash, hash}))
	assert.False(t, VerifyToken("nope", []string{otherHash, hash}))
	assert.False(t, VerifyToken("", []string{hash}))
	assert.False(t, VerifyToken(token, nil))
}

func TestIsTokenHash(t *testing.T) {
	assert.False(t, IsTokenHash(""))
	assert.False(t, IsTokenHash("plaintext"))
	assert.False(t, IsTokenHash("$2a$xx"))
}
