package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheckPassword(t *testing.T) {
	old := HashCost
	HashCost = bcrypt.MinCost
	defer func() { HashCost = old }()

	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)

	assert.True(t, CheckPasswordHash("s3cret!", hash))
	assert.False(t, CheckPasswordHash("s3cret", hash))
	assert.False(t, CheckPasswordHash("s3cret!", "plain-text-from-old-rows"))
}

func TestHashPassword_LengthLimit(t *testing.T) {
	old := HashCost
	HashCost = bcrypt.MinCost
	defer func() { HashCost = old }()

	_, err := HashPassword(strings.Repeat("a", MaxPasswordBytes))
	assert.NoError(t, err)

	_, err = HashPassword(strings.Repeat("a", MaxPasswordBytes+1))
	assert.ErrorIs(t, err, bcrypt.ErrPasswordTooLong)
}
