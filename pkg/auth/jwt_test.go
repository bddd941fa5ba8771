package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerify(t *testing.T) {
	t.Parallel()

	s := NewSigner("super-secret", time.Hour)
	tok, err := s.Sign(42)
	require.NoError(t, err)

	claims, err := s.Verify(tok)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 2*time.Second)
}

func TestSign_UniquePerCall(t *testing.T) {
	t.Parallel()

	s := NewSigner("k", time.Hour)
	a, err := s.Sign(1)
	require.NoError(t, err)
	b, err := s.Sign(1)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	s := NewSigner("k", -time.Second)
	tok, err := s.Sign(1)
	require.NoError(t, err)

	_, err = s.Verify(tok)
	require.Error(t, err)
	assert.True(t, errors.Is(err, jwt.ErrTokenExpired))
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewSigner("right", time.Hour).Sign(1)
	require.NoError(t, err)

	_, err = NewSigner("wrong", time.Hour).Verify(tok)
	assert.Error(t, err)
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	claims := jwt.RegisteredClaims{Subject: "1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	require.NoError(t, err)

	_, err = NewSigner("k", time.Hour).Verify(tok)
	assert.Error(t, err)
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()

	_, err := NewSigner("k", time.Hour).Verify("not.a.jwt")
	assert.Error(t, err)
}

func TestClaims_MalformedSubject(t *testing.T) {
	t.Parallel()

	c := &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "alice"}}
	_, err := c.UserID()
	assert.ErrorIs(t, err, ErrMalformedSubject)
}
