package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "test-signing-key"

func sign(t *testing.T, key string, c jwt.Claims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(key))
	require.NoError(t, err)
	return signed
}

func TestVerify(t *testing.T) {
	v := NewVerifier(testKey)

	signed := sign(t, testKey, claims{
		LecturerID: "lect-1",
		NIDN:       "0012089001",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	p, err := v.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "lect-1", p.LecturerID)
	assert.Equal(t, "0012089001", p.NIDN)
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	v := NewVerifier(testKey)

	signed := sign(t, "other-key", claims{LecturerID: "lect-1"})
	_, err := v.Verify(signed)
	require.Error(t, err)
}

func TestVerifyRejectsExpired(t *testing.T) {
	v := NewVerifier(testKey)

	signed := sign(t, testKey, claims{
		LecturerID: "lect-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	_, err := v.Verify(signed)
	require.Error(t, err)
}

func TestVerifyRequiresLecturerID(t *testing.T) {
	v := NewVerifier(testKey)

	signed := sign(t, testKey, claims{NIDN: "0012089001"})
	_, err := v.Verify(signed)
	require.Error(t, err)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	v := NewVerifier(testKey)
	_, err := v.Verify("not-a-jwt")
	require.Error(t, err)
}
