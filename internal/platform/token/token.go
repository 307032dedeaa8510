// Package token verifies bearer credentials issued by the external identity
// collaborator. Only verification lives here; issuance (login, password
// hashing) is out of scope.
package token

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"rollcall/internal/platform/auth"
)

type claims struct {
	LecturerID string `json:"lecturer_id"`
	NIDN       string `json:"nidn"`
	jwt.RegisteredClaims
}

// Verifier validates HMAC-signed lecturer tokens.
type Verifier struct {
	signingKey []byte
}

func NewVerifier(signingKey string) *Verifier {
	return &Verifier{signingKey: []byte(signingKey)}
}

// Verify parses and validates the token, returning the principal it asserts.
func (v *Verifier) Verify(tokenString string) (auth.Principal, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.signingKey, nil
	})
	if err != nil {
		return auth.Principal{}, fmt.Errorf("parse token: %w", err)
	}
	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return auth.Principal{}, errors.New("invalid token claims")
	}
	if c.LecturerID == "" {
		return auth.Principal{}, errors.New("token missing lecturer_id claim")
	}
	return auth.Principal{LecturerID: c.LecturerID, NIDN: c.NIDN}, nil
}
