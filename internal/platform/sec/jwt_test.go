// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/scholaris/internal/platform/sec"
)

func signToken(t *testing.T, key *rsa.PrivateKey, claims sec.AuthClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return signed
}

func validClaims(role sec.UserRole) sec.AuthClaims {
	now := time.Now()
	return sec.AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u-1",
			Issuer:    "scholaris.app",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		UserID:   "u-1",
		Username: "hala",
		Role:     string(role),
	}
}

/*
TestVerifyToken checks that the verifier accepts well-formed tokens and rejects
tampered, expired, foreign-issuer and unknown-role tokens.
*/
func TestVerifyToken(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	verifier := sec.NewTokenVerifierFromKey(&key.PublicKey, "scholaris.app")

	t.Run("valid admin", func(t *testing.T) {
		claims, err := verifier.VerifyToken(signToken(t, key, validClaims(sec.RoleAdmin)))
		require.NoError(t, err)
		assert.Equal(t, "u-1", claims.UserID)
		assert.True(t, claims.IsAdmin())
	})

	t.Run("wrong key", func(t *testing.T) {
		_, err := verifier.VerifyToken(signToken(t, otherKey, validClaims(sec.RoleUser)))
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		claims := validClaims(sec.RoleUser)
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
		_, err := verifier.VerifyToken(signToken(t, key, claims))
		assert.Error(t, err)
	})

	t.Run("foreign issuer", func(t *testing.T) {
		claims := validClaims(sec.RoleUser)
		claims.Issuer = "elsewhere"
		_, err := verifier.VerifyToken(signToken(t, key, claims))
		assert.Error(t, err)
	})

	t.Run("unknown role", func(t *testing.T) {
		_, err := verifier.VerifyToken(signToken(t, key, validClaims("superuser")))
		assert.ErrorIs(t, err, sec.ErrInvalidClaims)
	})
}

func TestRoleHierarchy(t *testing.T) {
	assert.True(t, sec.RoleAdmin.AtLeast(sec.RoleUser))
	assert.False(t, sec.RoleUser.AtLeast(sec.RoleAdmin))
	assert.False(t, sec.UserRole("guest").Valid())
}
