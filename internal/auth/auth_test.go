package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"math/big"
	"testing"
	"time"

	"assetlib/internal/domain"
	"assetlib/internal/domain/models"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestHMACVerifier_RoundTrip(t *testing.T) {
	v, err := NewHMACVerifier("s3cret", testLogger())
	require.NoError(t, err)

	token, err := v.GenerateToken("alice", "admin", time.Hour)
	require.NoError(t, err)

	claims, err := v.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, models.Principal{UserID: "alice", Role: "admin"}, claims.Principal())
}

func TestHMACVerifier_Rejects(t *testing.T) {
	v, err := NewHMACVerifier("s3cret", testLogger())
	require.NoError(t, err)
	other, err := NewHMACVerifier("other", testLogger())
	require.NoError(t, err)

	expired, err := v.GenerateToken("alice", "", -time.Minute)
	require.NoError(t, err)
	foreign, err := other.GenerateToken("alice", "", time.Hour)
	require.NoError(t, err)
	noSubject, err := v.GenerateToken("", "", time.Hour)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"expired":    expired,
		"wrong key":  foreign,
		"no subject": noSubject,
		"garbage":    "not.a.jwt",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := v.VerifyToken(token)
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
		})
	}

	_, err = NewHMACVerifier("", testLogger())
	assert.Error(t, err)
}

func rsaJWKS(t *testing.T, kid string, key *rsa.PublicKey) keyfunc.Keyfunc {
	t.Helper()
	enc := base64.RawURLEncoding
	set := map[string]any{
		"keys": []map[string]any{{
			"kty": "RSA",
			"kid": kid,
			"alg": "RS256",
			"use": "sig",
			"n":   enc.EncodeToString(key.N.Bytes()),
			"e":   enc.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		}},
	}
	raw, err := json.Marshal(set)
	require.NoError(t, err)

	jwks, err := keyfunc.NewJWKSetJSON(raw)
	require.NoError(t, err)
	return jwks
}

func TestJWKSVerifier(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	v := newJWKSVerifier(rsaJWKS(t, "k1", &key.PublicKey), testLogger())

	sign := func(method jwt.SigningMethod, signingKey any, sub string) string {
		claims := &models.AccessClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   sub,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		tok := jwt.NewWithClaims(method, claims)
		tok.Header["kid"] = "k1"
		s, err := tok.SignedString(signingKey)
		require.NoError(t, err)
		return s
	}

	claims, err := v.VerifyToken(sign(jwt.SigningMethodRS256, key, "bob"))
	require.NoError(t, err)
	assert.Equal(t, "bob", claims.GetUserID())

	// symmetric tokens are refused even when they parse
	_, err = v.VerifyToken(sign(jwt.SigningMethodHS256, []byte("k"), "bob"))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = v.VerifyToken(sign(jwt.SigningMethodRS256, key, ""))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	assert.NoError(t, v.Close())
}

func TestNewJWKSVerifier_RequiresURL(t *testing.T) {
	_, err := NewJWKSVerifier(t.Context(), "", testLogger())
	assert.EqualError(t, err, "JWKS URL cannot be empty")
}
