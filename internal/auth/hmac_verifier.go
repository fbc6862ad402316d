package auth

import (
	"errors"
	"log/slog"
	"time"

	"assetlib/internal/domain"
	"assetlib/internal/domain/models"

	"github.com/golang-jwt/jwt/v5"
)

// HMACVerifier verifies HS256 tokens signed with a shared secret. It backs
// local development and deployments without an identity provider.
type HMACVerifier struct {
	secret []byte
	logger *slog.Logger
}

// NewHMACVerifier creates a shared-secret verifier
func NewHMACVerifier(secret string, logger *slog.Logger) (*HMACVerifier, error) {
	if secret == "" {
		return nil, errors.New("JWT secret cannot be empty")
	}
	return &HMACVerifier{secret: []byte(secret), logger: logger}, nil
}

func (v *HMACVerifier) VerifyToken(tokenString string) (*models.AccessClaims, error) {
	claims := &models.AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		v.logger.Debug("token parse failed", "error", err)
		return nil, domain.ErrUnauthorized
	}
	return checkClaims(token, v.logger)
}

// GenerateToken signs a token for userID. Used by tooling and tests.
func (v *HMACVerifier) GenerateToken(userID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &models.AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

func (v *HMACVerifier) Close() error {
	return nil
}
