package auth

import "assetlib/internal/domain/models"

// TokenVerifier validates bearer tokens. The middleware only depends on
// this interface so JWKS and shared-secret verification are interchangeable.
type TokenVerifier interface {
	// VerifyToken validates a JWT and returns its claims. Any failure is
	// reported as domain.ErrUnauthorized.
	VerifyToken(tokenString string) (*models.AccessClaims, error)

	// Close releases resources held by the verifier
	Close() error
}
