package models

import "github.com/golang-jwt/jwt/v5"

// Principal is the authenticated caller of an operation.
type Principal struct {
	UserID string `json:"user_id"`
	Role   string `json:"role,omitempty"`
}

// AccessClaims represents the JWT claims issued to library users.
type AccessClaims struct {
	jwt.RegisteredClaims        // Standard JWT claims (sub, iss, aud, exp, iat, etc.)
	Email                string `json:"email,omitempty"`
	Role                 string `json:"role,omitempty"` // platform role, e.g. "admin"
}

// GetUserID returns the user ID from the JWT subject claim.
func (c *AccessClaims) GetUserID() string {
	return c.Subject
}

// Principal converts verified claims into a Principal.
func (c *AccessClaims) Principal() Principal {
	return Principal{UserID: c.Subject, Role: c.Role}
}
