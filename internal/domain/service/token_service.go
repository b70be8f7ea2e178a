package service

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims defines the custom claims for the admin dashboard JWT.
type Claims struct {
	Subject string
	jwt.RegisteredClaims
}

// TokenService defines the interface for generating and validating JWTs.
// This abstracts the details of token creation from the use cases.
type TokenService interface {
	// GenerateToken creates a new access token for the dashboard session.
	GenerateToken(subject string) (string, error)

	// ValidateToken checks the validity of a token string.
	ValidateToken(tokenString string) (*Claims, error)
}
