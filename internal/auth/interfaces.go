package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/mybucks/internal/user"
)

// TokenService defines the interface for token creation and validation.
// Implementations include JWTService (HS256) and PasetoService (PASETO v4.local).
type TokenService interface {
	CreateToken(userID uuid.UUID, email string) (token string, expiresAt time.Time, err error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}

// UserRepository is the slice of the credential store the auth service needs.
type UserRepository interface {
	Create(ctx context.Context, email, passwordHash string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(encodedHash, password string) bool
}
