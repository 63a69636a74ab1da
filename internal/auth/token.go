package auth

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is an ErrInvalidToken; check it first to tell the two apart.
	ErrExpiredToken = fmt.Errorf("%w: token has expired", ErrInvalidToken)
)

// TokenClaims represents the identity carried by an access token
type TokenClaims struct {
	UserID    string    `json:"userId"` // UUID stored as string in token
	Email     string    `json:"email"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}
