package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const minJWTSecretLen = 32

type jwtClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// JWTService handles HS256 JWT creation and validation
type JWTService struct {
	secret   []byte
	issuer   string
	duration time.Duration
	now      func() time.Time
}

func NewJWTService(secret []byte, issuer string, duration time.Duration) (*JWTService, error) {
	if len(secret) < minJWTSecretLen {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes, got %d", minJWTSecretLen, len(secret))
	}
	if duration <= 0 {
		return nil, fmt.Errorf("token duration must be positive, got %s", duration)
	}

	return &JWTService{
		secret:   secret,
		issuer:   issuer,
		duration: duration,
		now:      time.Now,
	}, nil
}

// CreateToken signs a new access token valid for the configured duration
func (s *JWTService) CreateToken(userID uuid.UUID, email string) (string, time.Time, error) {
	now := s.now()

	claims := jwtClaims{
		UserID: userID.String(),
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.duration)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, claims.ExpiresAt.Time, nil
}

// VerifyToken validates signature, issuer and expiry and returns the claims
func (s *JWTService) VerifyToken(tokenStr string) (*TokenClaims, error) {
	claims := &jwtClaims{}

	_, err := jwt.ParseWithClaims(tokenStr, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	out := &TokenClaims{
		UserID:    claims.UserID,
		Email:     claims.Email,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}
