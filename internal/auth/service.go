package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/redmonkez12/mybucks/internal/logging"
	"github.com/redmonkez12/mybucks/internal/user"
	"github.com/redmonkez12/mybucks/internal/validation"
)

// ErrInvalidCredentials covers unknown email and wrong password alike.
var ErrInvalidCredentials = errors.New("invalid email or password")

const maxEmailLen = 254

// AuthTokens is returned on successful login
type AuthTokens struct {
	Token     string    `json:"token"`
	TokenType string    `json:"tokenType"`
	ExpiresIn int64     `json:"expiresIn"` // seconds
	ExpiresAt time.Time `json:"expiresAt"`
}

// Service handles authentication business logic
type Service struct {
	users  UserRepository
	tokens TokenService
	hasher PasswordHasher
	logger *logging.Logger
}

func NewService(users UserRepository, tokens TokenService, hasher PasswordHasher, logger *logging.Logger) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		hasher: hasher,
		logger: logger,
	}
}

// Signup creates a new account. Field problems come back as validation.Errors.
func (s *Service) Signup(ctx context.Context, email, password string) (*user.User, error) {
	email = strings.TrimSpace(email)

	var errs validation.Errors
	switch {
	case email == "":
		errs.Add("email", "email is required", nil)
	case len(email) > maxEmailLen:
		errs.Add("email", fmt.Sprintf("email must be at most %d characters", maxEmailLen), nil)
	default:
		if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
			errs.Add("email", "invalid email format", email)
		}
	}
	switch {
	case password == "":
		errs.Add("password", "password is required", nil)
	case len(password) > maxPasswordBytes:
		errs.Add("password", fmt.Sprintf("password must be at most %d bytes", maxPasswordBytes), nil)
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser, err := s.users.Create(ctx, email, passwordHash)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, user.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Debug("user created", "user_id", newUser.ID)
	return newUser, nil
}

// Login authenticates a user and returns an access token
func (s *Service) Login(ctx context.Context, email, password string) (*AuthTokens, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	existingUser, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !s.hasher.Compare(existingUser.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.CreateToken(existingUser.ID, existingUser.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	return &AuthTokens{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int64(time.Until(expiresAt).Round(time.Second).Seconds()),
		ExpiresAt: expiresAt.UTC(),
	}, nil
}
