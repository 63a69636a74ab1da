package auth

import (
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/google/uuid"
)

// PasetoService handles PASETO token creation and validation
// Uses v4.local (symmetric encryption with XChaCha20-Poly1305)
type PasetoService struct {
	symmetricKey paseto.V4SymmetricKey
	issuer       string
	duration     time.Duration
	now          func() time.Time
}

func NewPasetoService(symmetricKey []byte, issuer string, duration time.Duration) (*PasetoService, error) {
	if len(symmetricKey) != 32 {
		return nil, fmt.Errorf("symmetric key must be exactly 32 bytes, got %d", len(symmetricKey))
	}
	if duration <= 0 {
		return nil, fmt.Errorf("token duration must be positive, got %s", duration)
	}

	key, err := paseto.V4SymmetricKeyFromBytes(symmetricKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create symmetric key: %w", err)
	}

	return &PasetoService{
		symmetricKey: key,
		issuer:       issuer,
		duration:     duration,
		now:          time.Now,
	}, nil
}

// CreateToken generates a new PASETO v4.local token valid for the configured duration
func (s *PasetoService) CreateToken(userID uuid.UUID, email string) (string, time.Time, error) {
	now := s.now().Truncate(time.Second)
	expiresAt := now.Add(s.duration)

	token := paseto.NewToken()
	token.SetIssuer(s.issuer)
	token.SetSubject(userID.String())
	token.SetJti(uuid.NewString())
	token.SetIssuedAt(now)
	token.SetExpiration(expiresAt)
	token.SetString("userId", userID.String())
	token.SetString("email", email)

	return token.V4Encrypt(s.symmetricKey, nil), expiresAt, nil
}

// VerifyToken decrypts a PASETO v4.local token and returns the claims.
// Expiry is checked against the service clock, not the parser's.
func (s *PasetoService) VerifyToken(tokenStr string) (*TokenClaims, error) {
	parser := paseto.NewParserWithoutExpiryCheck()
	parser.AddRule(paseto.IssuedBy(s.issuer))

	token, err := parser.ParseV4Local(s.symmetricKey, tokenStr, nil)
	if err != nil {
		return nil, ErrInvalidToken
	}

	expiresAt, err := token.GetExpiration()
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !s.now().Before(expiresAt) {
		return nil, ErrExpiredToken
	}

	userID, err := token.GetString("userId")
	if err != nil {
		return nil, ErrInvalidToken
	}

	email, err := token.GetString("email")
	if err != nil {
		return nil, ErrInvalidToken
	}

	issuedAt, err := token.GetIssuedAt()
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &TokenClaims{
		UserID:    userID,
		Email:     email,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}
