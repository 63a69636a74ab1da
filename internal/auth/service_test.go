package auth

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/redmonkez12/mybucks/internal/logging"
	"github.com/redmonkez12/mybucks/internal/user"
	"github.com/redmonkez12/mybucks/internal/validation"
)

func newTestService(t *testing.T) (*Service, *user.MemoryRepository, *JWTService) {
	t.Helper()

	users := user.NewMemoryRepository()
	tokens, err := NewJWTService(testSecret, "mybucks-test", time.Hour)
	require.NoError(t, err)
	hasher, err := NewHasher(HashBcrypt, bcrypt.MinCost)
	require.NoError(t, err)
	logger := logging.NewLoggerWithWriter(io.Discard, false, "error")

	return NewService(users, tokens, hasher, logger), users, tokens
}

func TestService_SignupThenLogin(t *testing.T) {
	svc, users, tokens := newTestService(t)
	ctx := context.Background()

	created, err := svc.Signup(ctx, "a@x.com", "p1")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)

	stored, err := users.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.NotEqual(t, "p1", stored.PasswordHash)

	result, err := svc.Login(ctx, "a@x.com", "p1")
	require.NoError(t, err)
	assert.Equal(t, "Bearer", result.TokenType)
	assert.InDelta(t, 3600, result.ExpiresIn, 2)

	claims, err := tokens.VerifyToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, created.ID.String(), claims.UserID)
	assert.Equal(t, "a@x.com", claims.Email)
}

func TestService_SignupTrimsEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "  a@x.com ", "p1")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "a@x.com", "p1")
	assert.NoError(t, err)
}

func TestService_SignupDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "a@x.com", "p1")
	require.NoError(t, err)

	_, err = svc.Signup(ctx, "a@x.com", "other")
	assert.ErrorIs(t, err, user.ErrDuplicateEmail)
}

func TestService_SignupValidation(t *testing.T) {
	svc, _, _ := newTestService(t)

	tests := []struct {
		name     string
		email    string
		password string
		fields   []string
	}{
		{"empty both", "", "", []string{"email", "password"}},
		{"bad email", "not-an-email", "p1", []string{"email"}},
		{"display name form", "Alice <a@x.com>", "p1", []string{"email"}},
		{"long password", "a@x.com", string(make([]byte, 73)), []string{"password"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Signup(context.Background(), tt.email, tt.password)
			errs, ok := validation.As(err)
			require.True(t, ok, "expected validation errors, got %v", err)
			require.Len(t, errs, len(tt.fields))
			for _, f := range tt.fields {
				assert.True(t, errs.Has(f), f)
			}
		})
	}
}

func TestService_LoginFailuresAreIndistinguishable(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "a@x.com", "p1")
	require.NoError(t, err)

	_, unknownErr := svc.Login(ctx, "nobody@x.com", "p1")
	_, wrongErr := svc.Login(ctx, "a@x.com", "wrong")
	_, emptyErr := svc.Login(ctx, "", "")

	for _, err := range []error{unknownErr, wrongErr, emptyErr} {
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.Equal(t, "invalid email or password", err.Error())
	}
}

type failingUsers struct{ err error }

func (f failingUsers) Create(context.Context, string, string) (*user.User, error) { return nil, f.err }
func (f failingUsers) GetByEmail(context.Context, string) (*user.User, error)     { return nil, f.err }

func TestService_StoreFailuresAreWrapped(t *testing.T) {
	_, _, tokens := newTestService(t)
	hasher, err := NewHasher(HashBcrypt, bcrypt.MinCost)
	require.NoError(t, err)

	boom := errors.New("db down")
	svc := NewService(failingUsers{err: boom}, tokens, hasher, logging.NewLoggerWithWriter(io.Discard, false, "error"))

	_, err = svc.Signup(context.Background(), "a@x.com", "p1")
	assert.ErrorIs(t, err, boom)

	_, err = svc.Login(context.Background(), "a@x.com", "p1")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}
