package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/mybucks/internal/httputil"
)

func TestRequireAuth(t *testing.T) {
	now := time.Now()
	svc := newTestJWTService(t, now)
	userID := uuid.New()
	valid, _, err := svc.CreateToken(userID, "a@example.com")
	require.NoError(t, err)

	expiredSvc := newTestJWTService(t, now.Add(-2*time.Hour))
	expired, _, err := expiredSvc.CreateToken(userID, "a@example.com")
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantCode   string
	}{
		{"missing header", "", http.StatusUnauthorized, httputil.CodeMissingAuth},
		{"no scheme", valid, http.StatusUnauthorized, httputil.CodeInvalidAuthHeader},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized, httputil.CodeInvalidAuthHeader},
		{"lowercase scheme", "bearer " + valid, http.StatusUnauthorized, httputil.CodeInvalidAuthHeader},
		{"extra part", "Bearer " + valid + " x", http.StatusUnauthorized, httputil.CodeInvalidAuthHeader},
		{"bearer only", "Bearer ", http.StatusUnauthorized, httputil.CodeInvalidAuthHeader},
		{"garbage token", "Bearer abc.def.ghi", http.StatusUnauthorized, httputil.CodeInvalidToken},
		{"expired token", "Bearer " + expired, http.StatusUnauthorized, httputil.CodeTokenExpired},
		{"valid token", "Bearer " + valid, http.StatusOK, ""},
	}

	mw := NewMiddleware(svc)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Identity
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				id, ok := IdentityFromContext(r.Context())
				require.True(t, ok)
				got = id
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			mw.RequireAuth(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantCode != "" {
				var body httputil.ErrorResponse
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
				assert.Equal(t, tt.wantCode, body.Code)
				return
			}
			assert.Equal(t, userID, got.UserID)
			assert.Equal(t, "a@example.com", got.Email)
		})
	}
}

type stubTokens struct{ claims *TokenClaims }

func (s stubTokens) CreateToken(uuid.UUID, string) (string, time.Time, error) {
	return "stub", time.Now().Add(time.Hour), nil
}

func (s stubTokens) VerifyToken(string) (*TokenClaims, error) { return s.claims, nil }

func TestRequireAuth_RejectsNonUUIDSubject(t *testing.T) {
	mw := NewMiddleware(stubTokens{claims: &TokenClaims{UserID: "42", Email: "a@example.com"}})
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next must not be called")
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer stub")
	rec := httptest.NewRecorder()
	mw.RequireAuth(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), httputil.CodeInvalidTokenUserID)
}

func TestIdentityFromContext(t *testing.T) {
	id := uuid.New()
	ctx := WithIdentity(httptest.NewRequest(http.MethodGet, "/", nil).Context(), Identity{UserID: id, Email: "a@example.com"})

	got, ok := IdentityFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, id, got.UserID)
	assert.Equal(t, "a@example.com", got.Email)

	_, ok = IdentityFromContext(context.Background())
	assert.False(t, ok)
}
