package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/redmonkez12/mybucks/internal/httputil"
	"github.com/redmonkez12/mybucks/internal/logging"
)

// Identity is the caller resolved from a verified access token
type Identity struct {
	UserID uuid.UUID
	Email  string
}

type contextKey struct{}

var identityKey = contextKey{}

// Middleware handles authentication for protected routes
type Middleware struct {
	tokenService TokenService
}

func NewMiddleware(tokenService TokenService) *Middleware {
	return &Middleware{tokenService: tokenService}
}

// RequireAuth is a middleware that validates the bearer access token
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := logging.GetLoggerFromContext(r.Context())

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
			return
		}

		token, ok := parseBearer(authHeader)
		if !ok {
			httputil.RespondErrorWithCode(w, "invalid authorization header format", httputil.CodeInvalidAuthHeader, http.StatusUnauthorized)
			return
		}

		claims, err := m.tokenService.VerifyToken(token)
		if err != nil {
			if errors.Is(err, ErrExpiredToken) {
				httputil.RespondErrorWithCode(w, "token has expired", httputil.CodeTokenExpired, http.StatusUnauthorized)
				return
			}
			logger.Debug("token verification failed", "error", err.Error())
			httputil.RespondErrorWithCode(w, "invalid token", httputil.CodeInvalidToken, http.StatusUnauthorized)
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			httputil.RespondErrorWithCode(w, "invalid user ID in token", httputil.CodeInvalidTokenUserID, http.StatusUnauthorized)
			return
		}

		ctx := WithIdentity(r.Context(), Identity{UserID: userID, Email: claims.Email})
		ctx = logging.WithLogger(ctx, logger.WithFields(map[string]any{"user_id": userID}))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// parseBearer accepts exactly "Bearer <token>"
func parseBearer(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// WithIdentity attaches the caller identity to ctx
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the identity set by RequireAuth
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
