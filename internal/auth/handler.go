package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/redmonkez12/mybucks/internal/httputil"
	"github.com/redmonkez12/mybucks/internal/logging"
	"github.com/redmonkez12/mybucks/internal/user"
	"github.com/redmonkez12/mybucks/internal/validation"
)

const maxBodyBytes = 1 << 20

// Handler contains HTTP handlers for authentication endpoints
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// CredentialsRequest is the signup and login request body
type CredentialsRequest struct {
	Email    string `json:"email" example:"a@example.com"`
	Password string `json:"password" example:"secret"`
}

// SignupResponse represents the signup response
type SignupResponse struct {
	Message string    `json:"message"`
	UserID  uuid.UUID `json:"userId"`
}

// Signup handles account creation
// @Summary      Create an account
// @Description  Create a new user account with email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body CredentialsRequest true "Signup credentials"
// @Success      200 {object} SignupResponse
// @Failure      400 {object} httputil.ErrorResponse "Validation error or email already exists"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/signup [post]
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req CredentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logger.Warn("invalid signup request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	newUser, err := h.service.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		if errs, ok := validation.As(err); ok {
			logger.Warn("signup failed: validation error", "error", err.Error())
			httputil.RespondValidationError(w, errs)
			return
		}
		if errors.Is(err, user.ErrDuplicateEmail) {
			logger.Warn("signup failed: email already exists")
			httputil.RespondErrorWithCode(w, "email already exists", httputil.CodeEmailAlreadyExists, http.StatusBadRequest)
			return
		}
		logger.Error("signup failed: internal error", "error", err.Error())
		httputil.RespondInternalError(w, "failed to create user")
		return
	}

	logger.Info("user signed up", "user_id", newUser.ID)

	httputil.RespondJSON(w, SignupResponse{
		Message: "User created successfully",
		UserID:  newUser.ID,
	}, http.StatusOK)
}

// Login handles user login
// @Summary      User login
// @Description  Authenticate with email and password and receive a bearer access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body CredentialsRequest true "Login credentials"
// @Success      200 {object} AuthTokens
// @Failure      400 {object} httputil.ErrorResponse "Invalid request body or invalid credentials"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req CredentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	tokens, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			logger.Warn("login failed: invalid credentials")
			httputil.RespondErrorWithCode(w, ErrInvalidCredentials.Error(), httputil.CodeInvalidCredentials, http.StatusBadRequest)
			return
		}
		logger.Error("login failed: internal error", "error", err.Error())
		httputil.RespondInternalError(w, "failed to login")
		return
	}

	logger.Info("user logged in")
	httputil.RespondJSON(w, tokens, http.StatusOK)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}
