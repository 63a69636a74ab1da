package transaction

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/redmonkez12/mybucks/internal/auth"
	"github.com/redmonkez12/mybucks/internal/httputil"
	"github.com/redmonkez12/mybucks/internal/logging"
	"github.com/redmonkez12/mybucks/internal/validation"
)

const (
	IdempotencyKeyHeader     = "Idempotency-Key"
	IdempotentReplayedHeader = "Idempotent-Replayed"
	maxBodyBytes             = 1 << 20
)

// Handler contains HTTP handlers for transaction endpoints. All routes sit behind auth.RequireAuth.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Create handles POST /api/transaction
// @Summary      Create a transaction
// @Description  Record a signed amount for the authenticated user. Negative prices are expenses.
// @Description  Send an Idempotency-Key header to make retries safe.
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key header string false "Client-generated key for safe retries"
// @Param        request body CreateInput true "Transaction"
// @Success      201 {object} Transaction
// @Success      200 {object} Transaction "Replay of an earlier request with the same Idempotency-Key"
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Failure      401 {object} httputil.ErrorResponse "Unauthenticated"
// @Failure      409 {object} httputil.ErrorResponse "Idempotency key in progress"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /transaction [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	var in CreateInput
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		logger.Warn("invalid transaction request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	created, replayed, err := h.service.CreateIdempotent(r.Context(), identity.UserID, r.Header.Get(IdempotencyKeyHeader), in)
	if err != nil {
		if errs, ok := validation.As(err); ok {
			logger.Warn("transaction rejected: validation error", "error", err.Error())
			httputil.RespondValidationError(w, errs)
			return
		}
		switch {
		case errors.Is(err, ErrInvalidIdempotencyKey):
			httputil.RespondValidationError(w, validation.Errors{{Field: IdempotencyKeyHeader, Message: err.Error()}})
		case errors.Is(err, ErrIdempotencyInProgress):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeIdempotencyInProgress, http.StatusConflict)
		case errors.Is(err, ErrNotFound):
			// the replayed record was deleted after the first request
			httputil.RespondErrorWithCode(w, "transaction not found", httputil.CodeTransactionNotFound, http.StatusNotFound)
		default:
			logger.Error("failed to create transaction", "error", err.Error())
			httputil.RespondInternalError(w, "failed to create transaction")
		}
		return
	}

	if replayed {
		logger.Info("transaction create replayed", "transaction_id", created.ID)
		w.Header().Set(IdempotentReplayedHeader, "true")
		httputil.RespondJSON(w, created, http.StatusOK)
		return
	}

	logger.Info("transaction created", "transaction_id", created.ID)
	httputil.RespondJSON(w, created, http.StatusCreated)
}

// List handles GET /api/transactions
// @Summary      List transactions
// @Description  Page through the authenticated user's transactions
// @Tags         transactions
// @Produce      json
// @Security     BearerAuth
// @Param        sort   query string false "Sort order" Enums(latest, oldest, highest, lowest) default(latest)
// @Param        limit  query int    false "Page size, 1-1000" default(100)
// @Param        offset query int    false "Records to skip" default(0)
// @Success      200 {object} ListResult
// @Failure      400 {object} httputil.ErrorResponse "Invalid sort"
// @Failure      401 {object} httputil.ErrorResponse "Unauthenticated"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /transactions [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	query := r.URL.Query()
	q, err := ParseListQuery(query.Get("sort"), query.Get("limit"), query.Get("offset"))
	if err != nil {
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeInvalidSort, http.StatusBadRequest)
		return
	}

	result, err := h.service.List(r.Context(), identity.UserID, q)
	if err != nil {
		if errors.Is(err, ErrInvalidSort) {
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeInvalidSort, http.StatusBadRequest)
			return
		}
		logger.Error("failed to list transactions", "error", err.Error())
		httputil.RespondInternalError(w, "failed to list transactions")
		return
	}

	httputil.RespondJSON(w, result, http.StatusOK)
}

// Summary handles GET /api/transactions/summary
// @Summary      Transaction summary
// @Description  Income, expenses and balance of the authenticated user as two-decimal strings
// @Tags         transactions
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} Summary
// @Failure      401 {object} httputil.ErrorResponse "Unauthenticated"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /transactions/summary [get]
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	summary, err := h.service.Summary(r.Context(), identity.UserID)
	if err != nil {
		logger.Error("failed to summarize transactions", "error", err.Error())
		httputil.RespondInternalError(w, "failed to summarize transactions")
		return
	}

	httputil.RespondJSON(w, summary, http.StatusOK)
}

// Delete handles DELETE /api/transaction/{id}
// @Summary      Delete a transaction
// @Description  Delete one of the authenticated user's transactions. Someone else's id is reported as not found.
// @Tags         transactions
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Transaction ID" format(uuid)
// @Success      200 {object} DeleteResult
// @Failure      400 {object} httputil.ErrorResponse "Malformed id"
// @Failure      401 {object} httputil.ErrorResponse "Unauthenticated"
// @Failure      404 {object} httputil.ErrorResponse "Not found"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /transaction/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	deleted, err := h.service.Delete(r.Context(), identity.UserID, chi.URLParam(r, "id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidID):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeInvalidTransactionID, http.StatusBadRequest)
		case errors.Is(err, ErrNotFound):
			httputil.RespondErrorWithCode(w, "transaction not found", httputil.CodeTransactionNotFound, http.StatusNotFound)
		default:
			logger.Error("failed to delete transaction", "error", err.Error())
			httputil.RespondInternalError(w, "failed to delete transaction")
		}
		return
	}

	logger.Info("transaction deleted", "transaction_id", deleted.ID)
	httputil.RespondJSON(w, DeleteResult{Success: true, Deleted: *deleted}, http.StatusOK)
}
