package httputil

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/redmonkez12/mybucks/internal/validation"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error   string                  `json:"error"`
	Code    string                  `json:"code,omitempty"`
	Details []validation.FieldError `json:"details,omitempty"`
}

// RespondJSON sends a JSON response with the given status code.
// Logs encoding errors to avoid silent failures.
func RespondJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
	}
}

// RespondErrorWithCode sends a JSON error response with a machine-readable error code.
func RespondErrorWithCode(w http.ResponseWriter, message string, code string, statusCode int) {
	RespondJSON(w, ErrorResponse{Error: message, Code: code}, statusCode)
}

// RespondValidationError reports every field violation in a single 400 response.
func RespondValidationError(w http.ResponseWriter, errs validation.Errors) {
	RespondJSON(w, ErrorResponse{
		Error:   "Validation failed",
		Code:    CodeValidationFailed,
		Details: errs,
	}, http.StatusBadRequest)
}

// RespondInternalError hides the cause from the client; callers log it.
func RespondInternalError(w http.ResponseWriter, message string) {
	RespondErrorWithCode(w, message, CodeInternalError, http.StatusInternalServerError)
}
