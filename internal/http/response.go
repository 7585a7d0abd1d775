package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"planner/internal/categorize"
	"planner/internal/core"
	"planner/internal/log"
	"planner/internal/services"
	"planner/internal/statement"
	"planner/internal/storage"
)

const (
	codeInvalidInput     = "invalid_input"
	codeValidation       = "validation_failed"
	codeNotFound         = "not_found"
	codeTooLarge         = "payload_too_large"
	codeRateLimited      = "rate_limited"
	codeMethodNotAllowed = "method_not_allowed"
	codeInternal         = "internal_error"
)

// maxJSONBody caps request bodies other than statement uploads.
const maxJSONBody = 64 << 10

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// inputError reports a request the client must fix before retrying.
type inputError struct {
	msg string
}

func (e *inputError) Error() string { return e.msg }

func badInput(format string, args ...any) error {
	return &inputError{msg: fmt.Sprintf(format, args...)}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	if status < http.StatusInternalServerError {
		log.FromContext(r.Context()).DebugContext(r.Context(), "Request rejected",
			log.FieldStatusCode, status, "code", code, log.FieldError, message)
	}
	writeJSON(w, status, ErrorResponse{
		Code:      code,
		Message:   message,
		RequestID: w.Header().Get("X-Request-ID"),
	})
}

// handleError maps err onto a status code. Internal details are logged,
// never echoed.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	var (
		inErr  *inputError
		bigErr *http.MaxBytesError
	)
	switch {
	case errors.As(err, &bigErr):
		s.writeError(w, r, http.StatusRequestEntityTooLarge, codeTooLarge,
			fmt.Sprintf("request body exceeds %d bytes", bigErr.Limit))
	case errors.As(err, &inErr), errors.Is(err, services.ErrInvalidRange):
		s.writeError(w, r, http.StatusBadRequest, codeInvalidInput, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		s.writeError(w, r, http.StatusNotFound, codeNotFound, err.Error())
	case isValidation(err):
		s.writeError(w, r, http.StatusUnprocessableEntity, codeValidation, err.Error())
	default:
		logger.ErrorContext(ctx, "Request failed", log.FieldError, err,
			log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
		s.writeError(w, r, http.StatusInternalServerError, codeInternal, "an unexpected error occurred")
	}
}

func isValidation(err error) bool {
	for _, target := range []error{
		storage.ErrInvalid,
		statement.ErrInvalidConfig,
		categorize.ErrInvalidRules,
		core.ErrInvalidAmount,
		core.ErrEmptyName,
		core.ErrInvalidKind,
		core.ErrInvalidType,
		core.ErrMalformedRecurring,
		core.ErrInvalidWindow,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// decodeJSON reads a single JSON object from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var bigErr *http.MaxBytesError
		if errors.As(err, &bigErr) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return badInput("request body is empty")
		}
		return badInput("malformed JSON: %v", err)
	}
	if dec.More() {
		return badInput("request body must hold a single JSON object")
	}
	return nil
}
