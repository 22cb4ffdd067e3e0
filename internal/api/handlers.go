package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/terra-clan/interview-engine/internal/models"
)

var validate = newValidator()

// newValidator reports fields by their JSON names
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

const timeLayout = time.RFC3339

// Response helpers

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	writeError(w, status, &apiError{Code: code, Message: message})
}

func writeError(w http.ResponseWriter, status int, e *apiError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: false,
		Error:   e,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// classifyError maps a service error to its status and user-facing message
func classifyError(err error) (int, *apiError) {
	var (
		validation   *models.ValidationError
		insufficient *models.InsufficientCreditsError
		generation   *models.CategoryGenerationError
		persistence  *models.PersistenceError
	)

	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, &apiError{Code: "validation_error", Message: validation.Message, Field: validation.Field}
	case errors.As(err, &insufficient):
		return http.StatusPaymentRequired, &apiError{
			Code:    "insufficient_credits",
			Message: fmt.Sprintf("this interview costs %d credits but only %d are available", insufficient.Required, insufficient.Available),
		}
	case errors.As(err, &generation):
		return http.StatusBadGateway, &apiError{
			Code:    "generation_failed",
			Message: fmt.Sprintf("question generation failed for %s; credits already deducted are not refunded", generation.CategoryID),
		}
	case errors.As(err, &persistence):
		return http.StatusInternalServerError, &apiError{Code: "persistence_error", Message: "could not save changes; the draft was kept and the request can be retried"}
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, &apiError{Code: "not_found", Message: "resource not found"}
	case errors.Is(err, models.ErrSessionUnusable):
		return http.StatusGone, &apiError{Code: "session_unusable", Message: "this interview link has expired or was already used"}
	case errors.Is(err, models.ErrBusy):
		return http.StatusConflict, &apiError{Code: "busy", Message: "another operation is in progress for this draft"}
	case errors.Is(err, models.ErrAlreadyCommitted):
		return http.StatusConflict, &apiError{Code: "already_committed", Message: "this step has already been saved"}
	case errors.Is(err, models.ErrDraftLocked):
		return http.StatusConflict, &apiError{Code: "draft_locked", Message: "the draft can no longer be edited after questions were generated"}
	case errors.Is(err, models.ErrInvalidTransition):
		return http.StatusConflict, &apiError{Code: "invalid_transition", Message: "the draft is not at the right step for this action"}
	default:
		return http.StatusInternalServerError, &apiError{Code: "internal_error", Message: "internal server error"}
	}
}

// respondServiceError logs unexpected failures and writes the mapped error
func respondServiceError(w http.ResponseWriter, r *http.Request, err error, action string) {
	status, body := classifyError(err)
	if status >= http.StatusInternalServerError {
		slog.Error("failed to "+action, "error", err, "path", r.URL.Path, "owner", ownerFromContext(r.Context()))
	} else {
		slog.Debug("request rejected", "action", action, "error", err, "status", status)
	}
	writeError(w, status, body)
}

// decodeAndValidate reads a JSON body into dst and runs struct validation
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}

	if err := validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			writeError(w, http.StatusBadRequest, &apiError{
				Code:    "validation_error",
				Message: fmt.Sprintf("failed on '%s' rule", fe.Tag()),
				Field:   jsonFieldPath(fe.Namespace()),
			})
			return false
		}
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		return false
	}

	return true
}

// jsonFieldPath turns "selectCandidatesRequest.test_candidate.email" into "test_candidate.email"
func jsonFieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(timeLayout),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ready, checks := s.health.Ready(r.Context())
	if !ready {
		slog.Warn("readiness check failed", "checks", checks)
		respondError(w, http.StatusServiceUnavailable, "not_ready", "service not ready")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ready",
		"checks": checks,
	})
}
