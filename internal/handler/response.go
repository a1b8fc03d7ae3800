package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"couture-be/internal/apperror"
	"couture-be/internal/logger"

	"go.uber.org/zap"
)

var (
	ErrInvalidBody  = apperror.Validation("invalid request body")
	ErrInvalidID    = apperror.Validation("invalid id")
	errUnauthorized = errors.New("authentication required")
)

type errorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err onto the error envelope. Storage failures are logged
// and reported without their cause.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		status int
		code   string
		msg    string
	)

	kind := apperror.Kind(err)
	switch {
	case errors.Is(err, errUnauthorized):
		status, code, msg = http.StatusUnauthorized, "unauthorized", err.Error()
	case kind == apperror.ErrValidation:
		status, code, msg = http.StatusBadRequest, "validation_error", message(err, kind)
	case kind == apperror.ErrNotFound:
		status, code, msg = http.StatusNotFound, "not_found", message(err, kind)
	case kind == apperror.ErrForbidden:
		status, code, msg = http.StatusForbidden, "forbidden", message(err, kind)
	default:
		logger.FromCtx(r.Context()).Error("request failed",
			zap.String("layer", "handler"),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		status, code, msg = http.StatusInternalServerError, "internal_error", "internal server error"
	}

	writeJSON(w, status, errorResponse{
		Error:     code,
		Message:   msg,
		RequestID: logger.RequestIDFrom(r.Context()),
	})
}

// message drops the kind prefix, "validation error: x" -> "x".
func message(err, kind error) string {
	return strings.TrimPrefix(err.Error(), kind.Error()+": ")
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return ErrInvalidBody
	}
	return nil
}
