package httputils

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/EDWINCHENC/c-transfer-unique/internal/pkg/apperrors"
)

type ErrorResponse struct {
	Code    apperrors.Code `json:"code"`
	Message string         `json:"message"`
}

func ResponseError(w http.ResponseWriter, statusCode int, code apperrors.Code, message string) {
	ResponseJSON(w, statusCode, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func ResponseJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// ResponseAppError maps an error's code to its HTTP status. Unknown errors
// collapse to a generic 500 so internals never leak to callers.
func ResponseAppError(w http.ResponseWriter, err error) {
	var ae *apperrors.AppError
	if !errors.As(err, &ae) {
		ResponseError(w, http.StatusInternalServerError, apperrors.CodeInternal, "internal server error")
		return
	}

	ResponseError(w, StatusOf(ae.Code), ae.Code, ae.Message)
}

func StatusOf(code apperrors.Code) int {
	switch code {
	case apperrors.CodeQuotaExceeded:
		return http.StatusTooManyRequests
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	case apperrors.CodeTooLarge:
		return http.StatusRequestEntityTooLarge
	case apperrors.CodeInvalidArgument:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
