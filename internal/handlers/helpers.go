package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/iamciscoo/tisco-payments/internal/service"
)

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, message string) {
	writeJSON(w, logger, status, map[string]string{"error": message})
}

// statusForServiceError maps pipeline error codes to HTTP statuses.
// Ambiguous matches fail loudly with 500 rather than silently picking a row.
func statusForServiceError(err error) int {
	var svcErr *service.ServiceError
	if !errors.As(err, &svcErr) {
		return http.StatusInternalServerError
	}

	switch svcErr.Code {
	case service.ErrCodeTransactionNotFound:
		return http.StatusNotFound
	case service.ErrCodeAmbiguousTransaction, service.ErrCodeInternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
