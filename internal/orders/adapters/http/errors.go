package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dejobratic/skinstore/internal/orders/domain"
)

const msgInternalError = "internal error"

// writeServiceError translates the domain error taxonomy into a status code and
// a JSON error body. Unclassified errors never leak their text.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var (
		validationErr *domain.ValidationError
		signatureErr  *domain.SignatureVerificationError
		upstreamErr   *domain.UpstreamGatewayError
		partialErr    *domain.PartialFailureError
	)

	switch {
	case errors.As(err, &partialErr):
		writeError(w, http.StatusInternalServerError, fmt.Sprintf(
			"Payment session %s was created but the order could not be saved. Please contact support with this reference.",
			partialErr.SessionID,
		))
	case errors.As(err, &upstreamErr):
		writeError(w, http.StatusBadGateway, "payment gateway unavailable")
	case errors.As(err, &signatureErr):
		writeError(w, http.StatusBadRequest, signatureErr.Reason)
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Message)
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, msgInternalError)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
