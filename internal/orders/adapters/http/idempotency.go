package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dejobratic/skinstore/internal/orders/ports"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	headerReplayed       = "Idempotent-Replayed"
	maxIdempotencyKeyLen = 255
)

// idempotentResult is what a handler produces for a request that may be replayed.
type idempotentResult struct {
	status  int
	payload any
	orderID string
}

// withIdempotency replays the first stored response for a repeated
// Idempotency-Key. The key is reserved before run, so a concurrent duplicate
// gets 409 instead of running twice. Only successful responses are stored,
// and a failed attempt releases the key so it can be retried.
func (h *Handler) withIdempotency(w http.ResponseWriter, r *http.Request, scope string, run func() (idempotentResult, error)) {
	ctx := r.Context()

	key := strings.TrimSpace(r.Header.Get(headerIdempotencyKey))
	if len(key) > maxIdempotencyKeyLen {
		writeError(w, http.StatusBadRequest, "Idempotency-Key is too long")
		return
	}

	if key != "" {
		scoped := scope + ":" + key
		if h.replayIdempotent(w, r, scoped) {
			return
		}

		reserved, err := h.service.ReserveIdempotencyKey(ctx, scoped)
		if err != nil {
			writeServiceError(w, r, h.logger, err)
			return
		}
		if !reserved {
			// Lost the race; the winner may have finished in between.
			if !h.replayIdempotent(w, r, scoped) {
				writeError(w, http.StatusConflict, "a request with this Idempotency-Key is in progress")
			}
			return
		}
	}

	result, err := run()
	var body []byte
	if err == nil {
		body, err = json.Marshal(result.payload)
	}
	if err != nil {
		if key != "" {
			if relErr := h.service.ReleaseIdempotencyKey(ctx, scope+":"+key); relErr != nil {
				h.logger.WarnContext(ctx, "failed to release idempotency key",
					"scope", scope,
					"error", relErr,
				)
			}
		}
		writeServiceError(w, r, h.logger, err)
		return
	}

	h.finishIdempotent(r, scope, key, result, body)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(result.status)
	_, _ = w.Write(append(body, '\n'))
}

// replayIdempotent writes the stored response for key and reports whether it
// did. A pending reservation is answered with 409.
func (h *Handler) replayIdempotent(w http.ResponseWriter, r *http.Request, key string) bool {
	stored, err := h.service.GetIdempotentResponse(r.Context(), key)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return true
	}
	if stored == nil {
		return false
	}
	if stored.Pending() {
		writeError(w, http.StatusConflict, "a request with this Idempotency-Key is in progress")
		return true
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(headerReplayed, "true")
	w.WriteHeader(stored.StatusCode)
	_, _ = w.Write(stored.Body)
	return true
}

func (h *Handler) finishIdempotent(r *http.Request, scope, key string, result idempotentResult, body []byte) {
	if key == "" {
		return
	}

	ctx := r.Context()
	stored := ports.StoredResponse{StatusCode: result.status, Body: body, OrderID: result.orderID}
	if err := h.service.SaveIdempotentResponse(ctx, scope+":"+key, stored); err != nil {
		h.logger.WarnContext(ctx, "failed to store idempotent response",
			"scope", scope,
			"order_id", result.orderID,
			"error", err,
		)
	}
}
