package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dejobratic/skinstore/internal/orders/app"
	"github.com/dejobratic/skinstore/internal/orders/app/queries"
	"github.com/dejobratic/skinstore/internal/webhook"
)

const (
	msgOrderCreated   = "Order created successfully"
	maxWebhookPayload = 1 << 16
	defaultAuditLimit = 50
)

// Handler exposes HTTP endpoints for order operations.
type Handler struct {
	service  *app.Service
	verifier *webhook.Verifier
	logger   *slog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(service *app.Service, verifier *webhook.Verifier, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		verifier: verifier,
		logger:   logger,
	}
}

// Routes binds the order endpoints. Public order and checkout creation go
// through limit; catalog and support endpoints go through admin.
func (h *Handler) Routes(r chi.Router, admin, limit func(http.Handler) http.Handler) {
	r.With(limit).Post("/orders", h.createOrder)
	r.With(limit).Post("/checkout/sessions", h.createCheckoutSession)
	r.Get("/orders/track", h.trackOrder)
	r.Get("/orders/{id}", h.getOrder)
	r.Post("/webhooks/payments", h.receiveWebhook)

	r.Route("/admin", func(r chi.Router) {
		r.Use(admin)
		r.Post("/products", h.createProduct)
		r.Get("/orders", h.listOrders)
		r.Get("/orders/{id}/audit", h.orderHistory)
	})
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var payload orderRequest
	if !h.decode(w, r, &payload) {
		return
	}

	h.withIdempotency(w, r, "orders", func() (idempotentResult, error) {
		details, err := h.service.CreateOrder(r.Context(), payload.toInput())
		if err != nil {
			return idempotentResult{}, err
		}
		return idempotentResult{
			status:  http.StatusCreated,
			payload: createOrderResponse{Message: msgOrderCreated, OrderID: details.Order.ID},
			orderID: details.Order.ID,
		}, nil
	})
}

func (h *Handler) createCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var payload orderRequest
	if !h.decode(w, r, &payload) {
		return
	}

	h.withIdempotency(w, r, "checkout", func() (idempotentResult, error) {
		result, err := h.service.InitiateCheckout(r.Context(), payload.toInput())
		if err != nil {
			return idempotentResult{}, err
		}
		return idempotentResult{
			status:  http.StatusCreated,
			payload: result,
			orderID: result.OrderID,
		}, nil
	})
}

func (h *Handler) trackOrder(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	details, err := h.service.ReconcileBySession(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	details, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

// receiveWebhook acknowledges a verified event once its effects are stored.
// Signature failures answer 400 so the gateway does not retry a forged
// delivery; storage failures answer 5xx so it does.
func (h *Handler) receiveWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookPayload+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read request body")
		return
	}
	if len(body) > maxWebhookPayload {
		writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}

	event, err := h.verifier.Verify(body, r.Header.Get(webhook.SignatureHeader))
	if err != nil {
		h.logger.WarnContext(r.Context(), "rejected webhook delivery",
			"remote_addr", r.RemoteAddr,
			"error", err,
		)
		writeServiceError(w, r, h.logger, err)
		return
	}

	outcome, err := h.service.ReconcileByEvent(r.Context(), event)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	h.logger.InfoContext(r.Context(), "webhook processed",
		"event_id", event.ID,
		"event_type", event.Type,
		"session_id", event.SessionID,
		"outcome", outcome,
	)
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var payload app.CreateProductInput
	if !h.decode(w, r, &payload) {
		return
	}

	product, err := h.service.CreateProduct(r.Context(), payload)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	query := queries.ListOrdersQuery{Status: r.URL.Query().Get("status")}

	var err error
	if query.Page, err = intParam(r, "page"); err != nil {
		writeError(w, http.StatusBadRequest, "page must be an integer")
		return
	}
	if query.PageSize, err = intParam(r, "page_size"); err != nil {
		writeError(w, http.StatusBadRequest, "page_size must be an integer")
		return
	}

	orders, err := h.service.ListOrders(r.Context(), query)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *Handler) orderHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, "limit must be an integer")
		return
	}
	if limit <= 0 {
		limit = defaultAuditLimit
	}

	entries, err := h.service.OrderHistory(r.Context(), chi.URLParam(r, "id"), int64(limit))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return false
	}
	return true
}

func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
