package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rl1809/order-refund/internal/core/domain"
	"github.com/rl1809/order-refund/internal/core/service"
	"github.com/rl1809/order-refund/internal/port"
)

type HTTPHandler struct {
	log     *slog.Logger
	refunds service.CommandHandler
	cache   port.CacheRepository
	tracer  trace.Tracer
}

type RefundUnitsHTTPRequest struct {
	RequestID   string  `json:"request_id"`
	UnitIDs     []int64 `json:"unit_ids"`
	ShipmentIDs []int64 `json:"shipment_ids"`
}

type RefundUnitsHTTPResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func NewHTTPHandler(log *slog.Logger, refunds service.CommandHandler, cache port.CacheRepository) *HTTPHandler {
	return &HTTPHandler{
		log:     log,
		refunds: refunds,
		cache:   cache,
		tracer:  otel.Tracer("refund-http"),
	}
}

func (h *HTTPHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", h.HealthCheck)
	r.Post("/api/orders/{number}/refund-units", h.RefundUnits)

	return r
}

func (h *HTTPHandler) RefundUnits(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "RefundUnits")
	defer span.End()

	number := chi.URLParam(r, "number")
	span.SetAttributes(attribute.String("order.number", number))

	var req RefundUnitsHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, RefundUnitsHTTPResponse{
			Success: false,
			Message: "invalid request body",
		})
		return
	}

	if req.RequestID == "" || number == "" {
		writeJSON(w, http.StatusBadRequest, RefundUnitsHTTPResponse{
			Success: false,
			Message: "missing required fields",
		})
		return
	}

	idemKey := fmt.Sprintf("refund:%s:%s", number, req.RequestID)
	ok, err := h.cache.SetIdempotency(ctx, idemKey)
	if err != nil {
		h.log.Error("idempotency check failed", "order_number", number, "err", err)
		writeJSON(w, http.StatusInternalServerError, RefundUnitsHTTPResponse{
			Success: false,
			Message: "internal error",
		})
		return
	}
	if !ok {
		writeJSON(w, http.StatusConflict, RefundUnitsHTTPResponse{
			Success: false,
			Message: "duplicate request",
		})
		return
	}

	if err := h.refunds.Handle(ctx, domain.NewRefundUnits(number, req.UnitIDs, req.ShipmentIDs)); err != nil {
		h.forgetRequest(ctx, number, idemKey)

		status, message := classify(err)
		if status == http.StatusInternalServerError {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			h.log.Error("refund units failed", "order_number", number, "err", err)
		}

		writeJSON(w, status, RefundUnitsHTTPResponse{
			Success: false,
			Message: message,
		})
		return
	}

	writeJSON(w, http.StatusOK, RefundUnitsHTTPResponse{
		Success: true,
		Message: "units refunded",
	})
}

// forgetRequest drops the idempotency key of a failed request so the client can retry it.
func (h *HTTPHandler) forgetRequest(ctx context.Context, number, key string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()

	if err := h.cache.DeleteIdempotency(ctx, key); err != nil {
		h.log.Error("drop idempotency key failed", "order_number", number, "key", key, "err", err)
	}
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
