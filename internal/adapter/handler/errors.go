package handler

import (
	"errors"
	"net/http"

	"github.com/rl1809/order-refund/internal/core/domain"
	"github.com/rl1809/order-refund/internal/core/service"
)

// classify maps a refund error to an HTTP status and a client-facing message.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrOrderNotAvailableForRefunding):
		return http.StatusConflict, "order not available for refunding"
	case errors.Is(err, service.ErrOrderLocked):
		return http.StatusConflict, "order is being refunded"
	case errors.Is(err, domain.ErrOrderNotFound):
		return http.StatusNotFound, "order not found"
	case errors.Is(err, domain.ErrUnitAlreadyRefunded):
		return http.StatusUnprocessableEntity, "unit already refunded"
	case errors.Is(err, domain.ErrRefundableNotFound):
		return http.StatusUnprocessableEntity, "unit not found in order"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
