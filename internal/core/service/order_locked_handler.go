package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/order-refund/internal/core/domain"
	"github.com/rl1809/order-refund/internal/port"
)

const orderLockKeyPrefix = "refund-lock:"

var ErrOrderLocked = errors.New("order is being refunded by another request")

type CommandHandler interface {
	Handle(ctx context.Context, cmd domain.RefundUnits) error
}

// OrderLockedHandler runs at most one refund per order at a time.
type OrderLockedHandler struct {
	log   *slog.Logger
	next  CommandHandler
	cache port.CacheRepository
	ttl   time.Duration
}

func NewOrderLockedHandler(log *slog.Logger, next CommandHandler, cache port.CacheRepository, ttl time.Duration) *OrderLockedHandler {
	return &OrderLockedHandler{log: log, next: next, cache: cache, ttl: ttl}
}

func (h *OrderLockedHandler) Handle(ctx context.Context, cmd domain.RefundUnits) error {
	key := orderLockKeyPrefix + cmd.OrderNumber
	token := uuid.NewString()

	ok, err := h.cache.AcquireLock(ctx, key, token, h.ttl)
	if err != nil {
		return fmt.Errorf("acquire order lock: %w", err)
	}
	if !ok {
		return ErrOrderLocked
	}

	defer func() {
		// the request context may already be gone
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		if err := h.cache.ReleaseLock(releaseCtx, key, token); err != nil {
			h.log.Error("release order lock failed", "order_number", cmd.OrderNumber, "err", err)
		}
	}()

	return h.next.Handle(ctx, cmd)
}
