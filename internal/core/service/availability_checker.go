package service

import (
	"context"
	"errors"

	"github.com/rl1809/order-refund/internal/core/domain"
	"github.com/rl1809/order-refund/internal/port"
)

type OrderRefundingAvailabilityChecker struct {
	orders port.OrderRepository
}

func NewOrderRefundingAvailabilityChecker(orders port.OrderRepository) *OrderRefundingAvailabilityChecker {
	return &OrderRefundingAvailabilityChecker{orders: orders}
}

// IsAvailable is true for paid or partially refunded orders. Unknown orders are not available.
func (c *OrderRefundingAvailabilityChecker) IsAvailable(ctx context.Context, orderNumber string) (bool, error) {
	order, err := c.orders.FindOneByNumber(ctx, orderNumber)
	if errors.Is(err, domain.ErrOrderNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return order.IsRefundable(), nil
}
