package service

import (
	"context"
	"log/slog"

	"github.com/rl1809/order-refund/internal/core/domain"
	"github.com/rl1809/order-refund/internal/port"
)

type OrderFullyRefundedTotalChecker struct {
	refunds port.RefundRepository
}

func NewOrderFullyRefundedTotalChecker(refunds port.RefundRepository) *OrderFullyRefundedTotalChecker {
	return &OrderFullyRefundedTotalChecker{refunds: refunds}
}

func (c *OrderFullyRefundedTotalChecker) Check(ctx context.Context, order domain.Order) (bool, error) {
	refunded, err := c.refunds.RefundedTotal(ctx, order.Number)
	if err != nil {
		return false, err
	}

	return refunded == order.TotalCents, nil
}

type OrderFullyRefundedStateResolver struct {
	log    *slog.Logger
	orders port.OrderRepository
}

func NewOrderFullyRefundedStateResolver(log *slog.Logger, orders port.OrderRepository) *OrderFullyRefundedStateResolver {
	return &OrderFullyRefundedStateResolver{log: log, orders: orders}
}

// Resolve applies the refund transition. Orders that cannot take it are left untouched.
func (r *OrderFullyRefundedStateResolver) Resolve(ctx context.Context, order domain.Order) error {
	if !order.CanRefundFully() {
		r.log.Info("refund transition not applicable", "order_number", order.Number, "payment_state", order.PaymentState)
		return nil
	}

	order.PaymentState = domain.PaymentStateRefunded
	if err := r.orders.UpdatePaymentState(ctx, order); err != nil {
		return err
	}

	r.log.Info("order fully refunded", "order_number", order.Number)
	return nil
}

// PartialRefundRecorder moves a paid order to partially refunded when units get refunded.
type PartialRefundRecorder struct {
	log    *slog.Logger
	orders port.OrderRepository
}

func NewPartialRefundRecorder(log *slog.Logger, orders port.OrderRepository) *PartialRefundRecorder {
	return &PartialRefundRecorder{log: log, orders: orders}
}

func (p *PartialRefundRecorder) OnUnitsRefunded(ctx context.Context, event domain.UnitsRefunded) error {
	if event.Amount == 0 {
		return nil
	}

	order, err := p.orders.FindOneByNumber(ctx, event.OrderNumber)
	if err != nil {
		return err
	}
	if !order.CanRefundPartially() {
		return nil
	}

	order.PaymentState = domain.PaymentStatePartiallyRefunded
	if err := p.orders.UpdatePaymentState(ctx, order); err != nil {
		return err
	}

	p.log.Info("order partially refunded", "order_number", order.Number, "amount", event.Amount)
	return nil
}
