package port

import (
	"context"

	"github.com/rl1809/order-refund/internal/core/domain"
)

type OrderRepository interface {
	// FindOneByNumber returns domain.ErrOrderNotFound when no order has the number
	FindOneByNumber(ctx context.Context, number string) (domain.Order, error)

	// UpdatePaymentState persists the order's payment state with version check for optimistic locking
	UpdatePaymentState(ctx context.Context, order domain.Order) error
}

type RefundRepository interface {
	// CreateRefunds persists all refunds in a single transaction. It returns
	// domain.ErrUnitAlreadyRefunded, persisting nothing, when a refund would
	// exceed what is left of its unit or shipment.
	CreateRefunds(ctx context.Context, refunds []domain.Refund) error

	// RefundedTotal sums every refund issued for the order
	RefundedTotal(ctx context.Context, orderNumber string) (int64, error)

	// RefundedUnitTotal sums refunds issued for one unit or shipment
	RefundedUnitTotal(ctx context.Context, unitID int64, refundType domain.RefundType) (int64, error)
}

type RefundableRepository interface {
	// RefundableTotal returns the payable total of a unit or shipment belonging to the order,
	// or domain.ErrRefundableNotFound
	RefundableTotal(ctx context.Context, orderNumber string, id int64, refundType domain.RefundType) (int64, error)
}
