package port

import (
	"context"

	"github.com/rl1809/order-refund/internal/core/domain"
)

type AvailabilityChecker interface {
	// IsAvailable reports whether refunds may be issued for the order right now
	IsAvailable(ctx context.Context, orderNumber string) (bool, error)
}

type Refunder interface {
	// RefundFromOrder refunds the given ids of the order and returns the refunded amount in minor units
	RefundFromOrder(ctx context.Context, ids []int64, orderNumber string) (int64, error)
}

type FullyRefundedTotalChecker interface {
	// Check reports whether the refunded total of the order equals its payable total
	Check(ctx context.Context, order domain.Order) (bool, error)
}

type FullyRefundedStateResolver interface {
	// Resolve marks the order as fully refunded
	Resolve(ctx context.Context, order domain.Order) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event domain.UnitsRefunded) error
}
