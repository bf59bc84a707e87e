package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rl1809/order-refund/internal/core/domain"
	"github.com/rl1809/order-refund/internal/port"
)

// Refunder refunds whatever is left of each unit (or shipment) of one refund type.
type Refunder struct {
	refundType  domain.RefundType
	refundables port.RefundableRepository
	refunds     port.RefundRepository
	now         func() time.Time
}

func NewUnitsRefunder(refundables port.RefundableRepository, refunds port.RefundRepository) *Refunder {
	return newRefunder(domain.RefundTypeOrderItemUnit, refundables, refunds)
}

func NewShipmentsRefunder(refundables port.RefundableRepository, refunds port.RefundRepository) *Refunder {
	return newRefunder(domain.RefundTypeShipment, refundables, refunds)
}

func newRefunder(refundType domain.RefundType, refundables port.RefundableRepository, refunds port.RefundRepository) *Refunder {
	return &Refunder{
		refundType:  refundType,
		refundables: refundables,
		refunds:     refunds,
		now:         time.Now,
	}
}

func (r *Refunder) RefundFromOrder(ctx context.Context, ids []int64, orderNumber string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	// amounts already taken by earlier ids of this batch
	pending := make(map[int64]int64, len(ids))
	refunds := make([]domain.Refund, 0, len(ids))
	var total int64

	for _, id := range ids {
		remaining, err := r.remaining(ctx, orderNumber, id)
		if err != nil {
			return 0, err
		}
		remaining -= pending[id]
		if remaining <= 0 {
			return 0, fmt.Errorf("%s %d of order %s: %w", r.refundType, id, orderNumber, domain.ErrUnitAlreadyRefunded)
		}

		pending[id] += remaining
		total += remaining
		refunds = append(refunds, domain.Refund{
			ID:             uuid.NewString(),
			OrderNumber:    orderNumber,
			RefundedUnitID: id,
			Type:           r.refundType,
			AmountCents:    remaining,
			CreatedAt:      r.now().UTC(),
		})
	}

	if err := r.refunds.CreateRefunds(ctx, refunds); err != nil {
		return 0, fmt.Errorf("create refunds: %w", err)
	}

	return total, nil
}

func (r *Refunder) remaining(ctx context.Context, orderNumber string, id int64) (int64, error) {
	total, err := r.refundables.RefundableTotal(ctx, orderNumber, id, r.refundType)
	if err != nil {
		return 0, err
	}

	refunded, err := r.refunds.RefundedUnitTotal(ctx, id, r.refundType)
	if err != nil {
		return 0, err
	}

	return total - refunded, nil
}
