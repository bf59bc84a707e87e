package service

import (
	"context"
	"errors"

	"github.com/rl1809/order-refund/internal/core/domain"
	"github.com/rl1809/order-refund/internal/port"
)

var ErrOrderNotAvailableForRefunding = errors.New("order not available for refunding")

type RefundUnitsHandler struct {
	unitsRefunder     port.Refunder
	shipmentsRefunder port.Refunder
	availability      port.AvailabilityChecker
	publisher         port.EventPublisher
	orders            port.OrderRepository
	totalChecker      port.FullyRefundedTotalChecker
	stateResolver     port.FullyRefundedStateResolver
}

func NewRefundUnitsHandler(
	unitsRefunder port.Refunder,
	shipmentsRefunder port.Refunder,
	availability port.AvailabilityChecker,
	publisher port.EventPublisher,
	orders port.OrderRepository,
	totalChecker port.FullyRefundedTotalChecker,
	stateResolver port.FullyRefundedStateResolver,
) *RefundUnitsHandler {
	return &RefundUnitsHandler{
		unitsRefunder:     unitsRefunder,
		shipmentsRefunder: shipmentsRefunder,
		availability:      availability,
		publisher:         publisher,
		orders:            orders,
		totalChecker:      totalChecker,
		stateResolver:     stateResolver,
	}
}

// Handle refunds the command's units and shipments, publishes UnitsRefunded and
// marks the order fully refunded once nothing is left to refund.
// Collaborator errors are returned as is; nothing is retried or compensated.
func (h *RefundUnitsHandler) Handle(ctx context.Context, cmd domain.RefundUnits) error {
	ok, err := h.availability.IsAvailable(ctx, cmd.OrderNumber)
	if err != nil {
		return err
	}
	if !ok {
		return ErrOrderNotAvailableForRefunding
	}

	unitAmount, err := h.unitsRefunder.RefundFromOrder(ctx, cmd.UnitIDs, cmd.OrderNumber)
	if err != nil {
		return err
	}

	shipmentAmount, err := h.shipmentsRefunder.RefundFromOrder(ctx, cmd.ShipmentIDs, cmd.OrderNumber)
	if err != nil {
		return err
	}

	event := domain.NewUnitsRefunded(cmd.OrderNumber, cmd.UnitIDs, cmd.ShipmentIDs, unitAmount+shipmentAmount)
	if err := h.publisher.Publish(ctx, event); err != nil {
		return err
	}

	order, err := h.orders.FindOneByNumber(ctx, cmd.OrderNumber)
	if err != nil {
		return err
	}

	fullyRefunded, err := h.totalChecker.Check(ctx, order)
	if err != nil {
		return err
	}
	if !fullyRefunded {
		return nil
	}

	return h.stateResolver.Resolve(ctx, order)
}
