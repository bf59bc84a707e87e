package domain

// RefundUnits asks for the given units and shipments of an order to be refunded.
// Build it with NewRefundUnits and treat it as read-only.
type RefundUnits struct {
	OrderNumber string
	UnitIDs     []int64
	ShipmentIDs []int64
}

func NewRefundUnits(orderNumber string, unitIDs, shipmentIDs []int64) RefundUnits {
	return RefundUnits{
		OrderNumber: orderNumber,
		UnitIDs:     copyIDs(unitIDs),
		ShipmentIDs: copyIDs(shipmentIDs),
	}
}

func copyIDs(ids []int64) []int64 {
	out := make([]int64, len(ids))
	copy(out, ids)
	return out
}
