package domain

const UnitsRefundedEventType = "UnitsRefunded"

// UnitsRefunded is published once per handled RefundUnits command.
type UnitsRefunded struct {
	OrderNumber string  `json:"order_number"`
	UnitIDs     []int64 `json:"unit_ids"`
	ShipmentIDs []int64 `json:"shipment_ids"`
	Amount      int64   `json:"amount"`
}

func NewUnitsRefunded(orderNumber string, unitIDs, shipmentIDs []int64, amount int64) UnitsRefunded {
	return UnitsRefunded{
		OrderNumber: orderNumber,
		UnitIDs:     copyIDs(unitIDs),
		ShipmentIDs: copyIDs(shipmentIDs),
		Amount:      amount,
	}
}
