package domain

import (
	"errors"
	"time"
)

var (
	ErrUnitAlreadyRefunded = errors.New("unit already refunded")
	ErrRefundableNotFound  = errors.New("refundable unit not found in order")
)

type RefundType string

const (
	RefundTypeOrderItemUnit RefundType = "order_item_unit"
	RefundTypeShipment      RefundType = "shipment"
)

// Refund records money returned for a single order item unit or shipment.
type Refund struct {
	ID             string
	OrderNumber    string
	RefundedUnitID int64
	Type           RefundType
	AmountCents    int64
	CreatedAt      time.Time
}
