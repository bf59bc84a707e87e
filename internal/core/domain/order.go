package domain

import (
	"errors"
	"time"
)

var ErrOrderNotFound = errors.New("order not found")

type PaymentState string

const (
	PaymentStateAwaiting          PaymentState = "awaiting_payment"
	PaymentStatePaid              PaymentState = "paid"
	PaymentStatePartiallyRefunded PaymentState = "partially_refunded"
	PaymentStateRefunded          PaymentState = "refunded"
)

type Order struct {
	ID           int64
	Number       string
	PaymentState PaymentState
	TotalCents   int64
	CurrencyCode string
	Version      int // optimistic locking
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsRefundable reports whether refunds may currently be issued against the order.
func (o Order) IsRefundable() bool {
	return o.PaymentState == PaymentStatePaid || o.PaymentState == PaymentStatePartiallyRefunded
}

// CanRefundFully reports whether the refund transition to PaymentStateRefunded is allowed.
func (o Order) CanRefundFully() bool {
	return o.IsRefundable()
}

// CanRefundPartially reports whether the partial refund transition is allowed.
func (o Order) CanRefundPartially() bool {
	return o.PaymentState == PaymentStatePaid
}

func (o Order) IsFullyRefunded() bool {
	return o.PaymentState == PaymentStateRefunded
}
