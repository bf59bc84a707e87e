package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rl1809/order-refund/internal/core/domain"
)

var ErrOptimisticLock = errors.New("optimistic lock conflict")

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) FindOneByNumber(ctx context.Context, number string) (domain.Order, error) {
	var o domain.Order
	err := m.db.QueryRowContext(ctx, `
		SELECT id, number, payment_state, total, currency_code, version, created_at, updated_at
		FROM orders WHERE number = ?`, number,
	).Scan(&o.ID, &o.Number, &o.PaymentState, &o.TotalCents, &o.CurrencyCode, &o.Version, &o.CreatedAt, &o.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, fmt.Errorf("order %s: %w", number, domain.ErrOrderNotFound)
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("query order: %w", err)
	}

	return o, nil
}

func (m *MySQLAdapter) UpdatePaymentState(ctx context.Context, order domain.Order) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE orders
		SET payment_state = ?, version = version + 1, updated_at = NOW()
		WHERE number = ? AND version = ?`,
		order.PaymentState, order.Number, order.Version,
	)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order rows affected: %w", err)
	}
	if rows == 0 {
		return ErrOptimisticLock
	}

	return nil
}

func (m *MySQLAdapter) CreateRefunds(ctx context.Context, refunds []domain.Refund) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := lockRefundables(ctx, tx, refunds); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO refunds (id, order_number, refunded_unit_id, type, amount, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert refund: %w", err)
	}
	defer stmt.Close()

	for _, r := range refunds {
		if _, err := stmt.ExecContext(ctx, r.ID, r.OrderNumber, r.RefundedUnitID, r.Type, r.AmountCents, r.CreatedAt); err != nil {
			return fmt.Errorf("insert refund: %w", err)
		}
	}

	return tx.Commit()
}

type refundableKey struct {
	id         int64
	refundType domain.RefundType
}

// lockRefundables locks the refunded unit and shipment rows for the rest of tx and
// rejects the batch when it would refund more than any of them is worth.
func lockRefundables(ctx context.Context, tx *sql.Tx, refunds []domain.Refund) error {
	requested := make(map[refundableKey]int64, len(refunds))
	var keys []refundableKey
	for _, r := range refunds {
		k := refundableKey{id: r.RefundedUnitID, refundType: r.Type}
		if _, seen := requested[k]; !seen {
			keys = append(keys, k)
		}
		requested[k] += r.AmountCents
	}

	for _, k := range keys {
		var query string
		switch k.refundType {
		case domain.RefundTypeOrderItemUnit:
			query = `SELECT total FROM order_item_units WHERE id = ? FOR UPDATE`
		case domain.RefundTypeShipment:
			query = `SELECT amount FROM shipments WHERE id = ? FOR UPDATE`
		default:
			return fmt.Errorf("unknown refund type %q", k.refundType)
		}

		var total int64
		err := tx.QueryRowContext(ctx, query, k.id).Scan(&total)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%s %d: %w", k.refundType, k.id, domain.ErrRefundableNotFound)
		}
		if err != nil {
			return fmt.Errorf("lock refundable: %w", err)
		}

		var refunded int64
		err = tx.QueryRowContext(ctx, `
			SELECT COALESCE(SUM(amount), 0) FROM refunds WHERE refunded_unit_id = ? AND type = ?`, k.id, k.refundType,
		).Scan(&refunded)
		if err != nil {
			return fmt.Errorf("sum unit refunds: %w", err)
		}

		if refunded+requested[k] > total {
			return fmt.Errorf("%s %d: %w", k.refundType, k.id, domain.ErrUnitAlreadyRefunded)
		}
	}

	return nil
}

func (m *MySQLAdapter) RefundedTotal(ctx context.Context, orderNumber string) (int64, error) {
	var total int64
	err := m.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM refunds WHERE order_number = ?`, orderNumber,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum order refunds: %w", err)
	}

	return total, nil
}

func (m *MySQLAdapter) RefundedUnitTotal(ctx context.Context, unitID int64, refundType domain.RefundType) (int64, error) {
	var total int64
	err := m.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM refunds WHERE refunded_unit_id = ? AND type = ?`, unitID, refundType,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum unit refunds: %w", err)
	}

	return total, nil
}

func (m *MySQLAdapter) RefundableTotal(ctx context.Context, orderNumber string, id int64, refundType domain.RefundType) (int64, error) {
	var query string
	switch refundType {
	case domain.RefundTypeOrderItemUnit:
		query = `
		SELECT u.total FROM order_item_units u
		JOIN orders o ON o.id = u.order_id
		WHERE u.id = ? AND o.number = ?`
	case domain.RefundTypeShipment:
		query = `
		SELECT s.amount FROM shipments s
		JOIN orders o ON o.id = s.order_id
		WHERE s.id = ? AND o.number = ?`
	default:
		return 0, fmt.Errorf("unknown refund type %q", refundType)
	}

	var total int64
	err := m.db.QueryRowContext(ctx, query, id, orderNumber).Scan(&total)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%s %d of order %s: %w", refundType, id, orderNumber, domain.ErrRefundableNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("query refundable: %w", err)
	}

	return total, nil
}
