package store

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderRepo provides access to committed orders.
type OrderRepo struct {
	db *Database
}

// NewOrderRepo creates an order repository.
func NewOrderRepo(db *Database) *OrderRepo {
	return &OrderRepo{db: db}
}

// NewOrderNumber generates an order number of the form
// ORD-20250114153012-A3F29B: a timestamp for operators, a random suffix
// for uniqueness within the same second.
func NewOrderNumber() string {
	u := uuid.New()
	return fmt.Sprintf("ORD-%s-%s",
		time.Now().Format("20060102150405"),
		strings.ToUpper(hex.EncodeToString(u[:3])))
}

// CreateInTx inserts the order and its items inside an existing
// transaction. The caller owns the transaction boundary so the order
// commit and the cart consume stand or fall together.
func (r *OrderRepo) CreateInTx(tx *gorm.DB, order *Order) error {
	if err := tx.Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// UpdatePaymentStatus records the settlement outcome for an order. Network
// and transaction are only stored for successful settlement.
func (r *OrderRepo) UpdatePaymentStatus(ctx context.Context, orderID uint, status, network, transaction string) error {
	updates := map[string]interface{}{"payment_status": status}
	if network != "" {
		updates["payment_network"] = network
	}
	if transaction != "" {
		updates["payment_transaction"] = transaction
	}

	res := r.db.DB.WithContext(ctx).Model(&Order{}).Where("id = ?", orderID).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update payment status for order %d: %w", orderID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByNumber returns an order with its items by order number.
func (r *OrderRepo) GetByNumber(ctx context.Context, orderNumber string) (*Order, error) {
	var order Order
	err := r.db.DB.WithContext(ctx).
		Preload("Items").
		Preload("Items.Product").
		Where("order_number = ?", orderNumber).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order %s: %w", orderNumber, err)
	}
	return &order, nil
}

// ListBySession returns a session's orders, newest first.
func (r *OrderRepo) ListBySession(ctx context.Context, sessionID string) ([]Order, error) {
	var orders []Order
	err := r.db.DB.WithContext(ctx).
		Preload("Items").
		Preload("Items.Product").
		Where("session_id = ?", sessionID).
		Order("id DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders for session %s: %w", sessionID, err)
	}
	return orders, nil
}
