package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// CartRepo provides access to session-scoped carts.
type CartRepo struct {
	db *Database
}

// NewCartRepo creates a cart repository.
func NewCartRepo(db *Database) *CartRepo {
	return &CartRepo{db: db}
}

// GetBySession returns the cart for a session with items and their
// products preloaded. Returns ErrNotFound when no cart exists.
func (r *CartRepo) GetBySession(ctx context.Context, sessionID string) (*Cart, error) {
	var cart Cart
	err := r.db.DB.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("cart_items.id") }).
		Preload("Items.Product").
		Where("session_id = ?", sessionID).
		First(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart for session %s: %w", sessionID, err)
	}
	return &cart, nil
}

// GetOrCreate returns the session's cart, creating an empty one if needed.
func (r *CartRepo) GetOrCreate(ctx context.Context, sessionID string) (*Cart, error) {
	cart, err := r.GetBySession(ctx, sessionID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	cart = &Cart{SessionID: sessionID}
	if err := r.db.DB.WithContext(ctx).Create(cart).Error; err != nil {
		return nil, fmt.Errorf("failed to create cart for session %s: %w", sessionID, err)
	}
	return cart, nil
}

// AddItem adds a product to the cart, merging quantity into an existing
// line for the same product.
func (r *CartRepo) AddItem(ctx context.Context, cartID, productID uint, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("quantity must be positive, got %d", quantity)
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		var item CartItem
		err := tx.WithContext(ctx).
			Where("cart_id = ? AND product_id = ?", cartID, productID).
			First(&item).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			item = CartItem{CartID: cartID, ProductID: productID, Quantity: quantity}
			if err := tx.WithContext(ctx).Create(&item).Error; err != nil {
				return fmt.Errorf("failed to add cart item: %w", err)
			}
			return nil
		case err != nil:
			return fmt.Errorf("failed to look up cart item: %w", err)
		default:
			item.Quantity += quantity
			if err := tx.WithContext(ctx).Save(&item).Error; err != nil {
				return fmt.Errorf("failed to update cart item: %w", err)
			}
			return nil
		}
	})
}

// RemoveItem deletes one item line from the cart.
func (r *CartRepo) RemoveItem(ctx context.Context, cartID, itemID uint) error {
	res := r.db.DB.WithContext(ctx).
		Where("cart_id = ? AND id = ?", cartID, itemID).
		Delete(&CartItem{})
	if res.Error != nil {
		return fmt.Errorf("failed to remove cart item: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ConsumeItems deletes the cart's item lines inside tx and verifies that
// exactly the expected item IDs were consumed. When two checkouts race on
// one cart, the first delete takes every line and the second affects zero
// rows, so the loser gets ErrCartConflict and its enclosing transaction
// rolls back without creating an order.
func (r *CartRepo) ConsumeItems(tx *gorm.DB, cartID uint, itemIDs []uint) error {
	res := tx.Where("cart_id = ? AND id IN ?", cartID, itemIDs).Delete(&CartItem{})
	if res.Error != nil {
		return fmt.Errorf("failed to clear cart %d: %w", cartID, res.Error)
	}
	if res.RowsAffected != int64(len(itemIDs)) {
		return ErrCartConflict
	}
	return nil
}
