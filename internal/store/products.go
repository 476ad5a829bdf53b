package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ProductRepo provides access to the product catalog.
type ProductRepo struct {
	db *Database
}

// NewProductRepo creates a product repository.
func NewProductRepo(db *Database) *ProductRepo {
	return &ProductRepo{db: db}
}

// List returns catalog products, optionally filtered by category.
func (r *ProductRepo) List(ctx context.Context, category string) ([]Product, error) {
	q := r.db.DB.WithContext(ctx).Order("id")
	if category != "" {
		q = q.Where("LOWER(category) = LOWER(?)", category)
	}

	var products []Product
	if err := q.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// Get returns a single product by ID.
func (r *ProductRepo) Get(ctx context.Context, id uint) (*Product, error) {
	var product Product
	err := r.db.DB.WithContext(ctx).First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product %d: %w", id, err)
	}
	return &product, nil
}

// Count returns the number of catalog products.
func (r *ProductRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.DB.WithContext(ctx).Model(&Product{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

// CreateBatch inserts products in one statement. Used by catalog seeding.
func (r *ProductRepo) CreateBatch(ctx context.Context, products []Product) error {
	if len(products) == 0 {
		return nil
	}
	if err := r.db.DB.WithContext(ctx).Create(&products).Error; err != nil {
		return fmt.Errorf("failed to create products: %w", err)
	}
	return nil
}
