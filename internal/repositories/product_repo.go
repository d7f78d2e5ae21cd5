package repositories

import (
	"context"
	"errors"

	"storefront/internal/models"
)

// ErrStockConflict is returned by DecrementStock when the row no longer holds enough stock.
var ErrStockConflict = errors.New("stock changed concurrently")

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	List(ctx context.Context, activeOnly bool) ([]models.Product, error)
	GetByID(ctx context.Context, id string, activeOnly bool) (*models.Product, error)
	NameTaken(ctx context.Context, name, excludeID string) (bool, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	// Delete soft-deletes the product and removes it from every cart.
	Delete(ctx context.Context, id string) error

	// LockForCheckout loads the products row-locked in ascending id order.
	// Soft-deleted rows are included so callers can name them.
	LockForCheckout(ctx context.Context, ids []string) ([]models.Product, error)
	DecrementStock(ctx context.Context, id string, qty int) error
}
