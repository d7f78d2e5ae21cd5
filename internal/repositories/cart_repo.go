package repositories

import (
	"context"
	"errors"

	"storefront/internal/models"
)

// ErrCartChanged is returned by RemoveOrdered when a line was removed or its
// quantity changed after it was read.
var ErrCartChanged = errors.New("cart changed concurrently")

// CartRepository defines the interface for cart data access.
type CartRepository interface {
	GetByUserID(ctx context.Context, userID string) (*models.Cart, error)
	// LockByUserID reads the user's cart with a row lock held until the
	// transaction ends. Concurrent checkouts of one cart run one after another.
	LockByUserID(ctx context.Context, userID string) (*models.Cart, error)
	GetOrCreate(ctx context.Context, userID string) (*models.Cart, error)
	// ListItems returns the items in insertion order with their products loaded.
	ListItems(ctx context.Context, cartID string) ([]models.CartItem, error)
	GetItem(ctx context.Context, cartID string, itemID uint) (*models.CartItem, error)
	// AddQuantity increments the (cart, product) line, creating it when absent.
	AddQuantity(ctx context.Context, cartID, productID string, qty int) (*models.CartItem, error)
	SetQuantity(ctx context.Context, cartID string, itemID uint, qty int) (*models.CartItem, error)
	DeleteItem(ctx context.Context, cartID string, itemID uint) error
	// RemoveOrdered deletes exactly the given lines, each only while it still holds
	// the ordered quantity. Lines added after the read are kept.
	RemoveOrdered(ctx context.Context, cartID string, items []models.CartItem) error
}
