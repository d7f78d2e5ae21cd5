package repositories

import (
	"context"
	"errors"

	"storefront/internal/models"
)

// ErrStatusChanged is returned by UpdateStatus when the order no longer holds
// the status the caller read.
var ErrStatusChanged = errors.New("order status changed concurrently")

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	// Create inserts the order row only; items are added with AddItem.
	Create(ctx context.Context, order *models.Order) error
	AddItem(ctx context.Context, item *models.OrderItem) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	// UpdateStatus moves the order from one status to another, only while it is
	// still in from.
	UpdateStatus(ctx context.Context, id string, from, to models.OrderStatus) error
}
