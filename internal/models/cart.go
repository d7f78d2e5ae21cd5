package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Cart is the single shopping cart owned by a user. It is created on first access
// and survives checkout; only its items are removed.
type Cart struct {
	ID        string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string          `json:"user_id" gorm:"type:varchar(36);not null;uniqueIndex"`
	Items     []CartItem      `json:"items" gorm:"constraint:OnDelete:CASCADE"`
	Total     decimal.Decimal `json:"total" gorm:"-"`
	CreatedAt time.Time       `json:"created_at"`
}

func (c *Cart) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// CartItem is one product line in a cart. The autoincrement ID gives insertion order.
type CartItem struct {
	ID        uint     `json:"id" gorm:"primaryKey;autoIncrement"`
	CartID    string   `json:"-" gorm:"type:varchar(36);not null;uniqueIndex:idx_cart_product"`
	ProductID string   `json:"product_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_cart_product"`
	Product   *Product `json:"product,omitempty"`
	Quantity  int      `json:"quantity" gorm:"not null;check:chk_cart_items_quantity,quantity > 0"`
}

// Subtotal is the line value at the live product price.
func (i CartItem) Subtotal() decimal.Decimal {
	if i.Product == nil {
		return decimal.Zero
	}
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CartTotal sums the line values of items.
func CartTotal(items []CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}
