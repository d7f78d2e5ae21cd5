package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderPaid      OrderStatus = "PAID"
	OrderShipped   OrderStatus = "SHIPPED"
	OrderCancelled OrderStatus = "CANCELLED"
)

var validNext = map[OrderStatus][]OrderStatus{
	OrderPending: {OrderPaid, OrderCancelled},
	OrderPaid:    {OrderShipped, OrderCancelled},
}

// ParseOrderStatus accepts a status name in any letter case.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	st := OrderStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case OrderPending, OrderPaid, OrderShipped, OrderCancelled:
		return st, true
	}
	return "", false
}

// CanTransition reports whether the strict lifecycle allows moving from s to next.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	if s == next {
		return true
	}
	for _, n := range validNext[s] {
		if n == next {
			return true
		}
	}
	return false
}

// Order is a placed order. TotalAmount is fixed at creation.
type Order struct {
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID      string          `json:"user_id" gorm:"type:varchar(36);not null;index"`
	User        *User           `json:"user,omitempty" gorm:"constraint:OnDelete:RESTRICT"`
	Status      OrderStatus     `json:"status" gorm:"type:varchar(20);not null;index"`
	TotalAmount decimal.Decimal `json:"total_amount" gorm:"<-:create;type:decimal(10,2);not null"`
	Items       []OrderItem     `json:"items"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// OrderItem snapshots one purchased line. Price and quantity are write-once.
type OrderItem struct {
	ID              uint            `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID         string          `json:"-" gorm:"type:varchar(36);not null;index"`
	ProductID       string          `json:"product_id" gorm:"type:varchar(36);not null;index"`
	Product         *Product        `json:"product,omitempty" gorm:"constraint:OnDelete:RESTRICT"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase" gorm:"<-:create;type:decimal(10,2);not null"`
	Quantity        int             `json:"quantity" gorm:"<-:create;not null"`
}

// Subtotal is the line value at the purchase price.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.PriceAtPurchase.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
