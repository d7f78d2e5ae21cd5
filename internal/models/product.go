package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a catalog entry.
// Deleted products stay in the table so order history keeps its reference.
type Product struct {
	ID            string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name          string          `json:"name" gorm:"type:varchar(255);not null;index"`
	Description   string          `json:"description" gorm:"type:text"`
	Price         decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	StockQuantity int             `json:"stock_quantity" gorm:"not null;check:chk_products_stock,stock_quantity >= 0"`
	Image         string          `json:"image,omitempty" gorm:"type:varchar(255)"`
	ImageURL      string          `json:"image_url,omitempty" gorm:"-"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `json:"-" gorm:"index"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// MediaURL is the public prefix image references are served under.
const MediaURL = "/media/"

// AfterFind fills ImageURL from the stored image reference.
func (p *Product) AfterFind(tx *gorm.DB) error {
	if p.Image != "" {
		p.ImageURL = MediaURL + p.Image
	}
	return nil
}

// Available reports whether the product can be put in a cart or sold.
func (p *Product) Available() bool {
	return p != nil && p.IsActive && !p.DeletedAt.Valid
}
