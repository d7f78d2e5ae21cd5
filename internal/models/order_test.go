package models_test

import (
	"testing"

	"storefront/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseOrderStatus(t *testing.T) {
	st, ok := models.ParseOrderStatus("paid")
	assert.True(t, ok)
	assert.Equal(t, models.OrderPaid, st)

	_, ok = models.ParseOrderStatus("REFUNDED")
	assert.False(t, ok)
	_, ok = models.ParseOrderStatus("")
	assert.False(t, ok)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, models.OrderPending.CanTransition(models.OrderPaid))
	assert.True(t, models.OrderPending.CanTransition(models.OrderCancelled))
	assert.True(t, models.OrderPaid.CanTransition(models.OrderShipped))
	assert.True(t, models.OrderPaid.CanTransition(models.OrderCancelled))
	assert.False(t, models.OrderShipped.CanTransition(models.OrderPending))
	assert.False(t, models.OrderCancelled.CanTransition(models.OrderPaid))
	assert.False(t, models.OrderPending.CanTransition(models.OrderShipped))
	assert.True(t, models.OrderShipped.CanTransition(models.OrderShipped))
}

func TestCartTotal(t *testing.T) {
	items := []models.CartItem{
		{Quantity: 2, Product: &models.Product{Price: decimal.RequireFromString("19.99")}},
		{Quantity: 1, Product: &models.Product{Price: decimal.RequireFromString("0.01")}},
		{Quantity: 3},
	}
	assert.True(t, decimal.RequireFromString("39.99").Equal(models.CartTotal(items)))
	assert.True(t, models.CartTotal(nil).IsZero())
}

func TestProductAvailable(t *testing.T) {
	var missing *models.Product
	assert.False(t, missing.Available())
	assert.False(t, (&models.Product{IsActive: false}).Available())
	assert.True(t, (&models.Product{IsActive: true}).Available())
}
