package handlers

import (
	"time"

	"storefront/internal/models"

	"github.com/shopspring/decimal"
)

type userRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type orderResponse struct {
	ID          string             `json:"id"`
	User        *userRef           `json:"user,omitempty"`
	Status      models.OrderStatus `json:"status"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
	Items       []models.OrderItem `json:"items"`
	CreatedAt   time.Time          `json:"created_at"`
}

// toOrderResponse renders an order; withUser adds the owner summary shown to admins.
func toOrderResponse(o *models.Order, withUser bool) orderResponse {
	resp := orderResponse{
		ID:          o.ID,
		Status:      o.Status,
		TotalAmount: o.TotalAmount,
		Items:       o.Items,
		CreatedAt:   o.CreatedAt,
	}
	if resp.Items == nil {
		resp.Items = []models.OrderItem{}
	}
	if withUser && o.User != nil {
		resp.User = &userRef{ID: o.User.ID, Username: o.User.Username, Email: o.User.Email}
	}
	return resp
}

func toOrderResponses(orders []models.Order, withUser bool) []orderResponse {
	out := make([]orderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, toOrderResponse(&orders[i], withUser))
	}
	return out
}

type cartItemResponse struct {
	ID        uint            `json:"id"`
	ProductID string          `json:"product_id"`
	Product   *models.Product `json:"product"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type cartResponse struct {
	ID        string             `json:"id"`
	Items     []cartItemResponse `json:"items"`
	Total     decimal.Decimal    `json:"total"`
	CreatedAt time.Time          `json:"created_at"`
}

func toCartItemResponse(item *models.CartItem) cartItemResponse {
	return cartItemResponse{
		ID:        item.ID,
		ProductID: item.ProductID,
		Product:   item.Product,
		Quantity:  item.Quantity,
		Subtotal:  item.Subtotal(),
	}
}

func toCartItemResponses(items []models.CartItem) []cartItemResponse {
	out := make([]cartItemResponse, 0, len(items))
	for i := range items {
		out = append(out, toCartItemResponse(&items[i]))
	}
	return out
}

func toCartResponse(cart *models.Cart) cartResponse {
	return cartResponse{
		ID:        cart.ID,
		Items:     toCartItemResponses(cart.Items),
		Total:     cart.Total,
		CreatedAt: cart.CreatedAt,
	}
}
