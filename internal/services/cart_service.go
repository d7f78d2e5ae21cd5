package services

import (
	"context"

	"storefront/internal/apperror"
	"storefront/internal/auth"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/rs/zerolog"
)

// CartService manages the caller's cart. Stock is not checked here; checkout does that.
type CartService struct {
	carts    repositories.CartRepository
	products repositories.ProductRepository
	log      zerolog.Logger
}

func NewCartService(carts repositories.CartRepository, products repositories.ProductRepository, log zerolog.Logger) *CartService {
	return &CartService{carts: carts, products: products, log: log.With().Str("component", "cart").Logger()}
}

// View returns the cart with its items and the total at live prices.
func (s *CartService) View(ctx context.Context, p auth.Principal) (*models.Cart, error) {
	cart, err := s.carts.GetOrCreate(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	items, err := s.carts.ListItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	cart.Items = items
	cart.Total = models.CartTotal(items)
	return cart, nil
}

// ListItems returns the cart lines in insertion order.
func (s *CartService) ListItems(ctx context.Context, p auth.Principal) ([]models.CartItem, error) {
	cart, err := s.carts.GetOrCreate(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	return s.carts.ListItems(ctx, cart.ID)
}

// AddItem adds quantity of an active product, accumulating onto an existing line.
func (s *CartService) AddItem(ctx context.Context, p auth.Principal, productID string, quantity int) (*models.CartItem, error) {
	if quantity <= 0 {
		return nil, apperror.InvalidArgument("Quantity must be greater than 0")
	}
	cart, err := s.carts.GetOrCreate(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if _, err := s.products.GetByID(ctx, productID, true); err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return nil, apperror.NotFound("Product not found or inactive")
		}
		return nil, err
	}
	item, err := s.carts.AddQuantity(ctx, cart.ID, productID, quantity)
	if err != nil {
		return nil, err
	}
	s.log.Debug().Str("user_id", p.UserID).Str("product_id", productID).Int("quantity", item.Quantity).Msg("cart item added")
	return item, nil
}

// UpdateItem sets the quantity of a line in the caller's cart.
func (s *CartService) UpdateItem(ctx context.Context, p auth.Principal, itemID uint, quantity int) (*models.CartItem, error) {
	if quantity <= 0 {
		return nil, apperror.InvalidArgument("Quantity must be greater than 0")
	}
	cart, err := s.carts.GetOrCreate(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	return s.carts.SetQuantity(ctx, cart.ID, itemID, quantity)
}

// GetItem returns one line of the caller's cart.
func (s *CartService) GetItem(ctx context.Context, p auth.Principal, itemID uint) (*models.CartItem, error) {
	cart, err := s.carts.GetOrCreate(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	return s.carts.GetItem(ctx, cart.ID, itemID)
}

func (s *CartService) RemoveItem(ctx context.Context, p auth.Principal, itemID uint) error {
	cart, err := s.carts.GetOrCreate(ctx, p.UserID)
	if err != nil {
		return err
	}
	return s.carts.DeleteItem(ctx, cart.ID, itemID)
}
