package services

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/apperror"
	"storefront/internal/auth"
	"storefront/internal/cache"
	"storefront/internal/events"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// CheckoutService converts a cart into an order as one atomic unit.
type CheckoutService struct {
	store     repositories.Store
	publisher events.Publisher
	cache     cache.ProductCache
	producer  string
	log       zerolog.Logger
}

func NewCheckoutService(store repositories.Store, publisher events.Publisher, productCache cache.ProductCache, producer string, log zerolog.Logger) *CheckoutService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if productCache == nil {
		productCache = cache.Nop{}
	}
	return &CheckoutService{
		store:     store,
		publisher: publisher,
		cache:     productCache,
		producer:  producer,
		log:       log.With().Str("component", "checkout").Logger(),
	}
}

// Checkout validates stock for every cart line, snapshots prices into a new
// PENDING order, decrements inventory and removes the ordered lines from the cart. Either all of it
// commits or none of it does.
func (s *CheckoutService) Checkout(ctx context.Context, p auth.Principal) (*models.Order, error) {
	var (
		orderID    string
		productIDs []string
	)

	err := s.store.WithinTransaction(ctx, func(tx repositories.Store) error {
		// Items are read only once the cart row is locked, so a second checkout
		// of the same cart sees what the first one left behind.
		cart, err := tx.Carts().LockByUserID(ctx, p.UserID)
		if err != nil {
			return err
		}
		items, err := tx.Carts().ListItems(ctx, cart.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return apperror.InvalidState("Cart is empty")
		}

		productIDs = make([]string, 0, len(items))
		for _, item := range items {
			productIDs = append(productIDs, item.ProductID)
		}
		locked, err := tx.Products().LockForCheckout(ctx, productIDs)
		if err != nil {
			return err
		}
		byID := make(map[string]*models.Product, len(locked))
		for i := range locked {
			byID[locked[i].ID] = &locked[i]
		}

		// Validate every line before writing anything.
		total := decimal.Zero
		for _, item := range items {
			product := byID[item.ProductID]
			if !product.Available() {
				name := item.ProductID
				if product != nil {
					name = product.Name
				}
				return apperror.InvalidState("Product %s is no longer available", name)
			}
			if product.StockQuantity < item.Quantity {
				return &apperror.InsufficientStockError{
					ProductID:   product.ID,
					ProductName: product.Name,
					Available:   product.StockQuantity,
					Requested:   item.Quantity,
				}
			}
			total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}

		order := &models.Order{
			UserID:      p.UserID,
			Status:      models.OrderPending,
			TotalAmount: total,
		}
		if err := tx.Orders().Create(ctx, order); err != nil {
			return err
		}

		for _, item := range items {
			product := byID[item.ProductID]
			if err := tx.Orders().AddItem(ctx, &models.OrderItem{
				OrderID:         order.ID,
				ProductID:       product.ID,
				PriceAtPurchase: product.Price,
				Quantity:        item.Quantity,
			}); err != nil {
				return err
			}
			if err := tx.Products().DecrementStock(ctx, product.ID, item.Quantity); err != nil {
				if errors.Is(err, repositories.ErrStockConflict) {
					return s.stockConflict(ctx, tx, product, item.Quantity)
				}
				return err
			}
		}

		if err := tx.Carts().RemoveOrdered(ctx, cart.ID, items); err != nil {
			if errors.Is(err, repositories.ErrCartChanged) {
				return apperror.Conflict("Cart changed during checkout, please try again")
			}
			return err
		}
		orderID = order.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	order, err := s.store.Orders().GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload order %s: %w", orderID, err)
	}

	if err := s.cache.Invalidate(ctx, productIDs...); err != nil {
		s.log.Warn().Err(err).Str("order_id", order.ID).Msg("product cache invalidation failed")
	}
	s.publish(ctx, order)

	s.log.Info().
		Str("order_id", order.ID).
		Str("user_id", p.UserID).
		Str("total_amount", order.TotalAmount.StringFixed(2)).
		Int("items", len(order.Items)).
		Msg("order placed")
	return order, nil
}

// stockConflict reports the stock actually left after a conditional decrement
// found less than requested.
func (s *CheckoutService) stockConflict(ctx context.Context, tx repositories.Store, product *models.Product, requested int) error {
	available := 0
	if current, err := tx.Products().GetByID(ctx, product.ID, false); err == nil {
		available = current.StockQuantity
	}
	return &apperror.InsufficientStockError{
		ProductID:   product.ID,
		ProductName: product.Name,
		Available:   available,
		Requested:   requested,
	}
}

func (s *CheckoutService) publish(ctx context.Context, order *models.Order) {
	env, err := events.NewEnvelope(s.producer, events.TopicOrderCreated, order.ID, events.OrderCreated(order))
	if err != nil {
		s.log.Error().Err(err).Str("order_id", order.ID).Msg("failed to build order.created event")
		return
	}
	if err := s.publisher.Publish(ctx, events.TopicOrderCreated, order.ID, env); err != nil {
		s.log.Warn().Err(err).Str("order_id", order.ID).Msg("failed to publish order.created event")
	}
}
