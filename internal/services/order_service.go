package services

import (
	"context"
	"errors"

	"storefront/internal/apperror"
	"storefront/internal/auth"
	"storefront/internal/events"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/rs/zerolog"
)

// OrderService handles order queries and admin status changes.
type OrderService struct {
	orderRepo         repositories.OrderRepository
	publisher         events.Publisher
	strictTransitions bool
	producer          string
	log               zerolog.Logger
}

// NewOrderService creates a new OrderService. With strictTransitions set, status
// changes must follow PENDING -> PAID -> SHIPPED with cancellation before shipping.
func NewOrderService(orderRepo repositories.OrderRepository, publisher events.Publisher, strictTransitions bool, producer string, log zerolog.Logger) *OrderService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &OrderService{
		orderRepo:         orderRepo,
		publisher:         publisher,
		strictTransitions: strictTransitions,
		producer:          producer,
		log:               log.With().Str("component", "orders").Logger(),
	}
}

// ListForUser returns the caller's own orders, newest first.
func (s *OrderService) ListForUser(ctx context.Context, p auth.Principal) ([]models.Order, error) {
	return s.orderRepo.ListByUser(ctx, p.UserID)
}

// ListAll returns every order, newest first.
func (s *OrderService) ListAll(ctx context.Context, actor auth.Principal) ([]models.Order, error) {
	if err := auth.Authorize(actor, auth.RoleAdmin); err != nil {
		return nil, err
	}
	return s.orderRepo.ListAll(ctx)
}

func (s *OrderService) Get(ctx context.Context, actor auth.Principal, id string) (*models.Order, error) {
	if err := auth.Authorize(actor, auth.RoleAdmin); err != nil {
		return nil, err
	}
	return s.orderRepo.GetByID(ctx, id)
}

// SetStatus changes the status of an order. The order is left untouched when
// status is not one of the known values.
func (s *OrderService) SetStatus(ctx context.Context, actor auth.Principal, id, status string) (*models.Order, error) {
	if err := auth.Authorize(actor, auth.RoleAdmin); err != nil {
		return nil, err
	}
	next, ok := models.ParseOrderStatus(status)
	if !ok {
		return nil, apperror.InvalidArgument("Invalid status")
	}

	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	prev := order.Status
	if s.strictTransitions && !prev.CanTransition(next) {
		return nil, apperror.InvalidState("Cannot change order status from %s to %s", prev, next)
	}

	if err := s.orderRepo.UpdateStatus(ctx, id, prev, next); err != nil {
		if errors.Is(err, repositories.ErrStatusChanged) {
			return nil, apperror.Conflict("Order status was changed by another request, please reload")
		}
		return nil, err
	}
	order.Status = next

	if prev != next {
		s.publishStatusChanged(ctx, order.ID, prev, next)
	}
	s.log.Info().
		Str("actor_id", actor.UserID).
		Str("order_id", order.ID).
		Str("from", string(prev)).
		Str("to", string(next)).
		Msg("order status updated")
	return order, nil
}

func (s *OrderService) publishStatusChanged(ctx context.Context, orderID string, from, to models.OrderStatus) {
	env, err := events.NewEnvelope(s.producer, events.TopicOrderStatusChanged, orderID,
		events.OrderStatusChangedPayload{OrderID: orderID, From: from, To: to})
	if err != nil {
		s.log.Error().Err(err).Str("order_id", orderID).Msg("failed to build order.status_changed event")
		return
	}
	if err := s.publisher.Publish(ctx, events.TopicOrderStatusChanged, orderID, env); err != nil {
		s.log.Warn().Err(err).Str("order_id", orderID).Msg("failed to publish order.status_changed event")
	}
}
