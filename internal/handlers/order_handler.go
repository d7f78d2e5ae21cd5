package handlers

import (
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	orderService    *services.OrderService
	checkoutService *services.CheckoutService
	validate        *validator.Validate
	log             zerolog.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderService *services.OrderService, checkoutService *services.CheckoutService, log zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		orderService:    orderService,
		checkoutService: checkoutService,
		validate:        newValidator(),
		log:             log,
	}
}

// RegisterRoutes registers the customer order routes.
func (h *OrderHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/orders", h.ListMine)
	router.Post("/orders/checkout", h.Checkout)
}

// RegisterAdminRoutes registers order management routes. The router must
// already require the admin role.
func (h *OrderHandler) RegisterAdminRoutes(router fiber.Router) {
	router.Get("/orders", h.ListAll)
	router.Get("/orders/:id", h.Get)
	router.Patch("/orders/:id", h.UpdateStatus)
}

// UpdateStatusRequest represents the request body for a status change.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// ListMine returns the caller's orders, newest first.
func (h *OrderHandler) ListMine(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	orders, err := h.orderService.ListForUser(c.UserContext(), p)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(toOrderResponses(orders, false))
}

// Checkout turns the caller's cart into an order.
func (h *OrderHandler) Checkout(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	order, err := h.checkoutService.Checkout(c.UserContext(), p)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toOrderResponse(order, false))
}

func (h *OrderHandler) ListAll(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	orders, err := h.orderService.ListAll(c.UserContext(), p)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(toOrderResponses(orders, true))
}

func (h *OrderHandler) Get(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	order, err := h.orderService.Get(c.UserContext(), p, c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(toOrderResponse(order, true))
}

// UpdateStatus handles PATCH /orders/:id.
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	var req UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	order, err := h.orderService.SetStatus(c.UserContext(), p, c.Params("id"), req.Status)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(toOrderResponse(order, true))
}
