package handlers

import (
	"strconv"

	"storefront/internal/apperror"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// CartHandler serves the caller's own cart.
type CartHandler struct {
	cartService *services.CartService
	validate    *validator.Validate
	log         zerolog.Logger
}

func NewCartHandler(cartService *services.CartService, log zerolog.Logger) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		validate:    newValidator(),
		log:         log,
	}
}

func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/cart", h.View)
	router.Get("/cart/items", h.ListItems)
	router.Post("/cart/items", h.AddItem)
	router.Get("/cart/items/:id", h.GetItem)
	router.Patch("/cart/items/:id", h.UpdateItem)
	router.Put("/cart/items/:id", h.UpdateItem)
	router.Delete("/cart/items/:id", h.RemoveItem)
}

// AddItemRequest adds a product to the cart. Quantity defaults to 1.
type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  *int   `json:"quantity"`
}

// UpdateItemRequest sets a line quantity. A missing quantity leaves the line unchanged.
type UpdateItemRequest struct {
	Quantity *int `json:"quantity"`
}

func (h *CartHandler) View(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	cart, err := h.cartService.View(c.UserContext(), p)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(toCartResponse(cart))
}

func (h *CartHandler) ListItems(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	items, err := h.cartService.ListItems(c.UserContext(), p)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(toCartItemResponses(items))
}

func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	var req AddItemRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	item, err := h.cartService.AddItem(c.UserContext(), p, req.ProductID, quantity)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toCartItemResponse(item))
}

func (h *CartHandler) GetItem(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	itemID, err := itemIDParam(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	item, err := h.cartService.GetItem(c.UserContext(), p, itemID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(toCartItemResponse(item))
}

func (h *CartHandler) UpdateItem(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	itemID, err := itemIDParam(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	var req UpdateItemRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}

	if req.Quantity == nil {
		item, err := h.cartService.GetItem(c.UserContext(), p, itemID)
		if err != nil {
			return respondError(c, h.log, err)
		}
		return c.JSON(toCartItemResponse(item))
	}

	item, err := h.cartService.UpdateItem(c.UserContext(), p, itemID, *req.Quantity)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(toCartItemResponse(item))
}

func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	itemID, err := itemIDParam(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	if err := h.cartService.RemoveItem(c.UserContext(), p, itemID); err != nil {
		return respondError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// itemIDParam parses the :id path segment. Anything that is not a positive
// integer cannot name a cart line.
func itemIDParam(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.NotFound("Cart item not found")
	}
	return uint(id), nil
}
