package handlers

import (
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// UserHandler exposes account role management to superusers.
type UserHandler struct {
	userService *services.UserService
	log         zerolog.Logger
}

func NewUserHandler(userService *services.UserService, log zerolog.Logger) *UserHandler {
	return &UserHandler{userService: userService, log: log}
}

// RegisterRoutes mounts the handlers at the root of router, which must already
// require the superuser role.
func (h *UserHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/", h.List)
	router.Patch("/:id", h.UpdateRoles)
}

func (h *UserHandler) List(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	users, err := h.userService.ListUsers(c.UserContext(), p)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(users)
}

func (h *UserHandler) UpdateRoles(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	var req services.RoleUpdate
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	user, err := h.userService.UpdateRoles(c.UserContext(), p, c.Params("id"), req)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{
		"message": "User roles updated",
		"user":    userDetail(user),
	})
}

func userDetail(u *models.User) fiber.Map {
	return fiber.Map{
		"id":           u.ID,
		"username":     u.Username,
		"email":        u.Email,
		"is_staff":     u.IsStaff,
		"is_superuser": u.IsSuperuser,
	}
}
