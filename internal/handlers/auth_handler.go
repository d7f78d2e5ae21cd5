package handlers

import (
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
	log         zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    newValidator(),
		log:         log,
	}
}

// RegisterRoutes registers the authentication routes. tokenMiddleware runs in
// front of the login endpoint only.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, tokenMiddleware ...fiber.Handler) {
	router.Post("/register", h.HandleRegister)
	router.Post("/token", append(tokenMiddleware, h.HandleToken)...)
	router.Post("/token/refresh", h.HandleRefresh)
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req services.RegisterInput
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	user, err := h.authService.Register(c.UserContext(), req)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Account created successfully",
		"user": userRef{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
		},
	})
}

// LoginRequest represents the request body for login. Login is a username or an email.
type LoginRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// HandleToken handles login and issues an access/refresh token pair.
func (h *AuthHandler) HandleToken(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	pair, err := h.authService.Login(c.UserContext(), req.Login, req.Password)
	if err != nil {
		h.log.Info().Str("login", req.Login).Msg("login rejected")
		return respondError(c, h.log, err)
	}
	return c.JSON(pair)
}

type refreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

// HandleRefresh exchanges a refresh token for a new access token.
func (h *AuthHandler) HandleRefresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationFailed(c, err)
	}

	access, err := h.authService.Refresh(c.UserContext(), req.Refresh)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(fiber.Map{"access": access})
}
