package middleware

import (
	"context"
	"strings"

	"storefront/internal/apperror"
	"storefront/internal/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

const principalKey = "principal"

// Authenticator resolves a bearer token to the calling principal.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (auth.Principal, error)
}

// AuthRequired is a Fiber middleware that rejects requests without a valid access
// token and stores the resolved principal for later handlers.
func AuthRequired(authenticator Authenticator, log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication credentials were not provided.",
			})
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && strings.EqualFold(parts[0], "Bearer")) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization header format must be 'Bearer <token>'",
			})
		}

		principal, err := authenticator.Authenticate(c.UserContext(), strings.TrimSpace(parts[1]))
		if err != nil {
			if apperror.Is(err, apperror.KindUnauthorized) {
				log.Debug().Err(err).Str("path", c.Path()).Msg("authentication rejected")
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": apperror.Message(err),
				})
			}
			return err
		}

		c.Locals(principalKey, principal)
		return c.Next()
	}
}

// PrincipalFrom returns the principal stored by AuthRequired.
func PrincipalFrom(c *fiber.Ctx) (auth.Principal, bool) {
	p, ok := c.Locals(principalKey).(auth.Principal)
	return p, ok
}

// RequireRole rejects authenticated callers below role with 403.
func RequireRole(role auth.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := PrincipalFrom(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication credentials were not provided.",
			})
		}
		if !p.Can(role) {
			msg := "Admin access required"
			if role == auth.RoleSuperuser {
				msg = "Superuser access required"
			}
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": msg})
		}
		return c.Next()
	}
}
