package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// RequestLogger logs one line per request with its id, caller and outcome.
// It must run after the requestid middleware.
func RequestLogger(log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		chainErr := c.Next()

		status := c.Response().StatusCode()
		if chainErr != nil {
			if fe, ok := chainErr.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		userID := "anonymous"
		if p, ok := PrincipalFrom(c); ok {
			userID = p.UserID
		}

		requestID, _ := c.Locals("requestid").(string)
		event := log.Info()
		if status >= fiber.StatusInternalServerError {
			event = log.Error().Err(chainErr)
		}
		event.
			Str("request_id", requestID).
			Str("user_id", userID).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request completed")
		return chainErr
	}
}
