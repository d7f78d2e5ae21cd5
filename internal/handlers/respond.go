package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"storefront/internal/apperror"
	"storefront/internal/auth"
	"storefront/internal/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

func statusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindNotFound:
		return fiber.StatusNotFound
	case apperror.KindInvalidArgument, apperror.KindInvalidState, apperror.KindInsufficientStock:
		return fiber.StatusBadRequest
	case apperror.KindUnauthorized:
		return fiber.StatusUnauthorized
	case apperror.KindForbidden:
		return fiber.StatusForbidden
	case apperror.KindConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes err as {"error": ...}. Insufficient stock adds a detail
// object; internal errors are logged and hidden from the client.
func respondError(c *fiber.Ctx, log zerolog.Logger, err error) error {
	kind := apperror.KindOf(err)
	status := statusFor(kind)

	if status == fiber.StatusInternalServerError {
		requestID, _ := c.Locals("requestid").(string)
		log.Error().Err(err).Str("request_id", requestID).Str("path", c.Path()).Msg("request failed")
		return c.Status(status).JSON(fiber.Map{"error": "Internal server error"})
	}

	body := fiber.Map{"error": apperror.Message(err)}
	var stockErr *apperror.InsufficientStockError
	if errors.As(err, &stockErr) {
		body["detail"] = fiber.Map{
			"product_id": stockErr.ProductID,
			"product":    stockErr.ProductName,
			"available":  stockErr.Available,
			"requested":  stockErr.Requested,
		}
	}
	return c.Status(status).JSON(body)
}

func invalidBody(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":   "Invalid request body",
		"message": err.Error(),
	})
}

// validationFailed writes the validator errors keyed by field.
func validationFailed(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return invalidBody(c, err)
	}
	errorMessages := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":  "Validation failed",
		"errors": errorMessages,
	})
}

// principal returns the caller set by middleware.AuthRequired.
func principal(c *fiber.Ctx) (auth.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return auth.Principal{}, apperror.Unauthorized("Authentication credentials were not provided.")
	}
	return p, nil
}

// ErrorHandler renders errors that escape a handler, Fiber's routing errors included.
func ErrorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
		}
		return respondError(c, log, err)
	}
}
