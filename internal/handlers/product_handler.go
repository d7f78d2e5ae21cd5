package handlers

import (
	"bytes"
	"mime/multipart"
	"strconv"
	"strings"

	"storefront/internal/apperror"
	"storefront/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ProductHandler serves the public catalog and the admin product endpoints.
type ProductHandler struct {
	productService *services.ProductService
	validate       *validator.Validate
	log            zerolog.Logger
}

func NewProductHandler(productService *services.ProductService, log zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		validate:       newValidator(),
		log:            log,
	}
}

// RegisterRoutes registers the public catalog routes.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/products", h.ListActive)
	router.Get("/products/:id", h.GetActive)
}

// RegisterAdminRoutes registers product management routes. The router must
// already require the admin role.
func (h *ProductHandler) RegisterAdminRoutes(router fiber.Router) {
	router.Get("/products", h.ListAll)
	router.Post("/products", h.Create)
	router.Get("/products/export", h.Export)
	router.Get("/products/:id", h.Get)
	router.Put("/products/:id", h.Replace)
	router.Patch("/products/:id", h.Update)
	router.Delete("/products/:id", h.Delete)
}

func (h *ProductHandler) ListActive(c *fiber.Ctx) error {
	products, err := h.productService.ListActive(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(products)
}

func (h *ProductHandler) GetActive(c *fiber.Ctx) error {
	product, err := h.productService.GetActive(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(product)
}

func (h *ProductHandler) ListAll(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	products, err := h.productService.ListAll(c.UserContext(), p)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(products)
}

func (h *ProductHandler) Get(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	product, err := h.productService.Get(c.UserContext(), p, c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(product)
}

func (h *ProductHandler) Create(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	in, image, err := h.parseInput(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	if err := h.validate.Struct(in); err != nil {
		return validationFailed(c, err)
	}
	product, err := h.productService.Create(c.UserContext(), p, in, image)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// Replace is a full update: name and price must be present.
func (h *ProductHandler) Replace(c *fiber.Ctx) error {
	return h.update(c, true)
}

// Update is a partial update.
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	return h.update(c, false)
}

func (h *ProductHandler) update(c *fiber.Ctx, full bool) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	in, image, err := h.parseInput(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	if full {
		if in.Name == nil {
			return respondError(c, h.log, apperror.InvalidArgument("name: This field is required."))
		}
		if in.Price == nil {
			return respondError(c, h.log, apperror.InvalidArgument("price: This field is required."))
		}
	}
	if err := h.validate.Struct(in); err != nil {
		return validationFailed(c, err)
	}
	product, err := h.productService.Update(c.UserContext(), p, c.Params("id"), in, image)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(product)
}

func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	if err := h.productService.Delete(c.UserContext(), p, c.Params("id")); err != nil {
		return respondError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Export streams the catalog as an xlsx attachment.
func (h *ProductHandler) Export(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return respondError(c, h.log, err)
	}
	var buf bytes.Buffer
	if err := h.productService.ExportXLSX(c.UserContext(), p, &buf); err != nil {
		return respondError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="products.xlsx"`)
	return c.Send(buf.Bytes())
}

// parseInput reads a product from a JSON body or from form fields with an
// optional "image" file.
func (h *ProductHandler) parseInput(c *fiber.Ctx) (services.ProductInput, *multipart.FileHeader, error) {
	var in services.ProductInput
	if c.Is("json") {
		if err := c.BodyParser(&in); err != nil {
			return in, nil, apperror.InvalidArgument("Invalid request body")
		}
		return in, nil, nil
	}

	values := formValues(c)
	if v, ok := values["name"]; ok {
		in.Name = &v
	}
	if v, ok := values["description"]; ok {
		in.Description = &v
	}
	if v, ok := values["price"]; ok {
		price, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return in, nil, apperror.InvalidArgument("price: A valid number is required.")
		}
		in.Price = &price
	}
	if v, ok := values["stock_quantity"]; ok {
		stock, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return in, nil, apperror.InvalidArgument("stock_quantity: A valid integer is required.")
		}
		in.StockQuantity = &stock
	}
	if v, ok := values["is_active"]; ok {
		active, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return in, nil, apperror.InvalidArgument("is_active: Must be a valid boolean.")
		}
		in.IsActive = &active
	}

	image, err := c.FormFile("image")
	if err != nil {
		image = nil
	}
	return in, image, nil
}

// formValues collects the first value of every submitted form field.
func formValues(c *fiber.Ctx) map[string]string {
	values := make(map[string]string)
	if form, err := c.MultipartForm(); err == nil {
		for k, v := range form.Value {
			if len(v) > 0 {
				values[k] = v[0]
			}
		}
		return values
	}
	c.Request().PostArgs().VisitAll(func(key, value []byte) {
		k := string(key)
		if _, seen := values[k]; !seen {
			values[k] = string(value)
		}
	})
	return values
}
