package services

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"strings"

	"storefront/internal/apperror"
	"storefront/internal/auth"
	"storefront/internal/cache"
	"storefront/internal/export"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/storage"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var maxPrice = decimal.New(1, 8) // decimal(10,2) holds at most 8 integer digits

// ProductService handles business logic related to products.
type ProductService struct {
	repo   repositories.ProductRepository
	cache  cache.ProductCache
	images storage.ImageStore
	log    zerolog.Logger
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, productCache cache.ProductCache, images storage.ImageStore, log zerolog.Logger) *ProductService {
	if productCache == nil {
		productCache = cache.Nop{}
	}
	return &ProductService{
		repo:   repo,
		cache:  productCache,
		images: images,
		log:    log.With().Str("component", "products").Logger(),
	}
}

// ProductInput carries product fields from JSON or multipart bodies. Nil fields are
// left unchanged on update.
type ProductInput struct {
	Name          *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Description   *string          `json:"description" validate:"omitempty,max=5000"`
	Price         *decimal.Decimal `json:"price"`
	StockQuantity *int             `json:"stock_quantity" validate:"omitempty,gte=0"`
	IsActive      *bool            `json:"is_active"`
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return apperror.InvalidArgument("Ensure price is greater than or equal to 0.")
	}
	if !price.Equal(price.Round(2)) {
		return apperror.InvalidArgument("Ensure that there are no more than 2 decimal places.")
	}
	if price.GreaterThanOrEqual(maxPrice) {
		return apperror.InvalidArgument("Ensure that there are no more than 10 digits in total.")
	}
	return nil
}

// ListActive returns the public catalog.
func (s *ProductService) ListActive(ctx context.Context) ([]models.Product, error) {
	return s.repo.List(ctx, true)
}

// GetActive returns one active product, read through the product cache.
func (s *ProductService) GetActive(ctx context.Context, id string) (*models.Product, error) {
	if product, err := s.cache.Get(ctx, id); err == nil && product.IsActive {
		return product, nil
	} else if err != nil && !errors.Is(err, cache.ErrMiss) {
		s.log.Warn().Err(err).Str("product_id", id).Msg("product cache read failed")
	}

	product, err := s.repo.GetByID(ctx, id, true)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, product); err != nil {
		s.log.Warn().Err(err).Str("product_id", id).Msg("product cache write failed")
	}
	return product, nil
}

// ListAll returns every live product, inactive ones included.
func (s *ProductService) ListAll(ctx context.Context, actor auth.Principal) ([]models.Product, error) {
	if err := auth.Authorize(actor, auth.RoleAdmin); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, false)
}

func (s *ProductService) Get(ctx context.Context, actor auth.Principal, id string) (*models.Product, error) {
	if err := auth.Authorize(actor, auth.RoleAdmin); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id, false)
}

// Create saves a new product. Name and price are required; stock defaults to 0
// and the product is active unless stated otherwise.
func (s *ProductService) Create(ctx context.Context, actor auth.Principal, in ProductInput, image *multipart.FileHeader) (*models.Product, error) {
	if err := auth.Authorize(actor, auth.RoleAdmin); err != nil {
		return nil, err
	}
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, apperror.InvalidArgument("name: This field is required.")
	}
	if in.Price == nil {
		return nil, apperror.InvalidArgument("price: This field is required.")
	}

	product := &models.Product{IsActive: true}
	if err := s.apply(ctx, product, in, image); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	s.log.Info().Str("actor_id", actor.UserID).Str("product_id", product.ID).Msg("product created")
	return product, nil
}

// Update applies the non-nil fields of in (and a new image, if any) to product id.
func (s *ProductService) Update(ctx context.Context, actor auth.Principal, id string, in ProductInput, image *multipart.FileHeader) (*models.Product, error) {
	if err := auth.Authorize(actor, auth.RoleAdmin); err != nil {
		return nil, err
	}
	product, err := s.repo.GetByID(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, product, in, image); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	s.invalidate(ctx, product.ID)
	s.log.Info().Str("actor_id", actor.UserID).Str("product_id", product.ID).Msg("product updated")
	return product, nil
}

// Delete soft-deletes the product. Order history keeps referencing it.
func (s *ProductService) Delete(ctx context.Context, actor auth.Principal, id string) error {
	if err := auth.Authorize(actor, auth.RoleAdmin); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	s.log.Info().Str("actor_id", actor.UserID).Str("product_id", id).Msg("product deleted")
	return nil
}

// ExportXLSX writes every live product to w as a spreadsheet.
func (s *ProductService) ExportXLSX(ctx context.Context, actor auth.Principal, w io.Writer) error {
	products, err := s.ListAll(ctx, actor)
	if err != nil {
		return err
	}
	return export.WriteProductsXLSX(w, products)
}

func (s *ProductService) apply(ctx context.Context, product *models.Product, in ProductInput, image *multipart.FileHeader) error {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return apperror.InvalidArgument("name: This field may not be blank.")
		}
		taken, err := s.repo.NameTaken(ctx, name, product.ID)
		if err != nil {
			return err
		}
		if taken {
			return apperror.Conflict("product with this name already exists.")
		}
		product.Name = name
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.Price != nil {
		if err := validatePrice(*in.Price); err != nil {
			return err
		}
		product.Price = *in.Price
	}
	if in.StockQuantity != nil {
		if *in.StockQuantity < 0 {
			return apperror.InvalidArgument("Ensure stock_quantity is greater than or equal to 0.")
		}
		product.StockQuantity = *in.StockQuantity
	}
	if in.IsActive != nil {
		product.IsActive = *in.IsActive
	}
	if image != nil {
		if s.images == nil {
			return apperror.InvalidArgument("image uploads are not enabled")
		}
		ref, err := s.images.Save(ctx, image)
		if err != nil {
			return err
		}
		product.Image = ref
		product.ImageURL = models.MediaURL + ref
	}
	return nil
}

func (s *ProductService) invalidate(ctx context.Context, ids ...string) {
	if err := s.cache.Invalidate(ctx, ids...); err != nil {
		s.log.Warn().Err(err).Strs("product_ids", ids).Msg("product cache invalidation failed")
	}
}
