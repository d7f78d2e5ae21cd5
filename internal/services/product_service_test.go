package services_test

import (
	"bytes"
	"context"
	"testing"

	"storefront/internal/apperror"
	"storefront/internal/auth"
	"storefront/internal/cache"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProductRepository is a mock implementation of repositories.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) List(ctx context.Context, activeOnly bool) ([]models.Product, error) {
	args := m.Called(ctx, activeOnly)
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id string, activeOnly bool) (*models.Product, error) {
	args := m.Called(ctx, id, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) NameTaken(ctx context.Context, name, excludeID string) (bool, error) {
	args := m.Called(ctx, name, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) Create(ctx context.Context, product *models.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Update(ctx context.Context, product *models.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProductRepository) LockForCheckout(ctx context.Context, ids []string) ([]models.Product, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductRepository) DecrementStock(ctx context.Context, id string, qty int) error {
	args := m.Called(ctx, id, qty)
	return args.Error(0)
}

// MockProductCache is a mock implementation of cache.ProductCache
type MockProductCache struct {
	mock.Mock
}

func (m *MockProductCache) Get(ctx context.Context, id string) (*models.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductCache) Set(ctx context.Context, product *models.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *MockProductCache) Invalidate(ctx context.Context, ids ...string) error {
	return m.Called(ctx, ids).Error(0)
}

var adminPrincipal = auth.Principal{UserID: "admin-1", IsStaff: true}

func strPtr(s string) *string { return &s }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestProductService_GetActiveReadsThroughCache(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockCache := new(MockProductCache)
	service := services.NewProductService(mockRepo, mockCache, nil, zerolog.Nop())
	ctx := context.Background()

	product := &models.Product{ID: "p-1", Name: "Lamp", IsActive: true}

	// Miss: load from the repository and populate the cache.
	mockCache.On("Get", ctx, "p-1").Return(nil, cache.ErrMiss).Once()
	mockRepo.On("GetByID", ctx, "p-1", true).Return(product, nil).Once()
	mockCache.On("Set", ctx, product).Return(nil).Once()

	got, err := service.GetActive(ctx, "p-1")
	assert.NoError(t, err)
	assert.Equal(t, product, got)

	// Hit: the repository is not consulted.
	mockCache.On("Get", ctx, "p-1").Return(product, nil).Once()
	got, err = service.GetActive(ctx, "p-1")
	assert.NoError(t, err)
	assert.Equal(t, product, got)

	mockRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestProductService_GetActiveNotFound(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil, nil, zerolog.Nop())
	ctx := context.Background()

	mockRepo.On("GetByID", ctx, "99", true).Return(nil, apperror.NotFound("product with ID 99 not found")).Once()

	product, err := service.GetActive(ctx, "99")
	assert.Nil(t, product)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	mockRepo.AssertExpectations(t)
}

func TestProductService_Create(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil, nil, zerolog.Nop())
	ctx := context.Background()

	mockRepo.On("NameTaken", ctx, "Desk", "").Return(false, nil).Once()
	mockRepo.On("Create", ctx, mock.MatchedBy(func(p *models.Product) bool {
		return p.Name == "Desk" && p.IsActive && p.StockQuantity == 0 && p.Price.Equal(decimal.RequireFromString("149.99"))
	})).Return(nil).Once()

	product, err := service.Create(ctx, adminPrincipal, services.ProductInput{
		Name:  strPtr(" Desk "),
		Price: decPtr("149.99"),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Desk", product.Name)
	mockRepo.AssertExpectations(t)
}

func TestProductService_CreateValidation(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil, nil, zerolog.Nop())
	ctx := context.Background()

	_, err := service.Create(ctx, adminPrincipal, services.ProductInput{Price: decPtr("1.00")}, nil)
	assert.True(t, apperror.Is(err, apperror.KindInvalidArgument))

	_, err = service.Create(ctx, adminPrincipal, services.ProductInput{Name: strPtr("Desk")}, nil)
	assert.True(t, apperror.Is(err, apperror.KindInvalidArgument))

	mockRepo.On("NameTaken", ctx, "Desk", "").Return(false, nil)
	for _, price := range []string{"-1.00", "1.999", "100000000.00"} {
		_, err = service.Create(ctx, adminPrincipal, services.ProductInput{Name: strPtr("Desk"), Price: decPtr(price)}, nil)
		assert.True(t, apperror.Is(err, apperror.KindInvalidArgument), price)
	}

	_, err = service.Create(ctx, auth.Principal{UserID: "u"}, services.ProductInput{Name: strPtr("Desk"), Price: decPtr("1")}, nil)
	assert.True(t, apperror.Is(err, apperror.KindForbidden))

	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProductService_CreateDuplicateName(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil, nil, zerolog.Nop())
	ctx := context.Background()

	mockRepo.On("NameTaken", ctx, "Desk", "").Return(true, nil).Once()

	_, err := service.Create(ctx, adminPrincipal, services.ProductInput{Name: strPtr("Desk"), Price: decPtr("10")}, nil)
	assert.True(t, apperror.Is(err, apperror.KindConflict))
	mockRepo.AssertExpectations(t)
}

func TestProductService_UpdatePartialInvalidatesCache(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockCache := new(MockProductCache)
	service := services.NewProductService(mockRepo, mockCache, nil, zerolog.Nop())
	ctx := context.Background()

	existing := &models.Product{ID: "p-1", Name: "Lamp", Price: decimal.RequireFromString("20.00"), StockQuantity: 3, IsActive: true}
	mockRepo.On("GetByID", ctx, "p-1", false).Return(existing, nil).Once()
	mockRepo.On("Update", ctx, existing).Return(nil).Once()
	mockCache.On("Invalidate", ctx, []string{"p-1"}).Return(nil).Once()

	stock := 9
	updated, err := service.Update(ctx, adminPrincipal, "p-1", services.ProductInput{StockQuantity: &stock}, nil)
	require.NoError(t, err)
	assert.Equal(t, 9, updated.StockQuantity)
	assert.Equal(t, "Lamp", updated.Name)
	assert.True(t, decimal.RequireFromString("20.00").Equal(updated.Price))

	mockRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestProductService_Delete(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockCache := new(MockProductCache)
	service := services.NewProductService(mockRepo, mockCache, nil, zerolog.Nop())
	ctx := context.Background()

	mockRepo.On("Delete", ctx, "p-1").Return(nil).Once()
	mockCache.On("Invalidate", ctx, []string{"p-1"}).Return(nil).Once()
	assert.NoError(t, service.Delete(ctx, adminPrincipal, "p-1"))

	mockRepo.On("Delete", ctx, "p-2").Return(apperror.NotFound("product with ID p-2 not found")).Once()
	assert.True(t, apperror.Is(service.Delete(ctx, adminPrincipal, "p-2"), apperror.KindNotFound))

	mockRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestProductService_ExportXLSX(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, nil, nil, zerolog.Nop())
	ctx := context.Background()

	mockRepo.On("List", ctx, false).Return([]models.Product{{ID: "p-1", Name: "Lamp"}}, nil).Once()

	var buf bytes.Buffer
	require.NoError(t, service.ExportXLSX(ctx, adminPrincipal, &buf))
	// xlsx files are zip archives.
	assert.Equal(t, []byte("PK"), buf.Bytes()[:2])
	mockRepo.AssertExpectations(t)
}
