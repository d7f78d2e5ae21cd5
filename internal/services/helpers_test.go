package services_test

import (
	"context"
	"testing"

	"storefront/internal/database"
	"storefront/internal/events"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *repositories.GORMStore {
	t.Helper()
	db, err := database.OpenTest(uuid.NewString())
	require.NoError(t, err)
	return repositories.NewGORMStore(db)
}

func seedUser(t *testing.T, store repositories.Store, username string, staff, superuser bool) *models.User {
	t.Helper()
	u := &models.User{
		Username:    username,
		Email:       username + "@example.com",
		Password:    "hash",
		IsActive:    true,
		IsStaff:     staff,
		IsSuperuser: superuser,
	}
	require.NoError(t, store.Users().Create(context.Background(), u))
	return u
}

func seedProduct(t *testing.T, store repositories.Store, name, price string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:          name,
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
		IsActive:      true,
	}
	require.NoError(t, store.Products().Create(context.Background(), p))
	return p
}

// MockPublisher is a mock implementation of events.Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, topic, key string, env events.Envelope) error {
	args := m.Called(ctx, topic, key, env)
	return args.Error(0)
}

func (m *MockPublisher) Close() error {
	return m.Called().Error(0)
}
