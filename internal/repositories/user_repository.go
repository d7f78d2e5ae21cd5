package repositories

import (
	"context"

	"storefront/internal/models"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	// GetByLogin matches the username or the email, ignoring case.
	GetByLogin(ctx context.Context, login string) (*models.User, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
	List(ctx context.Context) ([]models.User, error)
	// UpdateRoles applies the non-nil flags and returns the updated user.
	UpdateRoles(ctx context.Context, id string, isStaff, isSuperuser *bool) (*models.User, error)
}
