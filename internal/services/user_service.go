package services

import (
	"context"

	"storefront/internal/auth"
	"storefront/internal/models"
	"storefront/internal/repositories"

	"github.com/rs/zerolog"
)

// UserService manages accounts on behalf of superusers.
type UserService struct {
	userRepo repositories.UserRepository
	log      zerolog.Logger
}

func NewUserService(userRepo repositories.UserRepository, log zerolog.Logger) *UserService {
	return &UserService{userRepo: userRepo, log: log.With().Str("component", "users").Logger()}
}

// RoleUpdate is the body of PATCH /api/admin/users/:id. Absent fields are left unchanged.
type RoleUpdate struct {
	IsStaff     *bool `json:"is_staff"`
	IsSuperuser *bool `json:"is_superuser"`
}

func (s *UserService) ListUsers(ctx context.Context, actor auth.Principal) ([]models.User, error) {
	if err := auth.Authorize(actor, auth.RoleSuperuser); err != nil {
		return nil, err
	}
	return s.userRepo.List(ctx)
}

func (s *UserService) UpdateRoles(ctx context.Context, actor auth.Principal, targetID string, in RoleUpdate) (*models.User, error) {
	if err := auth.CheckRoleChange(actor, targetID, in.IsStaff, in.IsSuperuser); err != nil {
		return nil, err
	}
	user, err := s.userRepo.UpdateRoles(ctx, targetID, in.IsStaff, in.IsSuperuser)
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Str("actor_id", actor.UserID).
		Str("user_id", user.ID).
		Bool("is_staff", user.IsStaff).
		Bool("is_superuser", user.IsSuperuser).
		Msg("user roles updated")
	return user, nil
}
