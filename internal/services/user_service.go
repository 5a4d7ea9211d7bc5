package services

import (
	"context"
	"sync"

	"github.com/lingobox/lingobox/internal/clock"
	"github.com/lingobox/lingobox/internal/errors"
	"github.com/lingobox/lingobox/internal/logger"
	"github.com/lingobox/lingobox/internal/models"
	"github.com/lingobox/lingobox/internal/repository"
)

// UserService keeps local user rows in step with authenticated identities
type UserService interface {
	Ensure(ctx context.Context, user models.User) error
}

type userService struct {
	users repository.UserRepository
	clock clock.Clock
	seen  sync.Map // user id -> role
}

// NewUserService creates a new UserService
func NewUserService(users repository.UserRepository, clk clock.Clock) UserService {
	return &userService{users: users, clock: clk}
}

func (s *userService) Ensure(ctx context.Context, user models.User) error {
	if user.ID == "" {
		return errors.NewUnauthenticatedError()
	}
	if role, ok := s.seen.Load(user.ID); ok && role == user.Role {
		return nil
	}
	if err := s.users.Ensure(ctx, user, s.clock.Now()); err != nil {
		logger.FromContext(ctx).WithPrefix("users").Error("failed to ensure user %s: %v", user.ID, err)
		return errors.NewInternalError(err)
	}
	s.seen.Store(user.ID, user.Role)
	return nil
}
