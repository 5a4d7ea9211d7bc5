package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/lingobox/lingobox/internal/models"
)

// MockUserRepository is a mock implementation of repository.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Ensure(ctx context.Context, user models.User, now time.Time) error {
	args := m.Called(ctx, user, now)
	return args.Error(0)
}

func (m *MockUserRepository) Get(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
