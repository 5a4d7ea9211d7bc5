package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/lingobox/lingobox/internal/models"
)

// MockDailyActivityRepository is a mock implementation of repository.DailyActivityRepository
type MockDailyActivityRepository struct {
	mock.Mock
}

func (m *MockDailyActivityRepository) EnsureForUpdate(ctx context.Context, userID, day string, now time.Time) (*models.DailyActivity, error) {
	args := m.Called(ctx, userID, day, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DailyActivity), args.Error(1)
}

func (m *MockDailyActivityRepository) Get(ctx context.Context, userID, day string) (*models.DailyActivity, error) {
	args := m.Called(ctx, userID, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DailyActivity), args.Error(1)
}

func (m *MockDailyActivityRepository) Update(ctx context.Context, d models.DailyActivity) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDailyActivityRepository) CountPerfectDays(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}
