package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/lingobox/lingobox/internal/models"
)

// MockReviewRepository is a mock implementation of repository.ReviewRepository
type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) Insert(ctx context.Context, review models.Review) (int64, error) {
	args := m.Called(ctx, review)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReviewRepository) CountForCard(ctx context.Context, cardID int64) (int, error) {
	args := m.Called(ctx, cardID)
	return args.Int(0), args.Error(1)
}
