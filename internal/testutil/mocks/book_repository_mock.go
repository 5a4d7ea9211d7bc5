package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/lingobox/lingobox/internal/models"
)

// MockBookRepository is a mock implementation of repository.BookRepository
type MockBookRepository struct {
	mock.Mock
}

func (m *MockBookRepository) Insert(ctx context.Context, book models.Book) (int64, error) {
	args := m.Called(ctx, book)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBookRepository) Get(ctx context.Context, id int64) (*models.Book, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Book), args.Error(1)
}

func (m *MockBookRepository) ListWithCounts(ctx context.Context, userID string) ([]models.BookWithCount, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.BookWithCount), args.Error(1)
}

func (m *MockBookRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
