package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"oshikake/internal/domain"
	"oshikake/internal/port"
)

// MockOrderRepo is a mock implementation of port.OrderRepository.
type MockOrderRepo struct {
	mock.Mock
}

func (m *MockOrderRepo) CreateHeader(ctx context.Context, header *domain.OrderHeader) (string, error) {
	args := m.Called(ctx, header)
	return args.String(0), args.Error(1)
}

func (m *MockOrderRepo) CreateDetail(ctx context.Context, detail *domain.OrderDetail) error {
	args := m.Called(ctx, detail)
	return args.Error(0)
}

func (m *MockOrderRepo) GetHeader(ctx context.Context, orderID string) (*domain.OrderHeader, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OrderHeader), args.Error(1)
}

func (m *MockOrderRepo) ListHeaders(ctx context.Context, filter port.OrderListFilter) ([]domain.OrderHeader, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.OrderHeader), args.Int(1), args.Error(2)
}

func (m *MockOrderRepo) ListDetails(ctx context.Context, orderHeaderID string) ([]domain.OrderDetail, error) {
	args := m.Called(ctx, orderHeaderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.OrderDetail), args.Error(1)
}

func (m *MockOrderRepo) DeleteDetailsByHeader(ctx context.Context, orderHeaderID string) error {
	args := m.Called(ctx, orderHeaderID)
	return args.Error(0)
}

func (m *MockOrderRepo) DeleteHeader(ctx context.Context, orderID string) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

func (m *MockOrderRepo) CategoryStats(ctx context.Context) ([]domain.CategoryStat, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CategoryStat), args.Error(1)
}
