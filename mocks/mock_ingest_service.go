package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"oshikake/internal/domain"
	"oshikake/internal/service"
)

// MockIngestService is a mock implementation of service.IngestService.
type MockIngestService struct {
	mock.Mock
}

func (m *MockIngestService) ProcessObject(ctx context.Context, bucket, key string) (*domain.Order, error) {
	args := m.Called(ctx, bucket, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockIngestService) ProcessBatch(ctx context.Context, events []service.ObjectEvent) *service.BatchResult {
	args := m.Called(ctx, events)
	return args.Get(0).(*service.BatchResult)
}

func (m *MockIngestService) UploadAndProcess(ctx context.Context, filename, contentType string, data []byte) (*domain.Order, error) {
	args := m.Called(ctx, filename, contentType, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}
