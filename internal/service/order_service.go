package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"oshikake/internal/config"
	"oshikake/internal/domain"
	"oshikake/internal/port"
)

// OrderService defines the order read/delete contract.
type OrderService interface {
	List(ctx context.Context, filter port.OrderListFilter) ([]domain.OrderHeader, int, error)
	Get(ctx context.Context, orderID string) (*domain.Order, error)
	Delete(ctx context.Context, orderID string) error
	Stats(ctx context.Context) ([]domain.CategoryStat, error)
	Export(ctx context.Context, filter port.OrderListFilter) ([]domain.Order, error)
	DocumentURL(ctx context.Context, orderID string) (string, error)
}

type orderService struct {
	repo          port.OrderRepository
	storage       port.ObjectStorage
	presignExpiry int64
}

// NewOrderService creates a new OrderService implementation.
func NewOrderService(repo port.OrderRepository, storage port.ObjectStorage, s3Cfg *config.S3Config) OrderService {
	return &orderService{
		repo:          repo,
		storage:       storage,
		presignExpiry: s3Cfg.PresignExpirySecs,
	}
}

func (s *orderService) List(ctx context.Context, filter port.OrderListFilter) ([]domain.OrderHeader, int, error) {
	return s.repo.ListHeaders(ctx, filter)
}

func (s *orderService) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	header, err := s.repo.GetHeader(ctx, orderID)
	if err != nil {
		return nil, err
	}
	details, err := s.repo.ListDetails(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("orderService.Get: %w", err)
	}
	return &domain.Order{OrderHeader: *header, Details: details}, nil
}

// Delete removes the detail rows before the header so a failure between
// the two writes never strands details without their parent. The stored
// document image is removed last, best effort: the database rows are
// already gone, so a storage failure only logs.
func (s *orderService) Delete(ctx context.Context, orderID string) error {
	header, err := s.repo.GetHeader(ctx, orderID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteDetailsByHeader(ctx, orderID); err != nil {
		return fmt.Errorf("orderService.Delete: %w", err)
	}
	if err := s.repo.DeleteHeader(ctx, orderID); err != nil {
		return fmt.Errorf("orderService.Delete: %w", err)
	}
	if bucket, key, err := splitObjectURI(header.DocumentURI); err == nil {
		if err := s.storage.Delete(ctx, bucket, key); err != nil {
			log.Printf("orderService: failed to delete document %s: %v", header.DocumentURI, err)
		}
	}
	log.Printf("orderService: deleted order %s", orderID)
	return nil
}

func (s *orderService) Stats(ctx context.Context) ([]domain.CategoryStat, error) {
	return s.repo.CategoryStats(ctx)
}

// DocumentURL returns a presigned GET URL for the source document image
// behind an order.
func (s *orderService) DocumentURL(ctx context.Context, orderID string) (string, error) {
	header, err := s.repo.GetHeader(ctx, orderID)
	if err != nil {
		return "", err
	}

	bucket, key, err := splitObjectURI(header.DocumentURI)
	if err != nil {
		return "", fmt.Errorf("orderService.DocumentURL: %w", err)
	}

	url, err := s.storage.GetPresignedURL(ctx, bucket, key, s.presignExpiry)
	if err != nil {
		return "", fmt.Errorf("orderService.DocumentURL: %w", err)
	}
	return url, nil
}

// splitObjectURI parses an s3://bucket/key URI into its parts.
func splitObjectURI(uri string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", fmt.Errorf("not an object URI: %q", uri)
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("malformed object URI: %q", uri)
	}
	return bucket, key, nil
}

// Export loads full orders (headers with details) for workbook generation.
func (s *orderService) Export(ctx context.Context, filter port.OrderListFilter) ([]domain.Order, error) {
	headers, _, err := s.repo.ListHeaders(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("orderService.Export: %w", err)
	}
	orders := make([]domain.Order, 0, len(headers))
	for _, h := range headers {
		details, err := s.repo.ListDetails(ctx, h.OrderID)
		if err != nil {
			return nil, fmt.Errorf("orderService.Export: %w", err)
		}
		orders = append(orders, domain.Order{OrderHeader: h, Details: details})
	}
	return orders, nil
}
