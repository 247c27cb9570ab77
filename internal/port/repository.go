package port

import (
	"context"

	"oshikake/internal/domain"
)

// OrderListFilter narrows a header listing. Zero values mean "no filter".
type OrderListFilter struct {
	Category domain.Category
	Search   string
	Offset   int
	Limit    int
}

// OrderRepository defines the contract for order persistence.
//
// CreateHeader returns the key the store actually persisted; callers must
// use that key, not the pre-write value, for all dependent detail writes.
type OrderRepository interface {
	CreateHeader(ctx context.Context, header *domain.OrderHeader) (string, error)
	CreateDetail(ctx context.Context, detail *domain.OrderDetail) error
	GetHeader(ctx context.Context, orderID string) (*domain.OrderHeader, error)
	ListHeaders(ctx context.Context, filter OrderListFilter) ([]domain.OrderHeader, int, error)
	ListDetails(ctx context.Context, orderHeaderID string) ([]domain.OrderDetail, error)
	DeleteDetailsByHeader(ctx context.Context, orderHeaderID string) error
	DeleteHeader(ctx context.Context, orderID string) error
	CategoryStats(ctx context.Context) ([]domain.CategoryStat, error)
}
