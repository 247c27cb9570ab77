package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"oshikake/internal/domain"
	"oshikake/internal/port"
)

type orderRepo struct {
	db *sqlx.DB
}

// NewOrderRepo creates a new PostgreSQL-backed OrderRepository.
func NewOrderRepo(db *sqlx.DB) port.OrderRepository {
	return &orderRepo{db: db}
}

// CreateHeader upserts a header row and returns the key the store actually
// persisted. Dependent detail writes must use this key. Distinct documents
// can carry the same order number; the most recent write governs, replacing
// the earlier header in place.
func (r *orderRepo) CreateHeader(ctx context.Context, h *domain.OrderHeader) (string, error) {
	now := time.Now().UTC()
	h.CreatedAt = now
	h.UpdatedAt = now

	query := `INSERT INTO order_headers (
		order_id, order_date, subtotal, shipping_fee, total_amount,
		category, document_name, document_uri, content, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (order_id) DO UPDATE SET
		order_date    = EXCLUDED.order_date,
		subtotal      = EXCLUDED.subtotal,
		shipping_fee  = EXCLUDED.shipping_fee,
		total_amount  = EXCLUDED.total_amount,
		category      = EXCLUDED.category,
		document_name = EXCLUDED.document_name,
		document_uri  = EXCLUDED.document_uri,
		content       = EXCLUDED.content,
		updated_at    = EXCLUDED.updated_at
	RETURNING order_id`

	var storedKey string
	err := r.db.QueryRowxContext(ctx, query,
		h.OrderID, h.OrderDate, h.Subtotal, h.ShippingFee, h.TotalAmount,
		h.Category, h.DocumentName, h.DocumentURI, h.Content, h.CreatedAt, h.UpdatedAt,
	).Scan(&storedKey)
	if err != nil {
		return "", fmt.Errorf("orderRepo.CreateHeader: %w", err)
	}
	return storedKey, nil
}

func (r *orderRepo) CreateDetail(ctx context.Context, d *domain.OrderDetail) error {
	d.CreatedAt = time.Now().UTC()

	query := `INSERT INTO order_details (
		order_header_id, item_id, product_name, unit_price, quantity, subtotal, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		d.OrderHeaderID, d.ItemID, d.ProductName, d.UnitPrice, d.Quantity, d.Subtotal, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("orderRepo.CreateDetail: %w", err)
	}
	return nil
}

func (r *orderRepo) GetHeader(ctx context.Context, orderID string) (*domain.OrderHeader, error) {
	var h domain.OrderHeader
	err := r.db.GetContext(ctx, &h,
		"SELECT * FROM order_headers WHERE order_id = $1", orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("orderRepo.GetHeader: %w", err)
	}
	return &h, nil
}

func (r *orderRepo) ListHeaders(ctx context.Context, filter port.OrderListFilter) ([]domain.OrderHeader, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}

	if filter.Category != "" {
		args = append(args, filter.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			`(order_id ILIKE $%d OR EXISTS (
				SELECT 1 FROM order_details d
				WHERE d.order_header_id = order_headers.order_id
				  AND d.product_name ILIKE $%d))`, n, n))
	}
	cond := strings.Join(where, " AND ")

	var total int
	err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM order_headers WHERE "+cond, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("orderRepo.ListHeaders count: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)

	var headers []domain.OrderHeader
	err = r.db.SelectContext(ctx, &headers,
		fmt.Sprintf(`SELECT * FROM order_headers WHERE %s
		 ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, cond, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, fmt.Errorf("orderRepo.ListHeaders: %w", err)
	}
	return headers, total, nil
}

func (r *orderRepo) ListDetails(ctx context.Context, orderHeaderID string) ([]domain.OrderDetail, error) {
	var details []domain.OrderDetail
	err := r.db.SelectContext(ctx, &details,
		`SELECT * FROM order_details WHERE order_header_id = $1 ORDER BY item_id`,
		orderHeaderID)
	if err != nil {
		return nil, fmt.Errorf("orderRepo.ListDetails: %w", err)
	}
	return details, nil
}

func (r *orderRepo) DeleteDetailsByHeader(ctx context.Context, orderHeaderID string) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM order_details WHERE order_header_id = $1", orderHeaderID)
	if err != nil {
		return fmt.Errorf("orderRepo.DeleteDetailsByHeader: %w", err)
	}
	return nil
}

func (r *orderRepo) DeleteHeader(ctx context.Context, orderID string) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM order_headers WHERE order_id = $1", orderID)
	if err != nil {
		return fmt.Errorf("orderRepo.DeleteHeader: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *orderRepo) CategoryStats(ctx context.Context) ([]domain.CategoryStat, error) {
	var stats []domain.CategoryStat
	err := r.db.SelectContext(ctx, &stats,
		`SELECT category, COUNT(*) AS order_count, COALESCE(SUM(total_amount), 0) AS total_amount
		 FROM order_headers GROUP BY category ORDER BY total_amount DESC`)
	if err != nil {
		return nil, fmt.Errorf("orderRepo.CategoryStats: %w", err)
	}
	return stats, nil
}
