package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicdesk/helpdesk/internal/domain"
	"github.com/clinicdesk/helpdesk/pkg/apperrors"
)

const uniqueViolationCode = "23505"

// StockRepository persists spare part stock.
type StockRepository interface {
	Create(ctx context.Context, item *domain.StockItem) error
	Update(ctx context.Context, item *domain.StockItem) error
	AdjustQuantity(ctx context.Context, id string, delta int) (*domain.StockItem, error)
	GetByID(ctx context.Context, id string) (*domain.StockItem, error)
	List(ctx context.Context, belowMinimumOnly bool) ([]domain.StockItem, error)
}

type stockRepository struct {
	pool *pgxpool.Pool
}

// NewStockRepository instantiates repository.
func NewStockRepository(pool *pgxpool.Pool) StockRepository {
	return &stockRepository{pool: pool}
}

func (r *stockRepository) Create(ctx context.Context, item *domain.StockItem) error {
	const query = `
        INSERT INTO stock_items (name, quantity, min_quantity)
        VALUES ($1,$2,$3)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		item.Name,
		item.Quantity,
		item.MinQuantity,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if isUniqueViolation(err) {
		return apperrors.NewConflict("stock item already exists", map[string]any{"name": item.Name})
	}
	return err
}

func (r *stockRepository) Update(ctx context.Context, item *domain.StockItem) error {
	const query = `
        UPDATE stock_items SET name=$1, quantity=$2, min_quantity=$3, updated_at=NOW()
        WHERE id=$4`
	cmd, err := r.pool.Exec(ctx, query, item.Name, item.Quantity, item.MinQuantity, item.ID)
	if isUniqueViolation(err) {
		return apperrors.NewConflict("stock item already exists", map[string]any{"name": item.Name})
	}
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// AdjustQuantity applies a relative change; the CHECK constraint rejects
// adjustments that would drive quantity negative.
func (r *stockRepository) AdjustQuantity(ctx context.Context, id string, delta int) (*domain.StockItem, error) {
	const query = `
        UPDATE stock_items SET quantity = quantity + $1, updated_at=NOW()
        WHERE id=$2
        RETURNING id, name, quantity, min_quantity, created_at, updated_at`
	var item domain.StockItem
	err := r.pool.QueryRow(ctx, query, delta, id).Scan(
		&item.ID, &item.Name, &item.Quantity, &item.MinQuantity, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23514" {
			return nil, apperrors.NewValidationError("insufficient stock quantity", nil)
		}
		return nil, err
	}
	return &item, nil
}

func (r *stockRepository) GetByID(ctx context.Context, id string) (*domain.StockItem, error) {
	var item domain.StockItem
	if err := r.pool.QueryRow(ctx,
		`SELECT id, name, quantity, min_quantity, created_at, updated_at FROM stock_items WHERE id=$1`, id,
	).Scan(&item.ID, &item.Name, &item.Quantity, &item.MinQuantity, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *stockRepository) List(ctx context.Context, belowMinimumOnly bool) ([]domain.StockItem, error) {
	query := `SELECT id, name, quantity, min_quantity, created_at, updated_at FROM stock_items`
	if belowMinimumOnly {
		query += ` WHERE quantity < min_quantity`
	}
	query += ` ORDER BY name ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StockItem
	for rows.Next() {
		var item domain.StockItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Quantity, &item.MinQuantity, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
