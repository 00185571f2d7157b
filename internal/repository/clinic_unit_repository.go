package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicdesk/helpdesk/internal/domain"
)

// ClinicUnitRepository encapsulates clinic unit persistence.
type ClinicUnitRepository interface {
	Create(ctx context.Context, unit *domain.ClinicUnit) error
	Update(ctx context.Context, unit *domain.ClinicUnit) error
	GetByID(ctx context.Context, id string) (*domain.ClinicUnit, error)
	List(ctx context.Context) ([]domain.ClinicUnit, error)
}

type clinicUnitRepository struct {
	pool *pgxpool.Pool
}

// NewClinicUnitRepository instantiates repository.
func NewClinicUnitRepository(pool *pgxpool.Pool) ClinicUnitRepository {
	return &clinicUnitRepository{pool: pool}
}

func (r *clinicUnitRepository) Create(ctx context.Context, unit *domain.ClinicUnit) error {
	const query = `
        INSERT INTO clinic_units (name) VALUES ($1)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query, unit.Name).
		Scan(&unit.ID, &unit.CreatedAt, &unit.UpdatedAt)
}

func (r *clinicUnitRepository) Update(ctx context.Context, unit *domain.ClinicUnit) error {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE clinic_units SET name=$1, updated_at=NOW() WHERE id=$2`, unit.Name, unit.ID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *clinicUnitRepository) GetByID(ctx context.Context, id string) (*domain.ClinicUnit, error) {
	var unit domain.ClinicUnit
	if err := r.pool.QueryRow(ctx,
		`SELECT id, name, created_at, updated_at FROM clinic_units WHERE id=$1`, id,
	).Scan(&unit.ID, &unit.Name, &unit.CreatedAt, &unit.UpdatedAt); err != nil {
		return nil, err
	}
	return &unit, nil
}

func (r *clinicUnitRepository) List(ctx context.Context) ([]domain.ClinicUnit, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, created_at, updated_at FROM clinic_units ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ClinicUnit
	for rows.Next() {
		var unit domain.ClinicUnit
		if err := rows.Scan(&unit.ID, &unit.Name, &unit.CreatedAt, &unit.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, unit)
	}
	return result, rows.Err()
}
