package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicdesk/helpdesk/internal/domain"
	"github.com/clinicdesk/helpdesk/pkg/apperrors"
)

// HardwareRepository persists the hardware asset inventory.
type HardwareRepository interface {
	Create(ctx context.Context, asset *domain.HardwareAsset) error
	Update(ctx context.Context, asset *domain.HardwareAsset) error
	GetByID(ctx context.Context, id string) (*domain.HardwareAsset, error)
	GetByAssetTag(ctx context.Context, tag string) (*domain.HardwareAsset, error)
	List(ctx context.Context, clinicUnitID *string, status *domain.HardwareStatus) ([]domain.HardwareAsset, error)
}

type hardwareRepository struct {
	pool *pgxpool.Pool
}

// NewHardwareRepository instantiates repository.
func NewHardwareRepository(pool *pgxpool.Pool) HardwareRepository {
	return &hardwareRepository{pool: pool}
}

const hardwareColumns = `id, asset_tag, clinic_unit_id, room, type, model, anydesk_id, status, notes, created_at, updated_at`

func (r *hardwareRepository) Create(ctx context.Context, asset *domain.HardwareAsset) error {
	const query = `
        INSERT INTO hardware_assets (asset_tag, clinic_unit_id, room, type, model, anydesk_id, status, notes)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		asset.AssetTag,
		asset.ClinicUnitID,
		asset.Room,
		asset.Type,
		asset.Model,
		asset.AnyDeskID,
		asset.Status,
		asset.Notes,
	).Scan(&asset.ID, &asset.CreatedAt, &asset.UpdatedAt)
	if isUniqueViolation(err) {
		return apperrors.NewConflict("asset tag already registered", map[string]any{"assetTag": asset.AssetTag})
	}
	return err
}

func (r *hardwareRepository) Update(ctx context.Context, asset *domain.HardwareAsset) error {
	const query = `
        UPDATE hardware_assets SET clinic_unit_id=$1, room=$2, type=$3, model=$4,
            anydesk_id=$5, status=$6, notes=$7, updated_at=NOW()
        WHERE id=$8`
	cmd, err := r.pool.Exec(ctx, query,
		asset.ClinicUnitID,
		asset.Room,
		asset.Type,
		asset.Model,
		asset.AnyDeskID,
		asset.Status,
		asset.Notes,
		asset.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *hardwareRepository) GetByID(ctx context.Context, id string) (*domain.HardwareAsset, error) {
	return r.fetchSingle(ctx, `SELECT `+hardwareColumns+` FROM hardware_assets WHERE id=$1`, id)
}

func (r *hardwareRepository) GetByAssetTag(ctx context.Context, tag string) (*domain.HardwareAsset, error) {
	return r.fetchSingle(ctx, `SELECT `+hardwareColumns+` FROM hardware_assets WHERE asset_tag=$1`, tag)
}

func (r *hardwareRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.HardwareAsset, error) {
	var asset domain.HardwareAsset
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&asset.ID,
		&asset.AssetTag,
		&asset.ClinicUnitID,
		&asset.Room,
		&asset.Type,
		&asset.Model,
		&asset.AnyDeskID,
		&asset.Status,
		&asset.Notes,
		&asset.CreatedAt,
		&asset.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &asset, nil
}

func (r *hardwareRepository) List(ctx context.Context, clinicUnitID *string, status *domain.HardwareStatus) ([]domain.HardwareAsset, error) {
	query := `SELECT ` + hardwareColumns + ` FROM hardware_assets WHERE 1=1`
	args := []any{}
	if clinicUnitID != nil {
		args = append(args, *clinicUnitID)
		query += ` AND clinic_unit_id=$1`
	}
	if status != nil {
		args = append(args, *status)
		if len(args) == 1 {
			query += ` AND status=$1`
		} else {
			query += ` AND status=$2`
		}
	}
	query += ` ORDER BY asset_tag ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.HardwareAsset
	for rows.Next() {
		var asset domain.HardwareAsset
		if err := rows.Scan(
			&asset.ID,
			&asset.AssetTag,
			&asset.ClinicUnitID,
			&asset.Room,
			&asset.Type,
			&asset.Model,
			&asset.AnyDeskID,
			&asset.Status,
			&asset.Notes,
			&asset.CreatedAt,
			&asset.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, asset)
	}
	return result, rows.Err()
}
