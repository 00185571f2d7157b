package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicdesk/helpdesk/internal/domain"
)

// AuditRepository persists the append-only audit log.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditEntry) error
	ListByEntity(ctx context.Context, entityType, entityID string, limit int) ([]domain.AuditEntry, error)
}

type auditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository instantiates repository.
func NewAuditRepository(pool *pgxpool.Pool) AuditRepository {
	return &auditRepository{pool: pool}
}

func (r *auditRepository) Create(ctx context.Context, entry *domain.AuditEntry) error {
	payload := entry.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	// System actions (the breach sweeper) carry no actor.
	var actorID *string
	if entry.ActorID != "" {
		actorID = &entry.ActorID
	}

	const query = `
        INSERT INTO audit_log (actor_id, action, entity_type, entity_id, payload)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		actorID,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		raw,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *auditRepository) ListByEntity(ctx context.Context, entityType, entityID string, limit int) ([]domain.AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `
        SELECT id, actor_id, action, entity_type, entity_id, payload, created_at
        FROM audit_log WHERE entity_type=$1 AND entity_id=$2
        ORDER BY created_at DESC LIMIT $3`
	rows, err := r.pool.Query(ctx, query, entityType, entityID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AuditEntry
	for rows.Next() {
		var (
			entry   domain.AuditEntry
			actorID *string
			raw     []byte
		)
		if err := rows.Scan(
			&entry.ID,
			&actorID,
			&entry.Action,
			&entry.EntityType,
			&entry.EntityID,
			&raw,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		if actorID != nil {
			entry.ActorID = *actorID
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &entry.Payload); err != nil {
				return nil, err
			}
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
