package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicdesk/helpdesk/internal/domain"
	"github.com/clinicdesk/helpdesk/internal/sla"
)

// TicketFilter captures list/search parameters. Role scoping is expressed by
// the service through RequesterID or ClinicUnitID.
type TicketFilter struct {
	RequesterID  *string
	ClinicUnitID *string
	AssigneeID   *string
	CategoryID   *string
	Room         *domain.Room
	Statuses     []domain.TicketStatus
	Priorities   []domain.TicketPriority
	Unassigned   bool
	SearchTerm   *string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
}

// TicketRepository encapsulates ticket persistence.
//
// UpdateLocked is the single write path for lifecycle fields: it loads the
// row under SELECT ... FOR UPDATE, hands the current state to apply, and
// persists the returned patch in the same transaction. Concurrent updates to
// one ticket therefore serialize at the database row.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByExternalKey(ctx context.Context, key string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	UpdateLocked(ctx context.Context, id string, apply func(t domain.Ticket) (sla.Patch, error)) (*domain.Ticket, error)
	UpdateAssignee(ctx context.Context, id string, assigneeID *string) error
	ListBreachCandidates(ctx context.Context, now time.Time, limit int) ([]domain.Ticket, error)
	CountPaused(ctx context.Context) (int, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, external_key, clinic_unit_id, requester_id, assignee_id, category_id,
    room, title, description, status, priority, created_at, updated_at,
    first_response_at, response_due_at, response_breached_at,
    resolved_at, resolution_due_at, resolution_breached_at,
    sla_paused_at, sla_paused_total_min,
    resolution_code, resolution_parts_used, resolution_part_replaced_at,
    resolution_asset_tag, resolution_justification, resolution_recommended_action`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (clinic_unit_id, requester_id, category_id, room, title, description,
            status, priority, response_due_at, resolution_due_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, external_key, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.ClinicUnitID,
		ticket.RequesterID,
		ticket.CategoryID,
		ticket.Room,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.ResponseDueAt,
		ticket.ResolutionDueAt,
	).Scan(&ticket.ID, &ticket.ExternalKey, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	return scanTicketRow(r.pool.QueryRow(ctx, query, id))
}

func (r *ticketRepository) GetByExternalKey(ctx context.Context, key string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE external_key=$1`, ticketColumns)
	return scanTicketRow(r.pool.QueryRow(ctx, query, key))
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.RequesterID != nil {
		args = append(args, *filter.RequesterID)
		clauses = append(clauses, fmt.Sprintf("requester_id=$%d", len(args)))
	}
	if filter.ClinicUnitID != nil {
		args = append(args, *filter.ClinicUnitID)
		clauses = append(clauses, fmt.Sprintf("clinic_unit_id=$%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assignee_id=$%d", len(args)))
	}
	if filter.Unassigned {
		clauses = append(clauses, "assignee_id IS NULL")
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		clauses = append(clauses, fmt.Sprintf("category_id=$%d", len(args)))
	}
	if filter.Room != nil {
		args = append(args, *filter.Room)
		clauses = append(clauses, fmt.Sprintf("room=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s OR LOWER(external_key) LIKE %s)",
			placeholder, placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		ticketColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) UpdateLocked(ctx context.Context, id string, apply func(t domain.Ticket) (sla.Patch, error)) (*domain.Ticket, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1 FOR UPDATE`, ticketColumns)
	current, err := scanTicketRow(tx.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	patch, err := apply(*current)
	if err != nil {
		return nil, err
	}

	sets, args := patchAssignments(patch)
	if len(sets) > 0 {
		args = append(args, id)
		update := fmt.Sprintf(`UPDATE tickets SET %s, updated_at=NOW() WHERE id=$%d`,
			strings.Join(sets, ", "), len(args))
		if _, err := tx.Exec(ctx, update, args...); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	updated := patch.Apply(*current)
	updated.UpdatedAt = time.Now().UTC()
	return &updated, nil
}

// patchAssignments translates the set fields of a patch into SET clauses.
func patchAssignments(p sla.Patch) ([]string, []any) {
	var sets []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}

	if p.Status != nil {
		add("status", *p.Status)
	}
	if p.Priority != nil {
		add("priority", *p.Priority)
	}
	if p.ResponseDueAt != nil {
		add("response_due_at", *p.ResponseDueAt)
	}
	if p.ResolutionDueAt != nil {
		add("resolution_due_at", *p.ResolutionDueAt)
	}
	if p.FirstResponseAt != nil {
		add("first_response_at", *p.FirstResponseAt)
	}
	if p.ResponseBreachedAt != nil {
		add("response_breached_at", *p.ResponseBreachedAt)
	}
	if p.ResolvedAt != nil {
		add("resolved_at", *p.ResolvedAt)
	}
	if p.ResolutionBreachedAt != nil {
		add("resolution_breached_at", *p.ResolutionBreachedAt)
	}
	if p.ClearSLAPause {
		sets = append(sets, "sla_paused_at=NULL")
	} else if p.SLAPausedAt != nil {
		add("sla_paused_at", *p.SLAPausedAt)
	}
	if p.SLAPausedTotalMin != nil {
		add("sla_paused_total_min", *p.SLAPausedTotalMin)
	}
	if p.Resolution != nil {
		add("resolution_code", p.Resolution.Code)
		add("resolution_parts_used", p.Resolution.PartsUsed)
		add("resolution_part_replaced_at", p.Resolution.PartReplacedAt)
		add("resolution_asset_tag", p.Resolution.AssetTag)
		add("resolution_justification", p.Resolution.Justification)
		add("resolution_recommended_action", p.Resolution.RecommendedAction)
	}
	return sets, args
}

func (r *ticketRepository) UpdateAssignee(ctx context.Context, id string, assigneeID *string) error {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE tickets SET assignee_id=$1, updated_at=NOW() WHERE id=$2`, assigneeID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListBreachCandidates returns open tickets whose response or resolution
// deadline has passed without a breach marker. Paused tickets only qualify
// on the response clock since the resolution clock is stopped.
func (r *ticketRepository) ListBreachCandidates(ctx context.Context, now time.Time, limit int) ([]domain.Ticket, error) {
	if limit <= 0 {
		limit = 200
	}
	query := fmt.Sprintf(`SELECT %s FROM tickets
        WHERE status NOT IN ('RESOLVED','CLOSED')
          AND (
            (response_breached_at IS NULL AND first_response_at IS NULL AND response_due_at < $1)
            OR
            (resolution_breached_at IS NULL AND resolved_at IS NULL AND sla_paused_at IS NULL AND resolution_due_at < $1)
          )
        ORDER BY created_at ASC
        LIMIT %d`, ticketColumns, limit)

	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) CountPaused(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM tickets WHERE sla_paused_at IS NOT NULL AND status NOT IN ('RESOLVED','CLOSED')`,
	).Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicketRow(row rowScanner) (*domain.Ticket, error) {
	var (
		ticket  domain.Ticket
		resCode *string
		res     domain.Resolution
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.ExternalKey,
		&ticket.ClinicUnitID,
		&ticket.RequesterID,
		&ticket.AssigneeID,
		&ticket.CategoryID,
		&ticket.Room,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.FirstResponseAt,
		&ticket.ResponseDueAt,
		&ticket.ResponseBreachedAt,
		&ticket.ResolvedAt,
		&ticket.ResolutionDueAt,
		&ticket.ResolutionBreachedAt,
		&ticket.SLAPausedAt,
		&ticket.SLAPausedTotalMin,
		&resCode,
		&res.PartsUsed,
		&res.PartReplacedAt,
		&res.AssetTag,
		&res.Justification,
		&res.RecommendedAction,
	); err != nil {
		return nil, err
	}
	if resCode != nil {
		res.Code = domain.ResolutionCode(*resCode)
		ticket.Resolution = &res
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicketRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}
