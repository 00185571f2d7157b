package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicdesk/helpdesk/internal/domain"
)

// DashboardSummary aggregates ticket counts for the reporting dashboard.
type DashboardSummary struct {
	Total              int
	ByStatus           map[domain.TicketStatus]int
	ByPriority         map[domain.TicketPriority]int
	ResponseBreached   int
	ResolutionBreached int
	Resolved           int
	ResolvedWithinSLA  int
	Paused             int
	TopCategories      []NamedCount
	TopClinicUnits     []NamedCount
}

// NamedCount is one row of a ranked aggregate.
type NamedCount struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ReportRepository serves read-only aggregates over tickets.
type ReportRepository interface {
	Dashboard(ctx context.Context, from, to time.Time, clinicUnitID *string) (*DashboardSummary, error)
}

type reportRepository struct {
	pool *pgxpool.Pool
}

// NewReportRepository instantiates repository.
func NewReportRepository(pool *pgxpool.Pool) ReportRepository {
	return &reportRepository{pool: pool}
}

func (r *reportRepository) Dashboard(ctx context.Context, from, to time.Time, clinicUnitID *string) (*DashboardSummary, error) {
	summary := &DashboardSummary{
		ByStatus:   make(map[domain.TicketStatus]int),
		ByPriority: make(map[domain.TicketPriority]int),
	}

	where := `t.created_at >= $1 AND t.created_at <= $2`
	args := []any{from, to}
	if clinicUnitID != nil {
		args = append(args, *clinicUnitID)
		where += ` AND t.clinic_unit_id=$3`
	}

	rows, err := r.pool.Query(ctx,
		`SELECT status, priority, COUNT(*) FROM tickets t WHERE `+where+` GROUP BY status, priority`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status   domain.TicketStatus
			priority domain.TicketPriority
			count    int
		)
		if err := rows.Scan(&status, &priority, &count); err != nil {
			return nil, err
		}
		summary.Total += count
		summary.ByStatus[status] += count
		summary.ByPriority[priority] += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = r.pool.QueryRow(ctx, `
        SELECT
            COUNT(*) FILTER (WHERE response_breached_at IS NOT NULL),
            COUNT(*) FILTER (WHERE resolution_breached_at IS NOT NULL),
            COUNT(*) FILTER (WHERE resolved_at IS NOT NULL),
            COUNT(*) FILTER (WHERE resolved_at IS NOT NULL AND resolution_breached_at IS NULL),
            COUNT(*) FILTER (WHERE sla_paused_at IS NOT NULL AND status NOT IN ('RESOLVED','CLOSED'))
        FROM tickets t WHERE `+where, args...).Scan(
		&summary.ResponseBreached,
		&summary.ResolutionBreached,
		&summary.Resolved,
		&summary.ResolvedWithinSLA,
		&summary.Paused,
	)
	if err != nil {
		return nil, err
	}

	summary.TopCategories, err = r.rankedCounts(ctx, `
        SELECT c.id, c.name, COUNT(*) FROM tickets t
        JOIN categories c ON c.id = t.category_id
        WHERE `+where+`
        GROUP BY c.id, c.name ORDER BY COUNT(*) DESC LIMIT 5`, args)
	if err != nil {
		return nil, err
	}

	summary.TopClinicUnits, err = r.rankedCounts(ctx, `
        SELECT u.id, u.name, COUNT(*) FROM tickets t
        JOIN clinic_units u ON u.id = t.clinic_unit_id
        WHERE `+where+`
        GROUP BY u.id, u.name ORDER BY COUNT(*) DESC LIMIT 5`, args)
	if err != nil {
		return nil, err
	}

	return summary, nil
}

func (r *reportRepository) rankedCounts(ctx context.Context, query string, args []any) ([]NamedCount, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []NamedCount
	for rows.Next() {
		var entry NamedCount
		if err := rows.Scan(&entry.ID, &entry.Name, &entry.Count); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
