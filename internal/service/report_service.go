package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/clinicdesk/helpdesk/internal/domain"
	"github.com/clinicdesk/helpdesk/internal/repository"
	"github.com/clinicdesk/helpdesk/pkg/apperrors"
)

// ReportService serves dashboard aggregates and ticket exports. Dashboard
// responses are cached in redis for a short TTL; a missing redis client
// degrades to uncached reads.
type ReportService struct {
	reports  repository.ReportRepository
	tickets  repository.TicketRepository
	cache    *redis.Client
	cacheTTL time.Duration
	limit    int
	logger   *zap.Logger
}

// NewReportService constructs the service.
func NewReportService(reports repository.ReportRepository, tickets repository.TicketRepository, cache *redis.Client, cacheTTL time.Duration, exportLimit int, logger *zap.Logger) *ReportService {
	if exportLimit <= 0 {
		exportLimit = 1000
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		reports:  reports,
		tickets:  tickets,
		cache:    cache,
		cacheTTL: cacheTTL,
		limit:    exportLimit,
		logger:   logger,
	}
}

// Dashboard returns aggregate counts for the period.
func (s *ReportService) Dashboard(ctx context.Context, from, to time.Time, clinicUnitID *string) (*repository.DashboardSummary, error) {
	key := dashboardCacheKey(from, to, clinicUnitID)

	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key).Bytes(); err == nil {
			var cached repository.DashboardSummary
			if err := json.Unmarshal(raw, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	summary, err := s.reports.Dashboard(ctx, from, to, clinicUnitID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if s.cache != nil && s.cacheTTL > 0 {
		if raw, err := json.Marshal(summary); err == nil {
			if err := s.cache.Set(ctx, key, raw, s.cacheTTL).Err(); err != nil {
				s.logger.Warn("dashboard cache write failed", zap.Error(err))
			}
		}
	}
	return summary, nil
}

func dashboardCacheKey(from, to time.Time, clinicUnitID *string) string {
	unit := "all"
	if clinicUnitID != nil {
		unit = *clinicUnitID
	}
	return fmt.Sprintf("reports:dashboard:%d:%d:%s", from.Unix(), to.Unix(), unit)
}

var exportHeader = []string{
	"key", "title", "status", "priority", "room", "clinic_unit_id", "category_id",
	"requester_id", "assignee_id", "created_at",
	"first_response_at", "response_due_at", "response_breached_at",
	"resolved_at", "resolution_due_at", "resolution_breached_at",
	"sla_paused_total_min", "resolution_code",
}

func exportRow(t domain.Ticket) []string {
	return []string{
		t.ExternalKey,
		t.Title,
		string(t.Status),
		string(t.Priority),
		string(t.Room),
		t.ClinicUnitID,
		t.CategoryID,
		t.RequesterID,
		strPtr(t.AssigneeID),
		t.CreatedAt.Format(time.RFC3339),
		timePtr(t.FirstResponseAt),
		t.ResponseDueAt.Format(time.RFC3339),
		timePtr(t.ResponseBreachedAt),
		timePtr(t.ResolvedAt),
		t.ResolutionDueAt.Format(time.RFC3339),
		timePtr(t.ResolutionBreachedAt),
		strconv.Itoa(t.SLAPausedTotalMin),
		resolutionCode(t.Resolution),
	}
}

// ExportCSV renders the filtered tickets as UTF-8 CSV with a BOM so
// spreadsheet tools pick the encoding up.
func (s *ReportService) ExportCSV(ctx context.Context, filter repository.TicketFilter) ([]byte, error) {
	tickets, err := s.exportTickets(ctx, filter)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Write([]byte{0xEF, 0xBB, 0xBF})
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	for _, t := range tickets {
		if err := w.Write(exportRow(t)); err != nil {
			return nil, apperrors.NewInternalError(err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return buf.Bytes(), nil
}

// ExportXLSX renders the filtered tickets as a spreadsheet.
func (s *ReportService) ExportXLSX(ctx context.Context, filter repository.TicketFilter) ([]byte, error) {
	tickets, err := s.exportTickets(ctx, filter)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const sheet = "Tickets"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	for col, name := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return nil, apperrors.NewInternalError(err)
		}
	}
	for rowIdx, t := range tickets {
		for col, value := range exportRow(t) {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, apperrors.NewInternalError(err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return buf.Bytes(), nil
}

func (s *ReportService) exportTickets(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	filter.Limit = s.limit
	filter.Offset = 0
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

func strPtr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func timePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

func resolutionCode(r *domain.Resolution) string {
	if r == nil {
		return ""
	}
	return string(r.Code)
}
