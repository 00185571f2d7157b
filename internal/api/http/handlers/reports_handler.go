package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/clinicdesk/helpdesk/internal/repository"
	"github.com/clinicdesk/helpdesk/internal/service"
	"github.com/clinicdesk/helpdesk/pkg/apperrors"
)

// ReportsHandler serves dashboard aggregates and ticket exports.
type ReportsHandler struct {
	service *service.ReportService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reportService *service.ReportService) *ReportsHandler {
	return &ReportsHandler{service: reportService}
}

// Dashboard GET /reports/dashboard.
func (h *ReportsHandler) Dashboard(c *fiber.Ctx) error {
	from, to, err := parsePeriod(c)
	if err != nil {
		return err
	}
	var clinicUnitID *string
	if unit := c.Query("clinic_unit_id"); unit != "" {
		clinicUnitID = &unit
	}

	summary, err := h.service.Dashboard(c.Context(), from, to, clinicUnitID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": summary})
}

// ExportCSV GET /reports/tickets.csv.
func (h *ReportsHandler) ExportCSV(c *fiber.Ctx) error {
	data, err := h.service.ExportCSV(c.Context(), exportFilter(c))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="tickets.csv"`)
	return c.Send(data)
}

// ExportXLSX GET /reports/tickets.xlsx.
func (h *ReportsHandler) ExportXLSX(c *fiber.Ctx) error {
	data, err := h.service.ExportXLSX(c.Context(), exportFilter(c))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="tickets.xlsx"`)
	return c.Send(data)
}

func parsePeriod(c *fiber.Ctx) (time.Time, time.Time, error) {
	to := time.Now().UTC()
	from := to.AddDate(0, -1, 0)
	if v := parseTimeQuery(c.Query("from")); v != nil {
		from = *v
	}
	if v := parseTimeQuery(c.Query("to")); v != nil {
		to = *v
	}
	if !from.Before(to) {
		return time.Time{}, time.Time{}, apperrors.NewValidationError("from must precede to", nil)
	}
	return from, to, nil
}

func exportFilter(c *fiber.Ctx) repository.TicketFilter {
	parsed := parseTicketQuery(c)
	return repository.TicketFilter{
		ClinicUnitID: parsed.ClinicUnitID,
		Room:         parsed.Room,
		CategoryID:   parsed.CategoryID,
		AssigneeID:   parsed.AssigneeID,
		Statuses:     parsed.Statuses,
		Priorities:   parsed.Priorities,
		SearchTerm:   parsed.SearchTerm,
		CreatedFrom:  parsed.CreatedFrom,
		CreatedTo:    parsed.CreatedTo,
	}
}
