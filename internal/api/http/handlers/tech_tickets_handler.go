package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/clinicdesk/helpdesk/internal/api/dto"
	"github.com/clinicdesk/helpdesk/internal/auth"
	"github.com/clinicdesk/helpdesk/internal/domain"
	"github.com/clinicdesk/helpdesk/internal/service"
	"github.com/clinicdesk/helpdesk/pkg/apperrors"
)

// TechTicketsHandler manages the technician queue endpoints.
type TechTicketsHandler struct {
	service *service.TicketService
}

// NewTechTicketsHandler constructs handler.
func NewTechTicketsHandler(ticketService *service.TicketService) *TechTicketsHandler {
	return &TechTicketsHandler{service: ticketService}
}

// Queue GET /tech/tickets.
func (h *TechTicketsHandler) Queue(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	tickets, err := h.service.ListTickets(c.Context(), principal, parseTicketQuery(c))
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Assign POST /tech/tickets/:id/assign.
func (h *TechTicketsHandler) Assign(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AssignTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.AssignTicket(c.Context(), principal, c.Params("id"), req.AssigneeID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// Update PATCH /tech/tickets/:id.
func (h *TechTicketsHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Status == nil && req.Priority == nil && req.Resolution == nil {
		return apperrors.NewValidationError("nothing to update", nil)
	}

	ticket, err := h.service.UpdateTicket(c.Context(), principal, c.Params("id"), service.TicketChangeInput{
		Status:     req.Status,
		Priority:   req.Priority,
		Resolution: resolutionFromRequest(req.Resolution),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetailNoMessages(ticket)})
}

func resolutionFromRequest(req *dto.ResolutionRequest) *domain.Resolution {
	if req == nil {
		return nil
	}
	return &domain.Resolution{
		Code:              req.Code,
		PartsUsed:         req.PartsUsed,
		PartReplacedAt:    normalizeTimePtr(req.PartReplacedAt),
		AssetTag:          req.AssetTag,
		Justification:     req.Justification,
		RecommendedAction: req.RecommendedAction,
	}
}

func normalizeTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}

func ticketDetailNoMessages(ticket *domain.Ticket) dto.TicketDetailResponse {
	return ticketDetail(ticket, nil)
}
