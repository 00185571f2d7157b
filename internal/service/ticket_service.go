package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clinicdesk/helpdesk/internal/auth"
	"github.com/clinicdesk/helpdesk/internal/domain"
	"github.com/clinicdesk/helpdesk/internal/events"
	"github.com/clinicdesk/helpdesk/internal/observability"
	"github.com/clinicdesk/helpdesk/internal/repository"
	"github.com/clinicdesk/helpdesk/internal/sla"
	"github.com/clinicdesk/helpdesk/pkg/apperrors"
)

// TicketService coordinates ticket workflows around the lifecycle engine.
type TicketService struct {
	tickets     repository.TicketRepository
	messages    repository.TicketMessageRepository
	attachments repository.AttachmentRepository
	categories  repository.CategoryRepository
	units       repository.ClinicUnitRepository
	users       repository.UserRepository
	audits      repository.AuditRepository
	engine      *sla.Engine
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
	now         func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	MessageRepo    repository.TicketMessageRepository
	AttachmentRepo repository.AttachmentRepository
	CategoryRepo   repository.CategoryRepository
	ClinicUnitRepo repository.ClinicUnitRepository
	UserRepo       repository.UserRepository
	AuditRepo      repository.AuditRepository
	Engine         *sla.Engine
	Dispatcher     events.Dispatcher
	Metrics        *observability.Metrics
	Logger         *zap.Logger
	Now            func() time.Time
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	now := deps.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:     deps.TicketRepo,
		messages:    deps.MessageRepo,
		attachments: deps.AttachmentRepo,
		categories:  deps.CategoryRepo,
		units:       deps.ClinicUnitRepo,
		users:       deps.UserRepo,
		audits:      deps.AuditRepo,
		engine:      deps.Engine,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      logger,
		now:         now,
	}
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	CategoryID  string
	Room        domain.Room
	Title       string
	Description string
	Priority    *domain.TicketPriority
}

// TicketListFilter describes listing filters before role scoping.
type TicketListFilter struct {
	ClinicUnitID *string
	Room         *domain.Room
	CategoryID   *string
	AssigneeID   *string
	Unassigned   bool
	Statuses     []domain.TicketStatus
	Priorities   []domain.TicketPriority
	SearchTerm   *string
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
}

// TicketChangeInput describes a lifecycle update request.
type TicketChangeInput struct {
	Status     *domain.TicketStatus
	Priority   *domain.TicketPriority
	Resolution *domain.Resolution
}

// CreateTicket opens a ticket for the requester, computing the initial SLA
// deadlines from the category and priority.
func (s *TicketService) CreateTicket(ctx context.Context, principal *auth.Principal, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title required", nil)
	}
	if !input.Room.Valid() {
		return nil, apperrors.NewValidationError("invalid room", map[string]any{"room": input.Room})
	}

	category, err := s.categories.GetByID(ctx, input.CategoryID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !category.Active {
		return nil, apperrors.NewValidationError("category inactive", map[string]any{"categoryId": category.ID})
	}

	priority := category.DefaultPriority
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": *input.Priority})
		}
		priority = *input.Priority
	}

	createdAt := s.now()
	due := s.engine.Calculator().InitialDueDates(createdAt, priority, category.ResolutionOverrideHours)

	ticket := &domain.Ticket{
		ClinicUnitID:    principal.ClinicUnitID(),
		RequesterID:     principal.ID(),
		CategoryID:      category.ID,
		Room:            input.Room,
		Title:           title,
		Description:     strings.TrimSpace(input.Description),
		Status:          domain.TicketStatusOpen,
		Priority:        priority,
		ResponseDueAt:   due.ResponseDueAt,
		ResolutionDueAt: due.ResolutionDueAt,
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	if ticket.Description != "" {
		opening := &domain.TicketMessage{
			TicketID:   ticket.ID,
			AuthorID:   principal.ID(),
			Visibility: domain.VisibilityPublic,
			Body:       ticket.Description,
		}
		if err := s.messages.Create(ctx, opening); err != nil {
			s.logger.Warn("opening message not recorded", zap.String("ticketId", ticket.ID), zap.Error(err))
		}
	}

	s.recordAudit(ctx, principal.ID(), "TICKET_CREATE", ticket.ID, map[string]any{
		"priority": ticket.Priority,
		"category": ticket.CategoryID,
	})
	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  principal.ID(),
		Payload: events.TicketCreatedPayload{
			ClinicUnitID: ticket.ClinicUnitID,
			CategoryID:   ticket.CategoryID,
			Room:         ticket.Room,
			Priority:     ticket.Priority,
			Title:        ticket.Title,
		},
	})
	s.metrics.TicketCreated()
	return ticket, nil
}

// GetTicket fetches a ticket with its visible conversation thread.
func (s *TicketService) GetTicket(ctx context.Context, principal *auth.Principal, ticketID string) (*domain.Ticket, []domain.TicketMessage, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	if err := s.canAccess(principal, ticket); err != nil {
		return nil, nil, err
	}

	includeInternal := principal.Role() != domain.RoleRequester
	msgs, err := s.messages.ListByTicket(ctx, ticket.ID, includeInternal)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}

	attachments, err := s.attachments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	byMessage := make(map[string][]domain.Attachment)
	for _, att := range attachments {
		if att.MessageID != nil {
			byMessage[*att.MessageID] = append(byMessage[*att.MessageID], att)
		}
	}
	for i := range msgs {
		msgs[i].Attachments = byMessage[msgs[i].ID]
	}
	return ticket, msgs, nil
}

// ListTickets returns tickets narrowed to what the caller may see:
// requesters their own, coordinators their clinic unit, techs and admins
// everything.
func (s *TicketService) ListTickets(ctx context.Context, principal *auth.Principal, filter TicketListFilter) ([]domain.Ticket, error) {
	repoFilter := repository.TicketFilter{
		ClinicUnitID: filter.ClinicUnitID,
		Room:         filter.Room,
		CategoryID:   filter.CategoryID,
		AssigneeID:   filter.AssigneeID,
		Unassigned:   filter.Unassigned,
		Statuses:     filter.Statuses,
		Priorities:   filter.Priorities,
		SearchTerm:   filter.SearchTerm,
		CreatedFrom:  filter.CreatedFrom,
		CreatedTo:    filter.CreatedTo,
		Limit:        filter.Limit,
		Offset:       filter.Offset,
	}

	switch principal.Role() {
	case domain.RoleRequester:
		requesterID := principal.ID()
		repoFilter.RequesterID = &requesterID
	case domain.RoleCoordinator:
		unitID := principal.ClinicUnitID()
		repoFilter.ClinicUnitID = &unitID
	}

	return s.tickets.ListWithFilter(ctx, repoFilter)
}

// MessageInput describes a thread message payload.
type MessageInput struct {
	Body        string
	Visibility  domain.MessageVisibility
	Attachments []AttachmentInput
}

// AttachmentInput defines attachment metadata.
type AttachmentInput struct {
	StorageKey string
	FileName   string
	MimeType   string
	SizeBytes  int64
}

// AddMessage appends a message to a ticket's thread. The first public reply
// by a technician stamps the ticket's first response.
func (s *TicketService) AddMessage(ctx context.Context, principal *auth.Principal, ticketID string, input MessageInput) (*domain.TicketMessage, error) {
	body := strings.TrimSpace(input.Body)
	if body == "" {
		return nil, apperrors.NewValidationError("message body required", nil)
	}
	visibility := input.Visibility
	if visibility == "" {
		visibility = domain.VisibilityPublic
	}
	if !visibility.Valid() {
		return nil, apperrors.NewValidationError("invalid visibility", map[string]any{"visibility": visibility})
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.canAccess(principal, ticket); err != nil {
		return nil, err
	}
	if principal.Role() == domain.RoleRequester && visibility != domain.VisibilityPublic {
		return nil, apperrors.NewForbidden("requesters may only post public messages")
	}

	msg := &domain.TicketMessage{
		TicketID:   ticket.ID,
		AuthorID:   principal.ID(),
		Visibility: visibility,
		Body:       body,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, apperrors.MapError(err)
	}
	for _, att := range input.Attachments {
		msgID := msg.ID
		record := &domain.Attachment{
			TicketID:     ticket.ID,
			MessageID:    &msgID,
			UploadedByID: principal.ID(),
			FileName:     att.FileName,
			StorageKey:   att.StorageKey,
			MimeType:     att.MimeType,
			SizeBytes:    att.SizeBytes,
		}
		if err := s.attachments.Create(ctx, record); err != nil {
			return nil, apperrors.MapError(err)
		}
		msg.Attachments = append(msg.Attachments, *record)
	}

	if principal.Role() == domain.RoleTech && visibility == domain.VisibilityPublic && ticket.FirstResponseAt == nil {
		s.captureFirstResponse(ctx, principal, ticket.ID)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketMessageAdded,
		TicketID: ticket.ID,
		ActorID:  principal.ID(),
		Payload: events.TicketMessageAddedPayload{
			MessageID:   msg.ID,
			Visibility:  msg.Visibility,
			BodyPreview: preview(msg.Body, 120),
		},
	})
	return msg, nil
}

// captureFirstResponse stamps firstResponseAt under the ticket row lock so a
// racing reply cannot double-stamp or re-evaluate the breach.
func (s *TicketService) captureFirstResponse(ctx context.Context, principal *auth.Principal, ticketID string) {
	var engineEvents []sla.Event
	_, err := s.tickets.UpdateLocked(ctx, ticketID, func(t domain.Ticket) (sla.Patch, error) {
		patch, evs, ok := s.engine.RecordFirstResponse(&t, s.now())
		if !ok {
			return sla.Patch{}, nil
		}
		engineEvents = evs
		return patch, nil
	})
	if err != nil {
		s.logger.Warn("first response not recorded", zap.String("ticketId", ticketID), zap.Error(err))
		return
	}
	s.emitEngineEvents(ctx, principal.ID(), ticketID, engineEvents)
}

// UpdateTicket applies a status/priority/resolution change through the
// lifecycle engine under the ticket row lock, then audits the resulting
// events. Audit and notification delivery are best-effort.
func (s *TicketService) UpdateTicket(ctx context.Context, principal *auth.Principal, ticketID string, input TicketChangeInput) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.canAccess(principal, ticket); err != nil {
		return nil, err
	}
	if principal.Role() == domain.RoleRequester {
		return nil, apperrors.NewForbidden("requesters cannot change ticket state")
	}

	change := sla.Change{
		Status:     input.Status,
		Priority:   input.Priority,
		Resolution: input.Resolution,
	}

	var engineEvents []sla.Event
	updated, err := s.tickets.UpdateLocked(ctx, ticketID, func(t domain.Ticket) (sla.Patch, error) {
		patch, evs, err := s.engine.ApplyUpdate(&t, change, s.now(), principal.Role())
		if err != nil {
			return sla.Patch{}, err
		}
		engineEvents = evs
		return patch, nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if updated.ResolutionBreachedAt != nil && ticket.ResolutionBreachedAt == nil {
		s.metrics.SLABreach("resolution")
	}
	s.emitEngineEvents(ctx, principal.ID(), ticketID, engineEvents)
	return updated, nil
}

// AssignTicket sets or clears the ticket's assignee. Assignees must hold the
// TECH role.
func (s *TicketService) AssignTicket(ctx context.Context, principal *auth.Principal, ticketID string, assigneeID *string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if assigneeID != nil {
		assignee, err := s.users.GetByID(ctx, *assigneeID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if assignee.Role != domain.RoleTech {
			return nil, apperrors.NewValidationError("assignee must be a technician", map[string]any{"assigneeId": *assigneeID})
		}
		if !assignee.Active {
			return nil, apperrors.NewValidationError("assignee account disabled", map[string]any{"assigneeId": *assigneeID})
		}
	}

	if err := s.tickets.UpdateAssignee(ctx, ticket.ID, assigneeID); err != nil {
		return nil, apperrors.MapError(err)
	}
	ticket.AssigneeID = assigneeID

	s.recordAudit(ctx, principal.ID(), "TICKET_ASSIGN", ticket.ID, map[string]any{"assigneeId": assigneeID})
	s.publish(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		ActorID:  principal.ID(),
		Payload:  events.TicketAssignedPayload{AssigneeID: assigneeID},
	})
	return ticket, nil
}

// AuditTrail returns the audit entries recorded for a ticket.
func (s *TicketService) AuditTrail(ctx context.Context, principal *auth.Principal, ticketID string, limit int) ([]domain.AuditEntry, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.canAccess(principal, ticket); err != nil {
		return nil, err
	}
	entries, err := s.audits.ListByEntity(ctx, "ticket", ticket.ID, limit)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

func (s *TicketService) canAccess(principal *auth.Principal, ticket *domain.Ticket) error {
	switch principal.Role() {
	case domain.RoleRequester:
		if ticket.RequesterID != principal.ID() {
			return apperrors.NewForbidden("not your ticket")
		}
	case domain.RoleCoordinator:
		if ticket.ClinicUnitID != principal.ClinicUnitID() {
			return apperrors.NewForbidden("ticket belongs to another clinic unit")
		}
	}
	return nil
}

// emitEngineEvents fans lifecycle engine events out to the audit log and the
// dispatcher. Neither sink may fail the update that produced the events.
func (s *TicketService) emitEngineEvents(ctx context.Context, actorID, ticketID string, engineEvents []sla.Event) {
	for _, ev := range engineEvents {
		s.recordAudit(ctx, actorID, string(ev.Action), ticketID, ev.Payload)

		eventType, ok := dispatcherEventType(ev.Action)
		if !ok {
			continue
		}
		s.publish(ctx, events.Event{
			Type:     eventType,
			TicketID: ticketID,
			ActorID:  actorID,
			Payload:  ev.Payload,
		})
	}
}

func dispatcherEventType(action sla.Action) (events.EventType, bool) {
	switch action {
	case sla.ActionStatusChange:
		return events.EventTicketStatusChanged, true
	case sla.ActionPriorityChange:
		return events.EventTicketPriorityChanged, true
	case sla.ActionPause:
		return events.EventSLAPaused, true
	case sla.ActionResume:
		return events.EventSLAResumed, true
	case sla.ActionFirstResponse:
		return events.EventSLAFirstResponse, true
	case sla.ActionResolutionDone:
		return events.EventSLAResolutionDone, true
	case sla.ActionBreachDetected:
		return events.EventSLABreachDetected, true
	}
	return "", false
}

func (s *TicketService) recordAudit(ctx context.Context, actorID, action, ticketID string, payload map[string]any) {
	if s.audits == nil {
		return
	}
	entry := &domain.AuditEntry{
		ActorID:    actorID,
		Action:     action,
		EntityType: "ticket",
		EntityID:   ticketID,
		Payload:    payload,
	}
	if err := s.audits.Create(ctx, entry); err != nil {
		s.logger.Warn("audit entry not recorded",
			zap.String("action", action),
			zap.String("ticketId", ticketID),
			zap.Error(err))
	}
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = s.now()
	_ = s.dispatcher.Publish(ctx, event)
}

func preview(body string, max int) string {
	if len(body) <= max {
		return body
	}
	return body[:max]
}
