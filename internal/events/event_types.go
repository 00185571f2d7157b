package events

import (
	"time"

	"github.com/clinicdesk/helpdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated         EventType = "ticket_created"
	EventTicketStatusChanged   EventType = "ticket_status_changed"
	EventTicketPriorityChanged EventType = "ticket_priority_changed"
	EventTicketAssigned        EventType = "ticket_assigned"
	EventTicketMessageAdded    EventType = "ticket_message_added"
	EventSLAPaused             EventType = "sla_paused"
	EventSLAResumed            EventType = "sla_resumed"
	EventSLAFirstResponse      EventType = "sla_first_response"
	EventSLAResolutionDone     EventType = "sla_resolution_done"
	EventSLABreachDetected     EventType = "sla_breach_detected"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	ActorID   string      `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	ClinicUnitID string                `json:"clinic_unit_id"`
	CategoryID   string                `json:"category_id"`
	Room         domain.Room           `json:"room"`
	Priority     domain.TicketPriority `json:"priority"`
	Title        string                `json:"title"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketPriorityChangedPayload payload.
type TicketPriorityChangedPayload struct {
	OldPriority domain.TicketPriority `json:"old_priority"`
	NewPriority domain.TicketPriority `json:"new_priority"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AssigneeID *string `json:"assignee_id,omitempty"`
}

// TicketMessageAddedPayload payload.
type TicketMessageAddedPayload struct {
	MessageID   string                   `json:"message_id"`
	Visibility  domain.MessageVisibility `json:"visibility"`
	BodyPreview string                   `json:"body_preview"`
}

// SLAPayload carries the SLA accounting facts attached to pause, resume,
// first-response, resolution and breach events.
type SLAPayload struct {
	PausedMinutes *int       `json:"paused_minutes,omitempty"`
	At            *time.Time `json:"at,omitempty"`
	Kind          string     `json:"kind,omitempty"`
}
