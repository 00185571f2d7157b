package dto

import (
	"time"

	"github.com/clinicdesk/helpdesk/internal/domain"
)

// CreateTicketRequest is the ticket creation payload.
type CreateTicketRequest struct {
	CategoryID  string                 `json:"category_id"`
	Room        domain.Room            `json:"room"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Priority    *domain.TicketPriority `json:"priority,omitempty"`
}

// UpdateTicketRequest is the lifecycle update payload.
type UpdateTicketRequest struct {
	Status     *domain.TicketStatus   `json:"status,omitempty"`
	Priority   *domain.TicketPriority `json:"priority,omitempty"`
	Resolution *ResolutionRequest     `json:"resolution,omitempty"`
}

// ResolutionRequest carries the resolution record of an update.
type ResolutionRequest struct {
	Code              domain.ResolutionCode `json:"code"`
	PartsUsed         *string               `json:"parts_used,omitempty"`
	PartReplacedAt    *time.Time            `json:"part_replaced_at,omitempty"`
	AssetTag          *string               `json:"asset_tag,omitempty"`
	Justification     *string               `json:"justification,omitempty"`
	RecommendedAction *string               `json:"recommended_action,omitempty"`
}

// AssignTicketRequest sets or clears the assignee.
type AssignTicketRequest struct {
	AssigneeID *string `json:"assignee_id"`
}

// CreateMessageRequest is the thread message payload.
type CreateMessageRequest struct {
	Body        string                   `json:"body"`
	Visibility  domain.MessageVisibility `json:"visibility,omitempty"`
	Attachments []AttachmentRequest      `json:"attachments,omitempty"`
}

// AttachmentRequest carries uploaded file metadata.
type AttachmentRequest struct {
	StorageKey string `json:"storage_key"`
	FileName   string `json:"file_name"`
	MimeType   string `json:"mime_type"`
	SizeBytes  int64  `json:"size_bytes"`
}

// TicketSummary is the list-level ticket representation.
type TicketSummary struct {
	ID              string                `json:"id"`
	ExternalKey     string                `json:"key"`
	ClinicUnitID    string                `json:"clinic_unit_id"`
	CategoryID      string                `json:"category_id"`
	Room            domain.Room           `json:"room"`
	Title           string                `json:"title"`
	Status          domain.TicketStatus   `json:"status"`
	Priority        domain.TicketPriority `json:"priority"`
	AssigneeID      *string               `json:"assignee_id,omitempty"`
	ResponseDueAt   time.Time             `json:"response_due_at"`
	ResolutionDueAt time.Time             `json:"resolution_due_at"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// TicketSLA groups the SLA accounting fields of a detail response.
type TicketSLA struct {
	FirstResponseAt      *time.Time `json:"first_response_at,omitempty"`
	ResponseDueAt        time.Time  `json:"response_due_at"`
	ResponseBreachedAt   *time.Time `json:"response_breached_at,omitempty"`
	ResolvedAt           *time.Time `json:"resolved_at,omitempty"`
	ResolutionDueAt      time.Time  `json:"resolution_due_at"`
	ResolutionBreachedAt *time.Time `json:"resolution_breached_at,omitempty"`
	PausedAt             *time.Time `json:"paused_at,omitempty"`
	PausedTotalMinutes   int        `json:"paused_total_minutes"`
}

// ResolutionResponse mirrors the recorded resolution.
type ResolutionResponse struct {
	Code              domain.ResolutionCode `json:"code"`
	PartsUsed         *string               `json:"parts_used,omitempty"`
	PartReplacedAt    *time.Time            `json:"part_replaced_at,omitempty"`
	AssetTag          *string               `json:"asset_tag,omitempty"`
	Justification     *string               `json:"justification,omitempty"`
	RecommendedAction *string               `json:"recommended_action,omitempty"`
}

// TicketDetailResponse is the single-ticket representation.
type TicketDetailResponse struct {
	TicketSummary
	Description string                  `json:"description"`
	RequesterID string                  `json:"requester_id"`
	SLA         TicketSLA               `json:"sla"`
	Resolution  *ResolutionResponse     `json:"resolution,omitempty"`
	Messages    []TicketMessageResponse `json:"messages"`
}

// TicketMessageResponse is one thread entry.
type TicketMessageResponse struct {
	ID          string                   `json:"id"`
	AuthorID    string                   `json:"author_id"`
	Visibility  domain.MessageVisibility `json:"visibility"`
	Body        string                   `json:"body"`
	CreatedAt   time.Time                `json:"created_at"`
	Attachments []AttachmentResponse     `json:"attachments,omitempty"`
}

// AttachmentResponse is stored attachment metadata.
type AttachmentResponse struct {
	ID         string `json:"id"`
	FileName   string `json:"file_name"`
	StorageKey string `json:"storage_key"`
	MimeType   string `json:"mime_type"`
	SizeBytes  int64  `json:"size_bytes"`
}

// AuditEntryResponse is one audit log row.
type AuditEntryResponse struct {
	ID        string         `json:"id"`
	ActorID   string         `json:"actor_id,omitempty"`
	Action    string         `json:"action"`
	Payload   map[string]any `json:"payload,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
