package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusWaiting    TicketStatus = "WAITING"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// TicketStatuses lists every status in declaration order.
var TicketStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusInProgress,
	TicketStatusWaiting,
	TicketStatusResolved,
	TicketStatusClosed,
}

// Valid reports whether the status is a known enum value.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusWaiting,
		TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// TicketPriorities lists every priority in ascending urgency.
var TicketPriorities = []TicketPriority{
	TicketPriorityLow,
	TicketPriorityMedium,
	TicketPriorityHigh,
	TicketPriorityUrgent,
}

// Valid reports whether the priority is a known enum value.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// ResolutionCode classifies the outcome recorded on a ticket.
type ResolutionCode string

const (
	ResolutionOK                  ResolutionCode = "RESOLVED_OK"
	ResolutionWithPartReplacement ResolutionCode = "RESOLVED_WITH_PART_REPLACEMENT"
	ResolutionAwaitingPartNoStock ResolutionCode = "AWAITING_PART_NO_STOCK"
	ResolutionCondemnedNoRepair   ResolutionCode = "CONDEMNED_NO_REPAIR"
)

// Valid reports whether the resolution code is a known enum value.
func (c ResolutionCode) Valid() bool {
	switch c {
	case ResolutionOK, ResolutionWithPartReplacement,
		ResolutionAwaitingPartNoStock, ResolutionCondemnedNoRepair:
		return true
	}
	return false
}

// Room enumerates the fixed clinic rooms a ticket can originate from.
type Room string

const (
	RoomReception Room = "RECEPTION"
	RoomNursing   Room = "NURSING"
	RoomDoctor    Room = "DOCTOR"
	RoomMeeting   Room = "MEETING"
	RoomVaccine   Room = "VACCINE"
	RoomTriage    Room = "TRIAGE"
)

// Valid reports whether the room is a known enum value.
func (r Room) Valid() bool {
	switch r {
	case RoomReception, RoomNursing, RoomDoctor, RoomMeeting, RoomVaccine, RoomTriage:
		return true
	}
	return false
}

// Resolution carries the outcome classification and its supporting fields.
// A ticket may record a resolution (such as awaiting parts) without being
// resolved or closed.
type Resolution struct {
	Code              ResolutionCode
	PartsUsed         *string
	PartReplacedAt    *time.Time
	AssetTag          *string
	Justification     *string
	RecommendedAction *string
}

// Ticket is the aggregate for clinic support requests. The deadline, pause
// and breach fields are owned by the SLA lifecycle engine and are written
// only through the patches it produces.
type Ticket struct {
	ID           string
	ExternalKey  string
	ClinicUnitID string
	RequesterID  string
	AssigneeID   *string
	CategoryID   string
	Room         Room
	Title        string
	Description  string
	Status       TicketStatus
	Priority     TicketPriority

	CreatedAt time.Time
	UpdatedAt time.Time

	FirstResponseAt      *time.Time
	ResponseDueAt        time.Time
	ResponseBreachedAt   *time.Time
	ResolvedAt           *time.Time
	ResolutionDueAt      time.Time
	ResolutionBreachedAt *time.Time
	SLAPausedAt          *time.Time
	SLAPausedTotalMin    int

	Resolution *Resolution
}
