package sla

import (
	"time"

	"github.com/clinicdesk/helpdesk/internal/domain"
)

// Patch is the partial-update record the engine produces. Nil fields are
// left untouched; ClearSLAPause distinguishes "unset the pause marker" from
// "leave it alone". The persistence layer must apply a patch atomically and
// serialize patches for the same ticket.
type Patch struct {
	Status   *domain.TicketStatus
	Priority *domain.TicketPriority

	ResponseDueAt        *time.Time
	ResolutionDueAt      *time.Time
	FirstResponseAt      *time.Time
	ResponseBreachedAt   *time.Time
	ResolvedAt           *time.Time
	ResolutionBreachedAt *time.Time

	SLAPausedAt       *time.Time
	ClearSLAPause     bool
	SLAPausedTotalMin *int

	Resolution *domain.Resolution
}

// merge overlays the set fields of other onto p.
func (p *Patch) merge(other Patch) {
	if other.Status != nil {
		p.Status = other.Status
	}
	if other.Priority != nil {
		p.Priority = other.Priority
	}
	if other.ResponseDueAt != nil {
		p.ResponseDueAt = other.ResponseDueAt
	}
	if other.ResolutionDueAt != nil {
		p.ResolutionDueAt = other.ResolutionDueAt
	}
	if other.FirstResponseAt != nil {
		p.FirstResponseAt = other.FirstResponseAt
	}
	if other.ResponseBreachedAt != nil {
		p.ResponseBreachedAt = other.ResponseBreachedAt
	}
	if other.ResolvedAt != nil {
		p.ResolvedAt = other.ResolvedAt
	}
	if other.ResolutionBreachedAt != nil {
		p.ResolutionBreachedAt = other.ResolutionBreachedAt
	}
	if other.SLAPausedAt != nil {
		p.SLAPausedAt = other.SLAPausedAt
	}
	if other.ClearSLAPause {
		p.ClearSLAPause = true
	}
	if other.SLAPausedTotalMin != nil {
		p.SLAPausedTotalMin = other.SLAPausedTotalMin
	}
	if other.Resolution != nil {
		p.Resolution = other.Resolution
	}
}

// Apply returns a copy of t with the patch applied.
func (p Patch) Apply(t domain.Ticket) domain.Ticket {
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.ResponseDueAt != nil {
		t.ResponseDueAt = *p.ResponseDueAt
	}
	if p.ResolutionDueAt != nil {
		t.ResolutionDueAt = *p.ResolutionDueAt
	}
	if p.FirstResponseAt != nil {
		at := *p.FirstResponseAt
		t.FirstResponseAt = &at
	}
	if p.ResponseBreachedAt != nil {
		at := *p.ResponseBreachedAt
		t.ResponseBreachedAt = &at
	}
	if p.ResolvedAt != nil {
		at := *p.ResolvedAt
		t.ResolvedAt = &at
	}
	if p.ResolutionBreachedAt != nil {
		at := *p.ResolutionBreachedAt
		t.ResolutionBreachedAt = &at
	}
	if p.ClearSLAPause {
		t.SLAPausedAt = nil
	} else if p.SLAPausedAt != nil {
		at := *p.SLAPausedAt
		t.SLAPausedAt = &at
	}
	if p.SLAPausedTotalMin != nil {
		t.SLAPausedTotalMin = *p.SLAPausedTotalMin
	}
	if p.Resolution != nil {
		res := *p.Resolution
		t.Resolution = &res
	}
	return t
}
