package sla

import (
	"time"

	"github.com/clinicdesk/helpdesk/internal/domain"
)

// Calculator combines a calendar and a policy to derive ticket due dates.
type Calculator struct {
	Calendar Calendar
	Policy   Policy
}

// DueDates is the pair of deadlines set when a ticket is created.
type DueDates struct {
	ResponseDueAt   time.Time
	ResolutionDueAt time.Time
}

// InitialDueDates computes the deadlines for a new ticket.
func (c Calculator) InitialDueDates(createdAt time.Time, priority domain.TicketPriority, overrideHours *int) DueDates {
	return DueDates{
		ResponseDueAt:   c.Calendar.AddBusinessMinutes(createdAt, c.Policy.ResponseTarget(priority)),
		ResolutionDueAt: c.Calendar.AddBusinessMinutes(createdAt, c.Policy.ResolutionTarget(priority, overrideHours)),
	}
}

// RecomputeOnPriorityChange rebuilds the deadlines of the clocks that are
// still running. The response deadline, when first response is pending, is a
// full reset from createdAt. The resolution deadline, when unresolved, is
// rebuilt from the new priority's base target with the accrued pause credit
// added back as a calendar-minute shift.
func (c Calculator) RecomputeOnPriorityChange(t domain.Ticket, newPriority domain.TicketPriority) Patch {
	var patch Patch
	if t.FirstResponseAt == nil {
		due := c.Calendar.AddBusinessMinutes(t.CreatedAt, c.Policy.ResponseTarget(newPriority))
		patch.ResponseDueAt = &due
	}
	if t.ResolvedAt == nil {
		base := c.Calendar.AddBusinessMinutes(t.CreatedAt, c.Policy.ResolutionTarget(newPriority, nil))
		due := base.Add(time.Duration(t.SLAPausedTotalMin) * time.Minute)
		patch.ResolutionDueAt = &due
	}
	return patch
}
