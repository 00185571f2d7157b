package sla

import (
	"fmt"

	"github.com/clinicdesk/helpdesk/internal/domain"
)

// Targets holds the time budgets for one priority level, in business minutes.
type Targets struct {
	ResponseMinutes   int
	ResolutionMinutes int
}

// Policy maps each priority to its SLA targets.
type Policy map[domain.TicketPriority]Targets

// NewPolicy validates that every priority level carries positive targets.
func NewPolicy(targets map[domain.TicketPriority]Targets) (Policy, error) {
	for _, priority := range domain.TicketPriorities {
		t, ok := targets[priority]
		if !ok {
			return nil, fmt.Errorf("policy missing priority %s", priority)
		}
		if t.ResponseMinutes <= 0 || t.ResolutionMinutes <= 0 {
			return nil, fmt.Errorf("policy for %s must have positive targets", priority)
		}
	}
	policy := make(Policy, len(targets))
	for priority, t := range targets {
		policy[priority] = t
	}
	return policy, nil
}

// DefaultPolicy returns the stock priority table.
func DefaultPolicy() Policy {
	return Policy{
		domain.TicketPriorityUrgent: {ResponseMinutes: 15, ResolutionMinutes: 120},
		domain.TicketPriorityHigh:   {ResponseMinutes: 30, ResolutionMinutes: 240},
		domain.TicketPriorityMedium: {ResponseMinutes: 60, ResolutionMinutes: 480},
		domain.TicketPriorityLow:    {ResponseMinutes: 120, ResolutionMinutes: 1440},
	}
}

// ResponseTarget returns the response budget for a priority. Unknown
// priorities fall back to MEDIUM.
func (p Policy) ResponseTarget(priority domain.TicketPriority) int {
	if t, ok := p[priority]; ok {
		return t.ResponseMinutes
	}
	return p[domain.TicketPriorityMedium].ResponseMinutes
}

// ResolutionTarget returns the resolution budget for a priority. A category
// override, when present and positive, replaces the priority-derived value.
func (p Policy) ResolutionTarget(priority domain.TicketPriority, overrideHours *int) int {
	if overrideHours != nil && *overrideHours > 0 {
		return *overrideHours * 60
	}
	if t, ok := p[priority]; ok {
		return t.ResolutionMinutes
	}
	return p[domain.TicketPriorityMedium].ResolutionMinutes
}
