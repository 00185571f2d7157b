package domain

import "time"

// Category classifies tickets and supplies SLA defaults. A category may
// override the priority-derived resolution target with a fixed hour budget;
// the response target always comes from priority.
type Category struct {
	ID                      string
	Name                    string
	System                  bool
	Active                  bool
	DefaultPriority         TicketPriority
	ResolutionOverrideHours *int
	CreatedAt               time.Time
	UpdatedAt               time.Time
}
