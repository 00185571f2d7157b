package domain

import "time"

// AuditEntry is one row of the append-only audit log. Entries are written
// best-effort: a failed audit write never rolls back the operation that
// produced it.
type AuditEntry struct {
	ID         string
	ActorID    string
	Action     string
	EntityType string
	EntityID   string
	Payload    map[string]any
	CreatedAt  time.Time
}
