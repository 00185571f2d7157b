package sla

// Action names the audit-log entries the engine emits.
type Action string

const (
	ActionPriorityChange Action = "PRIORITY_CHANGE"
	ActionPause          Action = "SLA_PAUSE"
	ActionResume         Action = "SLA_RESUME"
	ActionResolutionDone Action = "SLA_RESOLUTION_DONE"
	ActionFirstResponse  Action = "SLA_FIRST_RESPONSE"
	ActionStatusChange   Action = "STATUS_CHANGE"
	ActionBreachDetected Action = "SLA_BREACH_DETECTED"
)

// Event describes a fact the engine established while applying an update.
// The caller hands events to the audit sink; delivery is best-effort and
// never rolls back the update that produced them.
type Event struct {
	Action  Action
	Payload map[string]any
}
