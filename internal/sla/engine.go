package sla

import (
	"time"

	"github.com/clinicdesk/helpdesk/internal/domain"
	"github.com/clinicdesk/helpdesk/pkg/apperrors"
)

// Engine owns ticket status transitions, first-response capture, SLA
// pause/resume accounting and breach stamping. It is pure computation: every
// operation takes a ticket snapshot plus the current instant and returns a
// patch and the events to audit, or a typed error with the snapshot
// untouched. Persistence and concurrency control are the caller's job; the
// store must serialize updates per ticket because pause accounting is
// order-sensitive.
type Engine struct {
	calc     Calculator
	resolver map[domain.Role]struct{}
}

// NewEngine builds an engine. resolverRoles is the set of roles allowed to
// move tickets into RESOLVED or CLOSED.
func NewEngine(cal Calendar, policy Policy, resolverRoles ...domain.Role) *Engine {
	resolver := make(map[domain.Role]struct{}, len(resolverRoles))
	for _, role := range resolverRoles {
		resolver[role] = struct{}{}
	}
	return &Engine{
		calc:     Calculator{Calendar: cal, Policy: policy},
		resolver: resolver,
	}
}

// Calculator exposes the deadline calculator for ticket creation.
func (e *Engine) Calculator() Calculator {
	return e.calc
}

// Change describes a requested ticket mutation. Nil fields keep the current
// value.
type Change struct {
	Status     *domain.TicketStatus
	Priority   *domain.TicketPriority
	Resolution *domain.Resolution
}

// guard validates one aspect of a requested transition before any field is
// touched, keeping ApplyUpdate all-or-nothing.
type guard func(e *Engine, t *domain.Ticket, ch Change, actor domain.Role) error

type transition struct {
	From domain.TicketStatus
	To   domain.TicketStatus
}

// transitionGuards makes the permitted graph explicit. Every pairing is
// reachable, including reopening a closed ticket; entering RESOLVED or
// CLOSED additionally demands resolving authority and a coherent resolution
// record.
var transitionGuards = buildTransitionGuards()

func buildTransitionGuards() map[transition][]guard {
	table := make(map[transition][]guard, len(domain.TicketStatuses)*len(domain.TicketStatuses))
	for _, from := range domain.TicketStatuses {
		for _, to := range domain.TicketStatuses {
			var guards []guard
			if isResolving(to) {
				guards = []guard{requireResolverRole, requireResolutionCode, requireResolutionDetails}
			}
			table[transition{From: from, To: to}] = guards
		}
	}
	return table
}

func isResolving(s domain.TicketStatus) bool {
	return s == domain.TicketStatusResolved || s == domain.TicketStatusClosed
}

// isResolutionPaused reports whether a status stops the resolution clock.
// WAITING is the sole pause-inducing status.
func isResolutionPaused(s domain.TicketStatus) bool {
	return s == domain.TicketStatusWaiting
}

func requireResolverRole(e *Engine, _ *domain.Ticket, _ Change, actor domain.Role) error {
	if _, ok := e.resolver[actor]; !ok {
		return apperrors.NewForbidden("only technicians may resolve or close tickets")
	}
	return nil
}

func requireResolutionCode(_ *Engine, t *domain.Ticket, ch Change, _ domain.Role) error {
	res := effectiveResolution(t, ch)
	if res == nil || res.Code == "" {
		return apperrors.NewValidationError("resolution required", nil)
	}
	if res.Code == domain.ResolutionAwaitingPartNoStock {
		return apperrors.NewValidationError("cannot close while awaiting stock", nil)
	}
	return nil
}

func requireResolutionDetails(_ *Engine, t *domain.Ticket, ch Change, _ domain.Role) error {
	res := effectiveResolution(t, ch)
	if res == nil {
		return nil
	}
	switch res.Code {
	case domain.ResolutionWithPartReplacement:
		if emptyStr(res.PartsUsed) || res.PartReplacedAt == nil {
			return apperrors.NewValidationError("parts used and replacement date required", nil)
		}
	case domain.ResolutionCondemnedNoRepair:
		if emptyStr(res.Justification) || emptyStr(res.RecommendedAction) {
			return apperrors.NewValidationError("justification and recommended action required", nil)
		}
	}
	return nil
}

// effectiveResolution prefers the resolution submitted with the change and
// falls back to the one already recorded on the ticket, so a ticket parked
// as awaiting-parts still blocks closing until a final code is supplied.
func effectiveResolution(t *domain.Ticket, ch Change) *domain.Resolution {
	if ch.Resolution != nil {
		return ch.Resolution
	}
	return t.Resolution
}

func emptyStr(s *string) bool {
	return s == nil || *s == ""
}

// ApplyUpdate validates and applies a status/priority/resolution change to a
// ticket snapshot, producing the partial update to persist and the events to
// audit. Guard failures leave the snapshot completely unmodified.
func (e *Engine) ApplyUpdate(t *domain.Ticket, ch Change, now time.Time, actor domain.Role) (Patch, []Event, error) {
	nextStatus := t.Status
	if ch.Status != nil {
		if !ch.Status.Valid() {
			return Patch{}, nil, apperrors.NewValidationError("invalid status", map[string]any{"status": *ch.Status})
		}
		nextStatus = *ch.Status
	}
	nextPriority := t.Priority
	if ch.Priority != nil {
		if !ch.Priority.Valid() {
			return Patch{}, nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": *ch.Priority})
		}
		nextPriority = *ch.Priority
	}
	if ch.Resolution != nil && !ch.Resolution.Code.Valid() {
		return Patch{}, nil, apperrors.NewValidationError("invalid resolution code", map[string]any{"code": ch.Resolution.Code})
	}

	for _, g := range transitionGuards[transition{From: t.Status, To: nextStatus}] {
		if err := g(e, t, ch, actor); err != nil {
			return Patch{}, nil, err
		}
	}

	var patch Patch
	var events []Event

	// A priority change resets whichever deadline clocks are still running.
	if nextPriority != t.Priority {
		patch.merge(e.calc.RecomputeOnPriorityChange(*t, nextPriority))
		events = append(events, Event{
			Action:  ActionPriorityChange,
			Payload: map[string]any{"from": t.Priority, "to": nextPriority},
		})
	}

	// WAITING stops the resolution clock; leaving it credits the paused
	// business minutes back by sliding the deadline forward.
	wasPaused := isResolutionPaused(t.Status)
	willPause := isResolutionPaused(nextStatus)
	if !wasPaused && willPause {
		pausedAt := now
		patch.SLAPausedAt = &pausedAt
		events = append(events, Event{
			Action:  ActionPause,
			Payload: map[string]any{"status": nextStatus},
		})
	}
	if wasPaused && !willPause && t.SLAPausedAt != nil {
		pausedMin := e.calc.Calendar.MinutesBetween(*t.SLAPausedAt, now)
		total := t.SLAPausedTotalMin + pausedMin
		due := e.resolutionDue(t, patch).Add(time.Duration(pausedMin) * time.Minute)
		patch.ClearSLAPause = true
		patch.SLAPausedTotalMin = &total
		patch.ResolutionDueAt = &due
		events = append(events, Event{
			Action:  ActionResume,
			Payload: map[string]any{"pausedMin": pausedMin},
		})
	}

	// Resolving stamps resolvedAt once; a late resolution also stamps the
	// immutable breach marker, judged against the post-shift deadline.
	if isResolving(nextStatus) && t.ResolvedAt == nil {
		resolvedAt := now
		patch.ResolvedAt = &resolvedAt
		if now.After(e.resolutionDue(t, patch)) {
			breachedAt := now
			patch.ResolutionBreachedAt = &breachedAt
		}
		events = append(events, Event{
			Action:  ActionResolutionDone,
			Payload: map[string]any{"at": now},
		})
	}

	if ch.Resolution != nil {
		res := *ch.Resolution
		patch.Resolution = &res
	}

	status := nextStatus
	priority := nextPriority
	patch.Status = &status
	patch.Priority = &priority
	events = append(events, Event{
		Action:  ActionStatusChange,
		Payload: map[string]any{"from": t.Status, "to": nextStatus},
	})

	return patch, events, nil
}

// resolutionDue reads the resolution deadline as it stands after the steps
// already merged into patch.
func (e *Engine) resolutionDue(t *domain.Ticket, patch Patch) time.Time {
	if patch.ResolutionDueAt != nil {
		return *patch.ResolutionDueAt
	}
	return t.ResolutionDueAt
}

// SweepBreaches stamps breach markers on a ticket whose deadlines have
// passed without the corresponding milestone. Markers are sticky: an already
// stamped clock is never touched. The resolution clock is skipped while the
// ticket is paused or already resolved.
func (e *Engine) SweepBreaches(t *domain.Ticket, now time.Time) (Patch, []Event, bool) {
	var patch Patch
	var events []Event

	if t.FirstResponseAt == nil && t.ResponseBreachedAt == nil && now.After(t.ResponseDueAt) {
		breachedAt := now
		patch.ResponseBreachedAt = &breachedAt
		events = append(events, Event{
			Action:  ActionBreachDetected,
			Payload: map[string]any{"kind": "response", "dueAt": t.ResponseDueAt},
		})
	}
	if t.ResolvedAt == nil && t.ResolutionBreachedAt == nil && t.SLAPausedAt == nil &&
		!isResolving(t.Status) && now.After(t.ResolutionDueAt) {
		breachedAt := now
		patch.ResolutionBreachedAt = &breachedAt
		events = append(events, Event{
			Action:  ActionBreachDetected,
			Payload: map[string]any{"kind": "resolution", "dueAt": t.ResolutionDueAt},
		})
	}

	return patch, events, len(events) > 0
}

// RecordFirstResponse stamps the moment a qualifying actor first replied on
// the ticket. Idempotent: once firstResponseAt is set, later calls return
// ok=false and never re-evaluate the breach.
func (e *Engine) RecordFirstResponse(t *domain.Ticket, now time.Time) (Patch, []Event, bool) {
	if t.FirstResponseAt != nil {
		return Patch{}, nil, false
	}
	at := now
	patch := Patch{FirstResponseAt: &at}
	if now.After(t.ResponseDueAt) {
		breachedAt := now
		patch.ResponseBreachedAt = &breachedAt
	}
	events := []Event{{
		Action:  ActionFirstResponse,
		Payload: map[string]any{"at": now},
	}}
	return patch, events, true
}
