package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/helpdesk/internal/domain"
	"github.com/clinicdesk/helpdesk/pkg/apperrors"
)

func newTestEngine() *Engine {
	return NewEngine(DefaultCalendar(), DefaultPolicy(), domain.RoleTech)
}

func newTicket(createdAt time.Time, priority domain.TicketPriority) domain.Ticket {
	calc := Calculator{Calendar: DefaultCalendar(), Policy: DefaultPolicy()}
	due := calc.InitialDueDates(createdAt, priority, nil)
	return domain.Ticket{
		ID:              "tck-1",
		Status:          domain.TicketStatusOpen,
		Priority:        priority,
		CreatedAt:       createdAt,
		ResponseDueAt:   due.ResponseDueAt,
		ResolutionDueAt: due.ResolutionDueAt,
	}
}

func statusPtr(s domain.TicketStatus) *domain.TicketStatus       { return &s }
func priorityPtr(p domain.TicketPriority) *domain.TicketPriority { return &p }
func str(s string) *string                                       { return &s }

func TestApplyUpdateRejectsInvalidEnums(t *testing.T) {
	engine := newTestEngine()
	ticket := newTicket(monday(9, 0), domain.TicketPriorityMedium)

	_, _, err := engine.ApplyUpdate(&ticket, Change{Status: statusPtr("BROKEN")}, monday(10, 0), domain.RoleTech)
	assert.True(t, apperrors.IsValidation(err))

	_, _, err = engine.ApplyUpdate(&ticket, Change{Priority: priorityPtr("SUPER")}, monday(10, 0), domain.RoleTech)
	assert.True(t, apperrors.IsValidation(err))

	_, _, err = engine.ApplyUpdate(&ticket, Change{
		Resolution: &domain.Resolution{Code: "MAGIC"},
	}, monday(10, 0), domain.RoleTech)
	assert.True(t, apperrors.IsValidation(err))
}

func TestApplyUpdateOnlyResolverMayResolve(t *testing.T) {
	engine := newTestEngine()
	ticket := newTicket(monday(9, 0), domain.TicketPriorityMedium)
	change := Change{
		Status:     statusPtr(domain.TicketStatusResolved),
		Resolution: &domain.Resolution{Code: domain.ResolutionOK},
	}

	for _, role := range []domain.Role{domain.RoleRequester, domain.RoleCoordinator, domain.RoleAdmin} {
		_, _, err := engine.ApplyUpdate(&ticket, change, monday(10, 0), role)
		assert.True(t, apperrors.IsForbidden(err), "role %s must not resolve", role)
	}

	_, _, err := engine.ApplyUpdate(&ticket, change, monday(10, 0), domain.RoleTech)
	assert.NoError(t, err)
}

func TestApplyUpdateResolvingRequiresResolution(t *testing.T) {
	engine := newTestEngine()
	ticket := newTicket(monday(9, 0), domain.TicketPriorityMedium)

	_, _, err := engine.ApplyUpdate(&ticket, Change{
		Status: statusPtr(domain.TicketStatusClosed),
	}, monday(10, 0), domain.RoleTech)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Contains(t, err.Error(), "resolution required")
}

func TestApplyUpdateAwaitingStockCannotClose(t *testing.T) {
	engine := newTestEngine()
	ticket := newTicket(monday(9, 0), domain.TicketPriorityMedium)

	patch, events, err := engine.ApplyUpdate(&ticket, Change{
		Status:     statusPtr(domain.TicketStatusResolved),
		Resolution: &domain.Resolution{Code: domain.ResolutionAwaitingPartNoStock},
	}, monday(10, 0), domain.RoleTech)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Contains(t, err.Error(), "awaiting stock")
	assert.Equal(t, Patch{}, patch)
	assert.Empty(t, events)
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
}

func TestApplyUpdateAwaitingStockBlocksLaterCloseWithoutNewCode(t *testing.T) {
	engine := newTestEngine()
	ticket := newTicket(monday(9, 0), domain.TicketPriorityMedium)

	// Parking as awaiting-parts without closing is allowed.
	patch, _, err := engine.ApplyUpdate(&ticket, Change{
		Status:     statusPtr(domain.TicketStatusWaiting),
		Resolution: &domain.Resolution{Code: domain.ResolutionAwaitingPartNoStock},
	}, monday(10, 0), domain.RoleTech)
	require.NoError(t, err)
	ticket = patch.Apply(ticket)
	require.NotNil(t, ticket.Resolution)

	// Closing later still fails until a final code replaces the stored one.
	_, _, err = engine.ApplyUpdate(&ticket, Change{
		Status: statusPtr(domain.TicketStatusClosed),
	}, monday(14, 0), domain.RoleTech)
	assert.True(t, apperrors.IsValidation(err))

	_, _, err = engine.ApplyUpdate(&ticket, Change{
		Status:     statusPtr(domain.TicketStatusClosed),
		Resolution: &domain.Resolution{Code: domain.ResolutionOK},
	}, monday(14, 0), domain.RoleTech)
	assert.NoError(t, err)
}

func TestApplyUpdatePartReplacementDetails(t *testing.T) {
	engine := newTestEngine()
	ticket := newTicket(monday(9, 0), domain.TicketPriorityMedium)
	replacedAt := monday(9, 30)

	_, _, err := engine.ApplyUpdate(&ticket, Change{
		Status:     statusPtr(domain.TicketStatusResolved),
		Resolution: &domain.Resolution{Code: domain.ResolutionWithPartReplacement},
	}, monday(10, 0), domain.RoleTech)
	assert.True(t, apperrors.IsValidation(err))

	_, _, err = engine.ApplyUpdate(&ticket, Change{
		Status: statusPtr(domain.TicketStatusResolved),
		Resolution: &domain.Resolution{
			Code:           domain.ResolutionWithPartReplacement,
			PartsUsed:      str("power supply"),
			PartReplacedAt: &replacedAt,
		},
	}, monday(10, 0), domain.RoleTech)
	assert.NoError(t, err)
}

func TestApplyUpdateCondemnedDetails(t *testing.T) {
	engine := newTestEngine()
	ticket := newTicket(monday(9, 0), domain.TicketPriorityMedium)

	_, _, err := engine.ApplyUpdate(&ticket, Change{
		Status: statusPtr(domain.TicketStatusClosed),
		Resolution: &domain.Resolution{
			Code:          domain.ResolutionCondemnedNoRepair,
			Justification: str("mainboard fried"),
		},
	}, monday(10, 0), domain.RoleTech)
	assert.True(t, apperrors.IsValidation(err))

	_, _, err = engine.ApplyUpdate(&ticket, Change{
		Status: statusPtr(domain.TicketStatusClosed),
		Resolution: &domain.Resolution{
			Code:              domain.ResolutionCondemnedNoRepair,
			Justification:     str("mainboard fried"),
			RecommendedAction: str("replace workstation"),
		},
	}, monday(10, 0), domain.RoleTech)
	assert.NoError(t, err)
}

func TestApplyUpdatePauseEntersWaiting(t *testing.T) {
	engine := newTestEngine()
	ticket := newTicket(monday(9, 0), domain.TicketPriorityMedium)
	now := monday(10, 0)

	patch, events, err := engine.ApplyUpdate(&ticket, Change{
		Status: statusPtr(domain.TicketStatusWaiting),
	}, now, domain.RoleTech)
	require.NoError(t, err)
	require.NotNil(t, patch.SLAPausedAt)
	assert.Equal(t, now, *patch.SLAPausedAt)

	actions := eventActions(events)
	assert.Contains(t, actions, ActionPause)
	assert.Contains(t, actions, ActionStatusChange)
}

func TestApplyUpdateResumeCreditsPause(t *testing.T) {
	engine := newTestEngine()
	ticket := newTicket(monday(9, 0), domain.TicketPriorityMedium)

	// Pause Monday 10:00, resume Tuesday 10:00: 420 business minutes remain
	// on Monday plus 120 on Tuesday morning, a full 540 minute work day.
	pausePatch, _, err := engine.ApplyUpdate(&ticket, Change{
		Status: statusPtr(domain.TicketStatusWaiting),
	}, monday(10, 0), domain.RoleTech)
	require.NoError(t, err)
	ticket = pausePatch.Apply(ticket)
	require.NotNil(t, ticket.SLAPausedAt)

	resumeAt := monday(10, 0).AddDate(0, 0, 1)
	resumePatch, events, err := engine.ApplyUpdate(&ticket, Change{
		Status: statusPtr(domain.TicketStatusInProgress),
	}, resumeAt, domain.RoleTech)
	require.NoError(t, err)

	require.NotNil(t, resumePatch.SLAPausedTotalMin)
	assert.Equal(t, 540, *resumePatch.SLAPausedTotalMin)
	assert.True(t, resumePatch.ClearSLAPause)
	require.NotNil(t, resumePatch.ResolutionDueAt)
	assert.Equal(t, ticket.ResolutionDueAt.Add(540*time.Minute), *resumePatch.ResolutionDueAt)

	actions := eventActions(events)
	assert.Contains(t, actions, ActionResume)

	updated := resumePatch.Apply(ticket)
	assert.Nil(t, updated.SLAPausedAt)
	assert.Equal(t, 540, updated.SLAPausedTotalMin)
}

func TestApplyUpdatePauseAccumulatesAcrossCycles(t *testing.T) {
	engine := newTestEngine()
	ticket := newTicket(monday(9, 0), domain.TicketPriorityMedium)

	pause := func(at time.Time) {
		patch, _, err := engine.ApplyUpdate(&ticket, Change{Status: statusPtr(domain.TicketStatusWaiting)}, at, domain.RoleTech)
		require.NoError(t, err)
		ticket = patch.Apply(ticket)
	}
	resume := func(at time.Time) {
		patch, _, err := engine.ApplyUpdate(&ticket, Change{Status: statusPtr(domain.TicketStatusInProgress)}, at, domain.RoleTech)
		require.NoError(t, err)
		ticket = patch.Apply(ticket)
	}

	pause(monday(10, 0))
	resume(monday(10, 30))
	assert.Equal(t, 30, ticket.SLAPausedTotalMin)

	pause(monday(11, 0))
	resume(monday(12, 15))
	assert.Equal(t, 105, ticket.SLAPausedTotalMin)
}

func TestApplyUpdateResolveOnTime(t *testing.T) {
	engine := newTestEngine()
	ticket := newTicket(monday(9, 0), domain.TicketPriorityMedium)
	now := monday(11, 0)

	patch, events, err := engine.ApplyUpdate(&ticket, Change{
		Status:     statusPtr(domain.TicketStatusResolved),
		Resolution: &domain.Resolution{Code: domain.ResolutionOK},
	}, now, domain.RoleTech)
	require.NoError(t, err)

	require.NotNil(t, patch.ResolvedAt)
	assert.Equal(t, now, *patch.ResolvedAt)
	assert.Nil(t, patch.ResolutionBreachedAt)
	assert.Contains(t, eventActions(events), ActionResolutionDone)
}

func TestApplyUpdateResolveLateStampsBreach(t *testing.T) {
	engine := newTestEngine()
	ticket := newTicket(monday(9, 0), domain.TicketPriorityUrgent) // due 11:00
	now := monday(14, 0)

	patch, _, err := engine.ApplyUpdate(&ticket, Change{
		Status:     statusPtr(domain.TicketStatusResolved),
		Resolution: &domain.Resolution{Code: domain.ResolutionOK},
	}, now, domain.RoleTech)
	require.NoError(t, err)

	require.NotNil(t, patch.ResolutionBreachedAt)
	assert.Equal(t, now, *patch.ResolutionBreachedAt)
}

func TestApplyUpdateBreachUsesShiftedDeadline(t *testing.T) {
	engine := newTestEngine()
	// URGENT resolution due Monday 11:00. The ticket pauses at 10:00 and
	// resumes at 14:00 while resolving: 240 paused minutes slide the due to
	// 15:00, so resolving at 14:00 is on time even though the original due
	// has long passed.
	ticket := newTicket(monday(9, 0), domain.TicketPriorityUrgent)

	pausePatch, _, err := engine.ApplyUpdate(&ticket, Change{
		Status: statusPtr(domain.TicketStatusWaiting),
	}, monday(10, 0), domain.RoleTech)
	require.NoError(t, err)
	ticket = pausePatch.Apply(ticket)

	patch, _, err := engine.ApplyUpdate(&ticket, Change{
		Status:     statusPtr(domain.TicketStatusResolved),
		Resolution: &domain.Resolution{Code: domain.ResolutionOK},
	}, monday(14, 0), domain.RoleTech)
	require.NoError(t, err)

	require.NotNil(t, patch.ResolutionDueAt)
	assert.Equal(t, monday(15, 0), *patch.ResolutionDueAt)
	assert.Nil(t, patch.ResolutionBreachedAt)
	require.NotNil(t, patch.ResolvedAt)
}

func TestApplyUpdateResolveTwiceKeepsFirstStamp(t *testing.T) {
	engine := newTestEngine()
	ticket := newTicket(monday(9, 0), domain.TicketPriorityMedium)

	patch, _, err := engine.ApplyUpdate(&ticket, Change{
		Status:     statusPtr(domain.TicketStatusResolved),
		Resolution: &domain.Resolution{Code: domain.ResolutionOK},
	}, monday(11, 0), domain.RoleTech)
	require.NoError(t, err)
	ticket = patch.Apply(ticket)
	firstResolvedAt := *ticket.ResolvedAt

	// Closing later must not restamp resolvedAt.
	patch, _, err = engine.ApplyUpdate(&ticket, Change{
		Status: statusPtr(domain.TicketStatusClosed),
	}, monday(16, 0), domain.RoleTech)
	require.NoError(t, err)
	assert.Nil(t, patch.ResolvedAt)

	ticket = patch.Apply(ticket)
	assert.Equal(t, firstResolvedAt, *ticket.ResolvedAt)
}

func TestApplyUpdatePriorityChangeEmitsEventAndRecomputes(t *testing.T) {
	engine := newTestEngine()
	ticket := newTicket(monday(9, 0), domain.TicketPriorityLow)

	patch, events, err := engine.ApplyUpdate(&ticket, Change{
		Priority: priorityPtr(domain.TicketPriorityUrgent),
	}, monday(9, 30), domain.RoleTech)
	require.NoError(t, err)

	assert.Contains(t, eventActions(events), ActionPriorityChange)
	require.NotNil(t, patch.ResponseDueAt)
	assert.Equal(t, monday(9, 15), *patch.ResponseDueAt)
	require.NotNil(t, patch.Priority)
	assert.Equal(t, domain.TicketPriorityUrgent, *patch.Priority)
}

func TestApplyUpdateSamePriorityNoRecompute(t *testing.T) {
	engine := newTestEngine()
	ticket := newTicket(monday(9, 0), domain.TicketPriorityLow)

	patch, events, err := engine.ApplyUpdate(&ticket, Change{
		Priority: priorityPtr(domain.TicketPriorityLow),
		Status:   statusPtr(domain.TicketStatusInProgress),
	}, monday(9, 30), domain.RoleTech)
	require.NoError(t, err)
	assert.Nil(t, patch.ResponseDueAt)
	assert.NotContains(t, eventActions(events), ActionPriorityChange)
}

func TestApplyUpdateAlwaysEmitsStatusChange(t *testing.T) {
	engine := newTestEngine()
	ticket := newTicket(monday(9, 0), domain.TicketPriorityMedium)

	patch, events, err := engine.ApplyUpdate(&ticket, Change{}, monday(9, 30), domain.RoleRequester)
	require.NoError(t, err)
	require.NotNil(t, patch.Status)
	assert.Equal(t, domain.TicketStatusOpen, *patch.Status)
	assert.Equal(t, []Action{ActionStatusChange}, eventActions(events))
}

func TestApplyUpdatePermitsReopeningClosedTickets(t *testing.T) {
	engine := newTestEngine()
	ticket := newTicket(monday(9, 0), domain.TicketPriorityMedium)
	ticket.Status = domain.TicketStatusClosed

	patch, _, err := engine.ApplyUpdate(&ticket, Change{
		Status: statusPtr(domain.TicketStatusOpen),
	}, monday(10, 0), domain.RoleRequester)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, *patch.Status)
}

func TestRecordFirstResponse(t *testing.T) {
	engine := newTestEngine()
	ticket := newTicket(monday(9, 0), domain.TicketPriorityMedium) // response due 10:00
	now := monday(9, 40)

	patch, events, ok := engine.RecordFirstResponse(&ticket, now)
	require.True(t, ok)
	require.NotNil(t, patch.FirstResponseAt)
	assert.Equal(t, now, *patch.FirstResponseAt)
	assert.Nil(t, patch.ResponseBreachedAt)
	assert.Equal(t, []Action{ActionFirstResponse}, eventActions(events))
}

func TestRecordFirstResponseLateStampsBreach(t *testing.T) {
	engine := newTestEngine()
	ticket := newTicket(monday(9, 0), domain.TicketPriorityMedium)
	now := monday(12, 0)

	patch, _, ok := engine.RecordFirstResponse(&ticket, now)
	require.True(t, ok)
	require.NotNil(t, patch.ResponseBreachedAt)
	assert.Equal(t, now, *patch.ResponseBreachedAt)
}

func TestRecordFirstResponseIdempotent(t *testing.T) {
	engine := newTestEngine()
	ticket := newTicket(monday(9, 0), domain.TicketPriorityMedium)

	patch, _, ok := engine.RecordFirstResponse(&ticket, monday(9, 40))
	require.True(t, ok)
	ticket = patch.Apply(ticket)

	// A second message long after the deadline neither restamps the
	// response nor evaluates a breach.
	patch, events, ok := engine.RecordFirstResponse(&ticket, monday(15, 0))
	assert.False(t, ok)
	assert.Equal(t, Patch{}, patch)
	assert.Empty(t, events)
	assert.Nil(t, ticket.ResponseBreachedAt)
	assert.Equal(t, monday(9, 40), *ticket.FirstResponseAt)
}

func TestBreachMarkersAreSticky(t *testing.T) {
	engine := newTestEngine()
	ticket := newTicket(monday(9, 0), domain.TicketPriorityUrgent)

	patch, _, ok := engine.RecordFirstResponse(&ticket, monday(12, 0))
	require.True(t, ok)
	ticket = patch.Apply(ticket)
	breachedAt := *ticket.ResponseBreachedAt

	// Later updates never produce a new response breach stamp.
	updatePatch, _, err := engine.ApplyUpdate(&ticket, Change{
		Priority: priorityPtr(domain.TicketPriorityLow),
	}, monday(13, 0), domain.RoleTech)
	require.NoError(t, err)
	assert.Nil(t, updatePatch.ResponseBreachedAt)

	ticket = updatePatch.Apply(ticket)
	assert.Equal(t, breachedAt, *ticket.ResponseBreachedAt)
}

func TestSweepBreachesStampsOverdueClocks(t *testing.T) {
	engine := newTestEngine()
	ticket := newTicket(monday(9, 0), domain.TicketPriorityUrgent) // response 9:15, resolution 11:00
	now := monday(14, 0)

	patch, events, ok := engine.SweepBreaches(&ticket, now)
	require.True(t, ok)
	require.NotNil(t, patch.ResponseBreachedAt)
	require.NotNil(t, patch.ResolutionBreachedAt)
	assert.Equal(t, now, *patch.ResponseBreachedAt)
	assert.Equal(t, now, *patch.ResolutionBreachedAt)
	require.Len(t, events, 2)
	for _, ev := range events {
		assert.Equal(t, ActionBreachDetected, ev.Action)
	}
}

func TestSweepBreachesNothingDue(t *testing.T) {
	engine := newTestEngine()
	ticket := newTicket(monday(9, 0), domain.TicketPriorityMedium)

	patch, events, ok := engine.SweepBreaches(&ticket, monday(9, 30))
	assert.False(t, ok)
	assert.Equal(t, Patch{}, patch)
	assert.Empty(t, events)
}

func TestSweepBreachesSkipsPausedResolution(t *testing.T) {
	engine := newTestEngine()
	ticket := newTicket(monday(9, 0), domain.TicketPriorityUrgent)
	pausedAt := monday(9, 30)
	ticket.Status = domain.TicketStatusWaiting
	ticket.SLAPausedAt = &pausedAt

	patch, events, ok := engine.SweepBreaches(&ticket, monday(14, 0))
	require.True(t, ok)
	assert.Nil(t, patch.ResolutionBreachedAt)
	require.NotNil(t, patch.ResponseBreachedAt)
	require.Len(t, events, 1)
	assert.Equal(t, "response", events[0].Payload["kind"])
}

func TestSweepBreachesRespectsExistingStamps(t *testing.T) {
	engine := newTestEngine()
	ticket := newTicket(monday(9, 0), domain.TicketPriorityUrgent)
	responded := monday(9, 10)
	stamped := monday(12, 0)
	ticket.FirstResponseAt = &responded
	ticket.ResolutionBreachedAt = &stamped

	patch, events, ok := engine.SweepBreaches(&ticket, monday(15, 0))
	assert.False(t, ok)
	assert.Equal(t, Patch{}, patch)
	assert.Empty(t, events)
}

func eventActions(events []Event) []Action {
	actions := make([]Action, 0, len(events))
	for _, event := range events {
		actions = append(actions, event.Action)
	}
	return actions
}
