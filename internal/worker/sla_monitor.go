package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/clinicdesk/helpdesk/internal/domain"
	"github.com/clinicdesk/helpdesk/internal/events"
	"github.com/clinicdesk/helpdesk/internal/observability"
	"github.com/clinicdesk/helpdesk/internal/repository"
	"github.com/clinicdesk/helpdesk/internal/sla"
)

const sweepBatchSize = 200

// SLAMonitor periodically stamps breach markers on tickets whose deadlines
// passed without the corresponding milestone, so breaches surface even when
// nobody touches the ticket.
type SLAMonitor struct {
	tickets    repository.TicketRepository
	audits     repository.AuditRepository
	engine     *sla.Engine
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	cronSpec   string
	cron       *cron.Cron
	now        func() time.Time
}

// NewSLAMonitor constructs the monitor.
func NewSLAMonitor(
	tickets repository.TicketRepository,
	audits repository.AuditRepository,
	engine *sla.Engine,
	dispatcher events.Dispatcher,
	metrics *observability.Metrics,
	logger *zap.Logger,
	cronSpec string,
) *SLAMonitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SLAMonitor{
		tickets:    tickets,
		audits:     audits,
		engine:     engine,
		dispatcher: dispatcher,
		metrics:    metrics,
		logger:     logger,
		cronSpec:   cronSpec,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Start schedules the sweep. The returned error reports an invalid cron
// expression.
func (m *SLAMonitor) Start() error {
	m.cron = cron.New()
	if _, err := m.cron.AddFunc(m.cronSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		m.Sweep(ctx)
	}); err != nil {
		return err
	}
	m.cron.Start()
	m.logger.Info("sla monitor started", zap.String("spec", m.cronSpec))
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (m *SLAMonitor) Stop() {
	if m.cron != nil {
		<-m.cron.Stop().Done()
	}
}

// Sweep runs one pass: stamp overdue breach markers and refresh the paused
// tickets gauge.
func (m *SLAMonitor) Sweep(ctx context.Context) {
	now := m.now()
	candidates, err := m.tickets.ListBreachCandidates(ctx, now, sweepBatchSize)
	if err != nil {
		m.logger.Error("breach sweep query failed", zap.Error(err))
		return
	}

	stamped := 0
	for _, candidate := range candidates {
		if m.sweepTicket(ctx, candidate.ID, now) {
			stamped++
		}
	}
	if stamped > 0 {
		m.logger.Info("breach sweep done", zap.Int("candidates", len(candidates)), zap.Int("stamped", stamped))
	}

	if paused, err := m.tickets.CountPaused(ctx); err == nil {
		m.metrics.SetPausedTickets(paused)
	}
}

// sweepTicket re-checks the candidate under the row lock; the ticket may
// have been resolved or paused between the scan and the stamp.
func (m *SLAMonitor) sweepTicket(ctx context.Context, ticketID string, now time.Time) bool {
	var engineEvents []sla.Event
	_, err := m.tickets.UpdateLocked(ctx, ticketID, func(t domain.Ticket) (sla.Patch, error) {
		patch, evs, ok := m.engine.SweepBreaches(&t, now)
		if !ok {
			return sla.Patch{}, nil
		}
		engineEvents = evs
		return patch, nil
	})
	if err != nil {
		m.logger.Warn("breach stamp failed", zap.String("ticketId", ticketID), zap.Error(err))
		return false
	}
	if len(engineEvents) == 0 {
		return false
	}

	for _, ev := range engineEvents {
		kind, _ := ev.Payload["kind"].(string)
		m.metrics.SLABreach(kind)

		if m.audits != nil {
			entry := &domain.AuditEntry{
				Action:     string(ev.Action),
				EntityType: "ticket",
				EntityID:   ticketID,
				Payload:    ev.Payload,
			}
			if err := m.audits.Create(ctx, entry); err != nil {
				m.logger.Warn("breach audit not recorded", zap.String("ticketId", ticketID), zap.Error(err))
			}
		}
		if m.dispatcher != nil {
			_ = m.dispatcher.Publish(ctx, events.Event{
				ID:        uuid.NewString(),
				Type:      events.EventSLABreachDetected,
				TicketID:  ticketID,
				Timestamp: now,
				Payload:   ev.Payload,
			})
		}
	}
	return true
}
