package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/helpdesk/internal/auth"
	"github.com/clinicdesk/helpdesk/internal/domain"
	"github.com/clinicdesk/helpdesk/internal/events"
	"github.com/clinicdesk/helpdesk/internal/repository"
	"github.com/clinicdesk/helpdesk/internal/sla"
	"github.com/clinicdesk/helpdesk/pkg/apperrors"
)

type fakeTicketRepo struct {
	tickets    map[string]*domain.Ticket
	nextID     int
	lastFilter repository.TicketFilter
	clock      func() time.Time
}

func newFakeTicketRepo(clock func() time.Time) *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[string]*domain.Ticket), clock: clock}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.nextID++
	ticket.ID = fmt.Sprintf("t-%d", r.nextID)
	ticket.ExternalKey = fmt.Sprintf("HD-%d", 1000+r.nextID)
	ticket.CreatedAt = r.clock()
	ticket.UpdatedAt = ticket.CreatedAt
	clone := *ticket
	r.tickets[ticket.ID] = &clone
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *ticket
	return &clone, nil
}

func (r *fakeTicketRepo) GetByExternalKey(_ context.Context, key string) (*domain.Ticket, error) {
	for _, ticket := range r.tickets {
		if ticket.ExternalKey == key {
			clone := *ticket
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.lastFilter = filter
	var result []domain.Ticket
	for _, ticket := range r.tickets {
		result = append(result, *ticket)
	}
	return result, nil
}

func (r *fakeTicketRepo) UpdateLocked(_ context.Context, id string, apply func(t domain.Ticket) (sla.Patch, error)) (*domain.Ticket, error) {
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	patch, err := apply(*ticket)
	if err != nil {
		return nil, err
	}
	updated := patch.Apply(*ticket)
	r.tickets[id] = &updated
	clone := updated
	return &clone, nil
}

func (r *fakeTicketRepo) UpdateAssignee(_ context.Context, id string, assigneeID *string) error {
	ticket, ok := r.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	ticket.AssigneeID = assigneeID
	return nil
}

func (r *fakeTicketRepo) ListBreachCandidates(_ context.Context, now time.Time, _ int) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for _, t := range r.tickets {
		if t.Status == domain.TicketStatusResolved || t.Status == domain.TicketStatusClosed {
			continue
		}
		responseOverdue := t.ResponseBreachedAt == nil && t.FirstResponseAt == nil && t.ResponseDueAt.Before(now)
		resolutionOverdue := t.ResolutionBreachedAt == nil && t.ResolvedAt == nil && t.SLAPausedAt == nil && t.ResolutionDueAt.Before(now)
		if responseOverdue || resolutionOverdue {
			result = append(result, *t)
		}
	}
	return result, nil
}

func (r *fakeTicketRepo) CountPaused(_ context.Context) (int, error) {
	count := 0
	for _, t := range r.tickets {
		if t.SLAPausedAt != nil && t.Status != domain.TicketStatusResolved && t.Status != domain.TicketStatusClosed {
			count++
		}
	}
	return count, nil
}

type fakeMessageRepo struct {
	messages []domain.TicketMessage
}

func (r *fakeMessageRepo) Create(_ context.Context, message *domain.TicketMessage) error {
	message.ID = fmt.Sprintf("m-%d", len(r.messages)+1)
	message.CreatedAt = time.Now().UTC()
	r.messages = append(r.messages, *message)
	return nil
}

func (r *fakeMessageRepo) ListByTicket(_ context.Context, ticketID string, includeInternal bool) ([]domain.TicketMessage, error) {
	var result []domain.TicketMessage
	for _, msg := range r.messages {
		if msg.TicketID != ticketID {
			continue
		}
		if !includeInternal && msg.Visibility == domain.VisibilityInternal {
			continue
		}
		result = append(result, msg)
	}
	return result, nil
}

type fakeAttachmentRepo struct {
	attachments []domain.Attachment
}

func (r *fakeAttachmentRepo) Create(_ context.Context, attachment *domain.Attachment) error {
	attachment.ID = fmt.Sprintf("a-%d", len(r.attachments)+1)
	r.attachments = append(r.attachments, *attachment)
	return nil
}

func (r *fakeAttachmentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Attachment, error) {
	var result []domain.Attachment
	for _, att := range r.attachments {
		if att.TicketID == ticketID {
			result = append(result, att)
		}
	}
	return result, nil
}

type fakeCategoryRepo struct {
	categories map[string]*domain.Category
}

func (r *fakeCategoryRepo) Create(_ context.Context, category *domain.Category) error {
	category.ID = fmt.Sprintf("c-%d", len(r.categories)+1)
	r.categories[category.ID] = category
	return nil
}

func (r *fakeCategoryRepo) Update(_ context.Context, category *domain.Category) error {
	r.categories[category.ID] = category
	return nil
}

func (r *fakeCategoryRepo) GetByID(_ context.Context, id string) (*domain.Category, error) {
	category, ok := r.categories[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *category
	return &clone, nil
}

func (r *fakeCategoryRepo) List(_ context.Context, _ bool) ([]domain.Category, error) {
	var result []domain.Category
	for _, c := range r.categories {
		result = append(result, *c)
	}
	return result, nil
}

type fakeUserRepo struct {
	users map[string]*domain.User
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	user.ID = fmt.Sprintf("u-%d", len(r.users)+1)
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetByLogin(_ context.Context, login string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Login == login {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) List(_ context.Context, _ *domain.Role, _ *string) ([]domain.User, error) {
	var result []domain.User
	for _, u := range r.users {
		result = append(result, *u)
	}
	return result, nil
}

type fakeAuditRepo struct {
	entries []domain.AuditEntry
}

func (r *fakeAuditRepo) Create(_ context.Context, entry *domain.AuditEntry) error {
	entry.ID = fmt.Sprintf("audit-%d", len(r.entries)+1)
	entry.CreatedAt = time.Now().UTC()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAuditRepo) ListByEntity(_ context.Context, entityType, entityID string, _ int) ([]domain.AuditEntry, error) {
	var result []domain.AuditEntry
	for _, entry := range r.entries {
		if entry.EntityType == entityType && entry.EntityID == entityID {
			result = append(result, entry)
		}
	}
	return result, nil
}

func (r *fakeAuditRepo) actions() []string {
	var result []string
	for _, entry := range r.entries {
		result = append(result, entry.Action)
	}
	return result
}

type recordingDispatcher struct {
	published []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.published = append(d.published, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) types() []events.EventType {
	var result []events.EventType
	for _, ev := range d.published {
		result = append(result, ev.Type)
	}
	return result
}

type serviceFixture struct {
	service    *TicketService
	tickets    *fakeTicketRepo
	messages   *fakeMessageRepo
	categories *fakeCategoryRepo
	users      *fakeUserRepo
	audits     *fakeAuditRepo
	dispatcher *recordingDispatcher
	now        *time.Time
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	// Monday 09:00 inside the default Mon-Fri 08:00-17:00 window.
	now := time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC)

	tickets := newFakeTicketRepo(func() time.Time { return now })
	messages := &fakeMessageRepo{}
	attachments := &fakeAttachmentRepo{}
	categories := &fakeCategoryRepo{categories: make(map[string]*domain.Category)}
	users := &fakeUserRepo{users: make(map[string]*domain.User)}
	audits := &fakeAuditRepo{}
	dispatcher := &recordingDispatcher{}

	engine := sla.NewEngine(sla.DefaultCalendar(), sla.DefaultPolicy(), domain.RoleTech)
	fixture := &serviceFixture{
		tickets:    tickets,
		messages:   messages,
		categories: categories,
		users:      users,
		audits:     audits,
		dispatcher: dispatcher,
		now:        &now,
	}
	fixture.service = NewTicketService(TicketDependencies{
		TicketRepo:     tickets,
		MessageRepo:    messages,
		AttachmentRepo: attachments,
		CategoryRepo:   categories,
		ClinicUnitRepo: nil,
		UserRepo:       users,
		AuditRepo:      audits,
		Engine:         engine,
		Dispatcher:     dispatcher,
		Now:            func() time.Time { return *fixture.now },
	})
	return fixture
}

func (f *serviceFixture) advance(d time.Duration) {
	next := f.now.Add(d)
	*f.now = next
}

func (f *serviceFixture) addUser(id string, role domain.Role, unitID string) *auth.Principal {
	user := &domain.User{ID: id, Name: id, Login: id, Role: role, ClinicUnitID: unitID, Active: true}
	f.users.users[id] = user
	return &auth.Principal{User: user}
}

func (f *serviceFixture) addCategory(id string, priority domain.TicketPriority, overrideHours *int) {
	f.categories.categories[id] = &domain.Category{
		ID:                      id,
		Name:                    id,
		Active:                  true,
		DefaultPriority:         priority,
		ResolutionOverrideHours: overrideHours,
	}
}

func (f *serviceFixture) createTicket(t *testing.T, principal *auth.Principal, input TicketCreateInput) *domain.Ticket {
	t.Helper()
	ticket, err := f.service.CreateTicket(context.Background(), principal, input)
	require.NoError(t, err)
	return ticket
}

func strp(s string) *string { return &s }

func TestCreateTicketDefaultsAndDueDates(t *testing.T) {
	f := newServiceFixture(t)
	requester := f.addUser("req-1", domain.RoleRequester, "unit-1")
	f.addCategory("cat-printer", domain.TicketPriorityMedium, nil)

	ticket := f.createTicket(t, requester, TicketCreateInput{
		CategoryID:  "cat-printer",
		Room:        domain.RoomReception,
		Title:       "printer jam",
		Description: "paper stuck in tray two",
	})

	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Equal(t, domain.TicketPriorityMedium, ticket.Priority)
	assert.Equal(t, "unit-1", ticket.ClinicUnitID)
	// MEDIUM: response 60 business minutes, resolution 480.
	assert.Equal(t, time.Date(2024, 1, 8, 10, 0, 0, 0, time.UTC), ticket.ResponseDueAt)
	assert.Equal(t, time.Date(2024, 1, 8, 17, 0, 0, 0, time.UTC), ticket.ResolutionDueAt)

	require.Len(t, f.messages.messages, 1)
	assert.Equal(t, "paper stuck in tray two", f.messages.messages[0].Body)
	assert.Equal(t, domain.VisibilityPublic, f.messages.messages[0].Visibility)

	assert.Contains(t, f.audits.actions(), "TICKET_CREATE")
	assert.Contains(t, f.dispatcher.types(), events.EventTicketCreated)
}

func TestCreateTicketCategoryOverrideShortensResolution(t *testing.T) {
	f := newServiceFixture(t)
	requester := f.addUser("req-1", domain.RoleRequester, "unit-1")
	override := 2
	f.addCategory("cat-fridge", domain.TicketPriorityUrgent, &override)

	ticket := f.createTicket(t, requester, TicketCreateInput{
		CategoryID: "cat-fridge",
		Room:       domain.RoomVaccine,
		Title:      "fridge alarm",
	})

	assert.Equal(t, domain.TicketPriorityUrgent, ticket.Priority)
	// URGENT response 15 min; resolution overridden to 2h instead of 120 min.
	assert.Equal(t, time.Date(2024, 1, 8, 9, 15, 0, 0, time.UTC), ticket.ResponseDueAt)
	assert.Equal(t, time.Date(2024, 1, 8, 11, 0, 0, 0, time.UTC), ticket.ResolutionDueAt)
}

func TestCreateTicketRejectsInactiveCategory(t *testing.T) {
	f := newServiceFixture(t)
	requester := f.addUser("req-1", domain.RoleRequester, "unit-1")
	f.addCategory("cat-old", domain.TicketPriorityLow, nil)
	f.categories.categories["cat-old"].Active = false

	_, err := f.service.CreateTicket(context.Background(), requester, TicketCreateInput{
		CategoryID: "cat-old",
		Room:       domain.RoomDoctor,
		Title:      "legacy request",
	})
	assert.True(t, apperrors.IsValidation(err))
}

func TestUpdateTicketRequesterForbidden(t *testing.T) {
	f := newServiceFixture(t)
	requester := f.addUser("req-1", domain.RoleRequester, "unit-1")
	f.addCategory("cat", domain.TicketPriorityMedium, nil)
	ticket := f.createTicket(t, requester, TicketCreateInput{CategoryID: "cat", Room: domain.RoomNursing, Title: "pc slow"})

	status := domain.TicketStatusInProgress
	_, err := f.service.UpdateTicket(context.Background(), requester, ticket.ID, TicketChangeInput{Status: &status})
	assert.True(t, apperrors.IsForbidden(err))
}

func TestUpdateTicketPauseResumeShiftsDeadline(t *testing.T) {
	f := newServiceFixture(t)
	requester := f.addUser("req-1", domain.RoleRequester, "unit-1")
	tech := f.addUser("tech-1", domain.RoleTech, "unit-hq")
	f.addCategory("cat", domain.TicketPriorityMedium, nil)
	ticket := f.createTicket(t, requester, TicketCreateInput{CategoryID: "cat", Room: domain.RoomNursing, Title: "pc slow"})
	originalDue := ticket.ResolutionDueAt

	waiting := domain.TicketStatusWaiting
	paused, err := f.service.UpdateTicket(context.Background(), tech, ticket.ID, TicketChangeInput{Status: &waiting})
	require.NoError(t, err)
	require.NotNil(t, paused.SLAPausedAt)

	f.advance(90 * time.Minute)

	inProgress := domain.TicketStatusInProgress
	resumed, err := f.service.UpdateTicket(context.Background(), tech, ticket.ID, TicketChangeInput{Status: &inProgress})
	require.NoError(t, err)
	assert.Nil(t, resumed.SLAPausedAt)
	assert.Equal(t, 90, resumed.SLAPausedTotalMin)
	assert.Equal(t, originalDue.Add(90*time.Minute), resumed.ResolutionDueAt)

	actions := f.audits.actions()
	assert.Contains(t, actions, string(sla.ActionPause))
	assert.Contains(t, actions, string(sla.ActionResume))
	assert.Contains(t, f.dispatcher.types(), events.EventSLAPaused)
	assert.Contains(t, f.dispatcher.types(), events.EventSLAResumed)
}

func TestUpdateTicketResolveRequiresTech(t *testing.T) {
	f := newServiceFixture(t)
	requester := f.addUser("req-1", domain.RoleRequester, "unit-1")
	coordinator := f.addUser("coord-1", domain.RoleCoordinator, "unit-1")
	tech := f.addUser("tech-1", domain.RoleTech, "unit-hq")
	f.addCategory("cat", domain.TicketPriorityMedium, nil)
	ticket := f.createTicket(t, requester, TicketCreateInput{CategoryID: "cat", Room: domain.RoomDoctor, Title: "monitor dead"})

	resolved := domain.TicketStatusResolved
	resolution := &domain.Resolution{Code: domain.ResolutionOK}

	_, err := f.service.UpdateTicket(context.Background(), coordinator, ticket.ID,
		TicketChangeInput{Status: &resolved, Resolution: resolution})
	assert.True(t, apperrors.IsForbidden(err))

	updated, err := f.service.UpdateTicket(context.Background(), tech, ticket.ID,
		TicketChangeInput{Status: &resolved, Resolution: resolution})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, updated.Status)
	require.NotNil(t, updated.ResolvedAt)
	assert.Nil(t, updated.ResolutionBreachedAt)
}

func TestUpdateTicketAwaitingPartsCannotClose(t *testing.T) {
	f := newServiceFixture(t)
	requester := f.addUser("req-1", domain.RoleRequester, "unit-1")
	tech := f.addUser("tech-1", domain.RoleTech, "unit-hq")
	f.addCategory("cat", domain.TicketPriorityMedium, nil)
	ticket := f.createTicket(t, requester, TicketCreateInput{CategoryID: "cat", Room: domain.RoomTriage, Title: "no spare fuser"})

	waiting := domain.TicketStatusWaiting
	awaiting := &domain.Resolution{Code: domain.ResolutionAwaitingPartNoStock}
	_, err := f.service.UpdateTicket(context.Background(), tech, ticket.ID,
		TicketChangeInput{Status: &waiting, Resolution: awaiting})
	require.NoError(t, err)

	// The stored awaiting-parts record blocks closing until a final code
	// arrives with the close itself.
	closed := domain.TicketStatusClosed
	_, err = f.service.UpdateTicket(context.Background(), tech, ticket.ID, TicketChangeInput{Status: &closed})
	assert.True(t, apperrors.IsValidation(err))

	final := &domain.Resolution{
		Code:           domain.ResolutionWithPartReplacement,
		PartsUsed:      strp("fuser unit"),
		PartReplacedAt: timep(time.Date(2024, 1, 9, 10, 0, 0, 0, time.UTC)),
	}
	updated, err := f.service.UpdateTicket(context.Background(), tech, ticket.ID,
		TicketChangeInput{Status: &closed, Resolution: final})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, updated.Status)
}

func TestAddMessageTechPublicReplyStampsFirstResponse(t *testing.T) {
	f := newServiceFixture(t)
	requester := f.addUser("req-1", domain.RoleRequester, "unit-1")
	tech := f.addUser("tech-1", domain.RoleTech, "unit-hq")
	f.addCategory("cat", domain.TicketPriorityMedium, nil)
	ticket := f.createTicket(t, requester, TicketCreateInput{CategoryID: "cat", Room: domain.RoomMeeting, Title: "projector"})

	f.advance(30 * time.Minute)
	_, err := f.service.AddMessage(context.Background(), tech, ticket.ID, MessageInput{Body: "on my way"})
	require.NoError(t, err)

	stored, err := f.tickets.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.FirstResponseAt)
	assert.Equal(t, time.Date(2024, 1, 8, 9, 30, 0, 0, time.UTC), *stored.FirstResponseAt)
	assert.Nil(t, stored.ResponseBreachedAt)
	first := *stored.FirstResponseAt

	// A later reply never re-stamps.
	f.advance(2 * time.Hour)
	_, err = f.service.AddMessage(context.Background(), tech, ticket.ID, MessageInput{Body: "done"})
	require.NoError(t, err)
	stored, err = f.tickets.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, first, *stored.FirstResponseAt)
}

func TestAddMessageLateTechReplyStampsResponseBreach(t *testing.T) {
	f := newServiceFixture(t)
	requester := f.addUser("req-1", domain.RoleRequester, "unit-1")
	tech := f.addUser("tech-1", domain.RoleTech, "unit-hq")
	f.addCategory("cat", domain.TicketPriorityMedium, nil)
	ticket := f.createTicket(t, requester, TicketCreateInput{CategoryID: "cat", Room: domain.RoomMeeting, Title: "projector"})

	f.advance(3 * time.Hour)
	_, err := f.service.AddMessage(context.Background(), tech, ticket.ID, MessageInput{Body: "sorry, got delayed"})
	require.NoError(t, err)

	stored, err := f.tickets.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ResponseBreachedAt)
}

func TestAddMessageRequesterCannotPostInternal(t *testing.T) {
	f := newServiceFixture(t)
	requester := f.addUser("req-1", domain.RoleRequester, "unit-1")
	f.addCategory("cat", domain.TicketPriorityMedium, nil)
	ticket := f.createTicket(t, requester, TicketCreateInput{CategoryID: "cat", Room: domain.RoomMeeting, Title: "projector"})

	_, err := f.service.AddMessage(context.Background(), requester, ticket.ID, MessageInput{
		Body:       "note to self",
		Visibility: domain.VisibilityInternal,
	})
	assert.True(t, apperrors.IsForbidden(err))
}

func TestGetTicketHidesInternalNotesFromRequester(t *testing.T) {
	f := newServiceFixture(t)
	requester := f.addUser("req-1", domain.RoleRequester, "unit-1")
	tech := f.addUser("tech-1", domain.RoleTech, "unit-hq")
	f.addCategory("cat", domain.TicketPriorityMedium, nil)
	ticket := f.createTicket(t, requester, TicketCreateInput{
		CategoryID: "cat", Room: domain.RoomMeeting, Title: "projector", Description: "no signal",
	})

	_, err := f.service.AddMessage(context.Background(), tech, ticket.ID, MessageInput{
		Body:       "requester unplugged it again",
		Visibility: domain.VisibilityInternal,
	})
	require.NoError(t, err)

	_, msgs, err := f.service.GetTicket(context.Background(), requester, ticket.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "no signal", msgs[0].Body)

	_, msgs, err = f.service.GetTicket(context.Background(), tech, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestGetTicketEnforcesScope(t *testing.T) {
	f := newServiceFixture(t)
	requester := f.addUser("req-1", domain.RoleRequester, "unit-1")
	otherRequester := f.addUser("req-2", domain.RoleRequester, "unit-1")
	otherUnitCoordinator := f.addUser("coord-2", domain.RoleCoordinator, "unit-2")
	sameUnitCoordinator := f.addUser("coord-1", domain.RoleCoordinator, "unit-1")
	f.addCategory("cat", domain.TicketPriorityMedium, nil)
	ticket := f.createTicket(t, requester, TicketCreateInput{CategoryID: "cat", Room: domain.RoomReception, Title: "phone"})

	_, _, err := f.service.GetTicket(context.Background(), otherRequester, ticket.ID)
	assert.True(t, apperrors.IsForbidden(err))

	_, _, err = f.service.GetTicket(context.Background(), otherUnitCoordinator, ticket.ID)
	assert.True(t, apperrors.IsForbidden(err))

	_, _, err = f.service.GetTicket(context.Background(), sameUnitCoordinator, ticket.ID)
	assert.NoError(t, err)
}

func TestListTicketsScopesByRole(t *testing.T) {
	f := newServiceFixture(t)
	requester := f.addUser("req-1", domain.RoleRequester, "unit-1")
	coordinator := f.addUser("coord-1", domain.RoleCoordinator, "unit-1")
	tech := f.addUser("tech-1", domain.RoleTech, "unit-hq")

	_, err := f.service.ListTickets(context.Background(), requester, TicketListFilter{})
	require.NoError(t, err)
	require.NotNil(t, f.tickets.lastFilter.RequesterID)
	assert.Equal(t, "req-1", *f.tickets.lastFilter.RequesterID)

	_, err = f.service.ListTickets(context.Background(), coordinator, TicketListFilter{})
	require.NoError(t, err)
	require.NotNil(t, f.tickets.lastFilter.ClinicUnitID)
	assert.Equal(t, "unit-1", *f.tickets.lastFilter.ClinicUnitID)

	_, err = f.service.ListTickets(context.Background(), tech, TicketListFilter{})
	require.NoError(t, err)
	assert.Nil(t, f.tickets.lastFilter.RequesterID)
	assert.Nil(t, f.tickets.lastFilter.ClinicUnitID)
}

func TestAssignTicketValidatesAssignee(t *testing.T) {
	f := newServiceFixture(t)
	requester := f.addUser("req-1", domain.RoleRequester, "unit-1")
	f.addUser("coord-1", domain.RoleCoordinator, "unit-1")
	tech := f.addUser("tech-1", domain.RoleTech, "unit-hq")
	f.addCategory("cat", domain.TicketPriorityMedium, nil)
	ticket := f.createTicket(t, requester, TicketCreateInput{CategoryID: "cat", Room: domain.RoomNursing, Title: "scale"})

	_, err := f.service.AssignTicket(context.Background(), tech, ticket.ID, strp("coord-1"))
	assert.True(t, apperrors.IsValidation(err))

	updated, err := f.service.AssignTicket(context.Background(), tech, ticket.ID, strp("tech-1"))
	require.NoError(t, err)
	require.NotNil(t, updated.AssigneeID)
	assert.Equal(t, "tech-1", *updated.AssigneeID)
	assert.Contains(t, f.dispatcher.types(), events.EventTicketAssigned)
}

func TestUpdateTicketPriorityChangeRecomputesAndAudits(t *testing.T) {
	f := newServiceFixture(t)
	requester := f.addUser("req-1", domain.RoleRequester, "unit-1")
	tech := f.addUser("tech-1", domain.RoleTech, "unit-hq")
	f.addCategory("cat", domain.TicketPriorityLow, nil)
	ticket := f.createTicket(t, requester, TicketCreateInput{CategoryID: "cat", Room: domain.RoomDoctor, Title: "slow network"})

	urgent := domain.TicketPriorityUrgent
	updated, err := f.service.UpdateTicket(context.Background(), tech, ticket.ID, TicketChangeInput{Priority: &urgent})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketPriorityUrgent, updated.Priority)
	// URGENT response target from createdAt: 9:00 + 15 business minutes.
	assert.Equal(t, time.Date(2024, 1, 8, 9, 15, 0, 0, time.UTC), updated.ResponseDueAt)

	assert.Contains(t, f.audits.actions(), string(sla.ActionPriorityChange))
	assert.Contains(t, f.dispatcher.types(), events.EventTicketPriorityChanged)
}

func timep(t time.Time) *time.Time { return &t }
