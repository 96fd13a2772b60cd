package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	callsDomain "github.com/felixgeelhaar/calltracker/internal/calls/domain"
	callsPersistence "github.com/felixgeelhaar/calltracker/internal/calls/infrastructure/persistence"
	"github.com/felixgeelhaar/calltracker/internal/scheduling/domain"
	"github.com/felixgeelhaar/calltracker/internal/scheduling/infrastructure/persistence"
	sharedDomain "github.com/felixgeelhaar/calltracker/internal/shared/domain"
	"github.com/felixgeelhaar/calltracker/internal/shared/infrastructure/kvstore"
	"github.com/felixgeelhaar/calltracker/pkg/observability"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDispatcher struct {
	events []sharedDomain.DomainEvent
	err    error
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, events []sharedDomain.DomainEvent) error {
	d.events = append(d.events, events...)
	return d.err
}

func (d *recordingDispatcher) routingKeys() []string {
	keys := make([]string, 0, len(d.events))
	for _, e := range d.events {
		keys = append(keys, e.RoutingKey())
	}
	return keys
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection refused")
}

func (brokenStore) Set(context.Context, string, []byte) error {
	return errors.New("connection refused")
}

func (brokenStore) Delete(context.Context, string) error {
	return errors.New("connection refused")
}

// recoveringStore fails every call while down and then behaves like the
// wrapped store.
type recoveringStore struct {
	kvstore.Store
	down bool
}

func (s *recoveringStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s.down {
		return nil, errors.New("connection refused")
	}
	return s.Store.Get(ctx, key)
}

func (s *recoveringStore) Set(ctx context.Context, key string, value []byte) error {
	if s.down {
		return errors.New("connection refused")
	}
	return s.Store.Set(ctx, key, value)
}

type engineFixture struct {
	engine     *SchedulingEngine
	employees  *callsPersistence.MemoryEmployeeRepository
	calls      *callsPersistence.MemoryCallRepository
	store      kvstore.Store
	dispatcher *recordingDispatcher
	metrics    *observability.InMemoryMetrics
	clock      *time.Time
}

type fixtureOption func(*engineFixture, *SchedulingEngineConfig)

func withStore(store kvstore.Store) fixtureOption {
	return func(f *engineFixture, _ *SchedulingEngineConfig) { f.store = store }
}

func withoutSlotResolution() fixtureOption {
	return func(_ *engineFixture, cfg *SchedulingEngineConfig) { cfg.ResolveSlotOnAccept = false }
}

func newEngineFixture(t *testing.T, employees []*callsDomain.Employee, calls []*callsDomain.Call, opts ...fixtureOption) *engineFixture {
	t.Helper()

	clock := monday
	f := &engineFixture{
		employees:  callsPersistence.NewMemoryEmployeeRepository(employees...),
		calls:      callsPersistence.NewMemoryCallRepository(calls...),
		store:      kvstore.NewMemoryStore(),
		dispatcher: &recordingDispatcher{},
		metrics:    observability.NewInMemoryMetrics(),
		clock:      &clock,
	}

	cfg := DefaultSchedulingEngineConfig()
	cfg.Now = func() time.Time { return *f.clock }
	for _, opt := range opts {
		opt(f, &cfg)
	}

	f.engine = NewSchedulingEngine(SchedulingEngineDeps{
		Employees:   f.employees,
		Calls:       f.calls,
		Suggestions: persistence.NewKVSuggestionRepository(f.store),
		Events:      persistence.NewKVCompanyEventRepository(f.store),
		Rules:       persistence.NewKVRuleRepository(f.store),
		Detector:    NewConflictDetector(f.calls, testDetectorConfig(), nil, f.metrics),
		Analyzer:    NewTriggerAnalyzer(DefaultTriggerAnalyzerConfig()),
		Builder:     testBuilder(),
		Dispatcher:  f.dispatcher,
		Metrics:     f.metrics,
	}, cfg)
	return f
}

// lowPerformer is an employee with score 3 and a good call ten days ago.
func lowPerformer(t *testing.T) (*callsDomain.Employee, *callsDomain.Call) {
	t.Helper()
	emp := newTestEmployee(t, "Mario Rossi", "Sales")
	emp.SetPerformanceScore(3)
	return emp, completedCall(t, emp.ID(), monday.AddDate(0, 0, -10), ptr(5.0))
}

func suggestionFor(t *testing.T, suggestions []*domain.Suggestion, employeeID uuid.UUID) *domain.Suggestion {
	t.Helper()
	for _, s := range suggestions {
		if s.EmployeeID() == employeeID {
			return s
		}
	}
	t.Fatalf("no suggestion for employee %s", employeeID)
	return nil
}

func TestSchedulingEngine_GenerateSuggestions_LowPerformer(t *testing.T) {
	ctx := context.Background()
	emp, call := lowPerformer(t)
	f := newEngineFixture(t, []*callsDomain.Employee{emp}, []*callsDomain.Call{call})

	pending, err := f.engine.GenerateSuggestions(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	s := pending[0]
	assert.Equal(t, emp.ID(), s.EmployeeID())
	assert.Equal(t, domain.PriorityHigh, s.Priority())
	require.Len(t, s.Triggers(), 1)
	assert.Equal(t, domain.TriggerPerformanceDecline, s.Triggers()[0].Type)
	assert.Equal(t, domain.SeverityHigh, s.Triggers()[0].Severity)
	assert.GreaterOrEqual(t, s.Confidence(), 0.75)
	assert.Equal(t, at(3, 10, 0), s.SuggestedDate())
	assert.Equal(t, callsDomain.RiskHigh, emp.RiskLevel())
	assert.Equal(t, int64(1), f.metrics.GetCounter(observability.MetricSuggestionsGenerated))
	assert.Equal(t, 1.0, f.metrics.GetGauge(observability.MetricSuggestionsPending))

	stored, err := persistence.NewKVSuggestionRepository(f.store).LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, s.ID(), stored[0].ID())
}

func TestSchedulingEngine_GenerateSuggestions_NeverCalled(t *testing.T) {
	ctx := context.Background()
	emp := newTestEmployee(t, "Laura Verdi", "HR")
	f := newEngineFixture(t, []*callsDomain.Employee{emp}, nil)

	pending, err := f.engine.GenerateSuggestions(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	trigger := pending[0].Triggers()[0]
	assert.Equal(t, domain.TriggerOverdueReview, trigger.Type)
	assert.Equal(t, domain.SeverityHigh, trigger.Severity)
	assert.Equal(t, "Nessuna call mai effettuata", trigger.Description)
}

func TestSchedulingEngine_GenerateSuggestions_OnePendingPerEmployee(t *testing.T) {
	ctx := context.Background()
	emp, call := lowPerformer(t)
	f := newEngineFixture(t, []*callsDomain.Employee{emp}, []*callsDomain.Call{call})

	first, err := f.engine.GenerateSuggestions(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)

	emp.SetPerformanceScore(5)
	*f.clock = monday.Add(2 * time.Hour)

	second, err := f.engine.GenerateSuggestions(ctx)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID(), second[0].ID())
	assert.Equal(t, domain.SeverityMedium, second[0].Triggers()[0].Severity)
	assert.Equal(t, domain.PriorityMedium, second[0].Priority())
	assert.Len(t, f.engine.Suggestions(ctx), 1)
}

func TestSchedulingEngine_GenerateSuggestions_Ordering(t *testing.T) {
	ctx := context.Background()

	medium := newTestEmployee(t, "Anna Riva", "IT")
	medium.SetPerformanceScore(5)
	mediumCall := completedCall(t, medium.ID(), monday.AddDate(0, 0, -3), nil)

	urgent := newTestEmployee(t, "Bruno Sala", "IT")
	urgent.SetPerformanceScore(2)

	healthy := newTestEmployee(t, "Carla Fini", "IT")
	healthyCall := completedCall(t, healthy.ID(), monday.AddDate(0, 0, -2), ptr(4.0))

	inactive := newTestEmployee(t, "Dario Moro", "IT")
	inactive.Deactivate(monday)

	f := newEngineFixture(t,
		[]*callsDomain.Employee{medium, urgent, healthy, inactive},
		[]*callsDomain.Call{mediumCall, healthyCall},
	)

	pending, err := f.engine.GenerateSuggestions(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, urgent.ID(), pending[0].EmployeeID())
	assert.Equal(t, domain.PriorityUrgent, pending[0].Priority())
	assert.Equal(t, medium.ID(), pending[1].EmployeeID())
	assert.Equal(t, callsDomain.RiskLow, healthy.RiskLevel())
}

func TestSchedulingEngine_AcceptSuggestion(t *testing.T) {
	ctx := context.Background()
	emp, call := lowPerformer(t)
	f := newEngineFixture(t, []*callsDomain.Employee{emp}, []*callsDomain.Call{call})

	pending, err := f.engine.GenerateSuggestions(ctx)
	require.NoError(t, err)
	id := pending[0].ID()

	created, err := f.engine.AcceptSuggestion(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, emp.ID(), created.EmployeeID())
	assert.Equal(t, at(3, 10, 0), created.ScheduledAt())
	assert.Equal(t, callsDomain.CallStatusScheduled, created.Status())
	assert.True(t, strings.HasPrefix(created.Notes(), "Call programmata automaticamente. Motivi: "))
	assert.Contains(t, created.Notes(), "Performance score basso: 3.0/10")

	all, err := f.calls.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	s, err := f.engine.Suggestion(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.SuggestionAccepted, s.Status())
	assert.Empty(t, f.engine.PendingSuggestions(ctx))

	assert.Equal(t, []string{
		domain.RoutingKeySuggestionAccepted,
		domain.RoutingKeyCallAutoScheduled,
	}, f.dispatcher.routingKeys())
	scheduled, ok := f.dispatcher.events[1].(*domain.CallAutoScheduled)
	require.True(t, ok)
	assert.Equal(t, created.ID(), scheduled.CallID)
	assert.Equal(t, "Mario Rossi", scheduled.EmployeeName)
	assert.Equal(t, int64(1), f.metrics.GetCounter(observability.MetricSuggestionsAccepted, observability.T("priority", "high")))
}

func TestSchedulingEngine_AcceptSuggestion_Twice(t *testing.T) {
	ctx := context.Background()
	emp, call := lowPerformer(t)
	f := newEngineFixture(t, []*callsDomain.Employee{emp}, []*callsDomain.Call{call})

	pending, err := f.engine.GenerateSuggestions(ctx)
	require.NoError(t, err)

	_, err = f.engine.AcceptSuggestion(ctx, pending[0].ID())
	require.NoError(t, err)

	_, err = f.engine.AcceptSuggestion(ctx, pending[0].ID())
	assert.ErrorIs(t, err, domain.ErrSuggestionAlreadyAccepted)

	all, err := f.calls.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2, "second accept must not create another call")
}

func TestSchedulingEngine_AcceptAfterDismiss(t *testing.T) {
	ctx := context.Background()
	emp, call := lowPerformer(t)
	f := newEngineFixture(t, []*callsDomain.Employee{emp}, []*callsDomain.Call{call})

	pending, err := f.engine.GenerateSuggestions(ctx)
	require.NoError(t, err)
	id := pending[0].ID()

	require.NoError(t, f.engine.DismissSuggestion(ctx, id, "già sentito"))
	s, err := f.engine.Suggestion(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.SuggestionDismissed, s.Status())
	assert.Equal(t, "già sentito", s.DismissReason())

	created, err := f.engine.AcceptSuggestion(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, emp.ID(), created.EmployeeID())
	assert.Equal(t, domain.SuggestionAccepted, s.Status())

	assert.ErrorIs(t, f.engine.DismissSuggestion(ctx, id, ""), domain.ErrSuggestionAlreadyAccepted)
}

func TestSchedulingEngine_UnknownSuggestion(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t, nil, nil)
	id := uuid.New()

	_, err := f.engine.AcceptSuggestion(ctx, id)
	assert.ErrorIs(t, err, domain.ErrSuggestionNotFound)
	assert.ErrorIs(t, err, sharedDomain.ErrNotFound)

	err = f.engine.DismissSuggestion(ctx, id, "")
	assert.ErrorIs(t, err, domain.ErrSuggestionNotFound)

	_, err = f.engine.Suggestion(ctx, id)
	assert.ErrorIs(t, err, domain.ErrSuggestionNotFound)
}

func TestSchedulingEngine_AcceptSuggestion_MissingEmployee(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	orphan := domain.NewSuggestion(uuid.New(), "Ex Dipendente", domain.Assessment{
		Triggers:      []domain.Trigger{trig(domain.TriggerOverdueReview, domain.SeverityHigh)},
		Priority:      domain.PriorityHigh,
		SuggestedDate: at(3, 10, 0),
		Confidence:    0.8,
	}, monday)
	require.NoError(t, persistence.NewKVSuggestionRepository(store).SaveAll(ctx, []*domain.Suggestion{orphan}))

	f := newEngineFixture(t, nil, nil, withStore(store))

	_, err := f.engine.AcceptSuggestion(ctx, orphan.ID())
	assert.ErrorIs(t, err, callsDomain.ErrEmployeeNotFound)

	s, err := f.engine.Suggestion(ctx, orphan.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.SuggestionAccepted, s.Status())

	all, err := f.calls.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Empty(t, f.dispatcher.events)

	stored, err := persistence.NewKVSuggestionRepository(store).LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, domain.SuggestionAccepted, stored[0].Status())

	_, err = f.engine.AcceptSuggestion(ctx, orphan.ID())
	assert.ErrorIs(t, err, domain.ErrSuggestionAlreadyAccepted)
}

func TestSchedulingEngine_ResolvesSlotOnAccept(t *testing.T) {
	ctx := context.Background()
	emp, call := lowPerformer(t)
	colleague := newTestEmployee(t, "Elena Conti", "Sales")
	colleagueCall := completedCall(t, colleague.ID(), monday.AddDate(0, 0, -1), nil)
	busy := scheduledCall(t, colleague.ID(), at(3, 10, 0))
	calls := []*callsDomain.Call{call, colleagueCall, busy}

	t.Run("moves to the next free slot", func(t *testing.T) {
		f := newEngineFixture(t, []*callsDomain.Employee{emp, colleague}, calls)
		pending, err := f.engine.GenerateSuggestions(ctx)
		require.NoError(t, err)

		s := suggestionFor(t, pending, emp.ID())
		created, err := f.engine.AcceptSuggestion(ctx, s.ID())
		require.NoError(t, err)
		assert.Equal(t, at(3, 11, 15), created.ScheduledAt())

		check, err := f.engine.detector.HasConflict(ctx, created.ScheduledAt(), created.ID())
		require.NoError(t, err)
		assert.False(t, check.HasConflict)
	})

	t.Run("keeps the suggested date when disabled", func(t *testing.T) {
		f := newEngineFixture(t, []*callsDomain.Employee{emp, colleague}, calls, withoutSlotResolution())
		pending, err := f.engine.GenerateSuggestions(ctx)
		require.NoError(t, err)

		s := suggestionFor(t, pending, emp.ID())
		created, err := f.engine.AcceptSuggestion(ctx, s.ID())
		require.NoError(t, err)
		assert.Equal(t, at(3, 10, 0), created.ScheduledAt())
	})
}

func TestSchedulingEngine_StorageUnavailable(t *testing.T) {
	ctx := context.Background()
	emp, call := lowPerformer(t)
	f := newEngineFixture(t, []*callsDomain.Employee{emp}, []*callsDomain.Call{call}, withStore(brokenStore{}))

	pending, err := f.engine.GenerateSuggestions(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	created, err := f.engine.AcceptSuggestion(ctx, pending[0].ID())
	require.NoError(t, err)
	assert.NotNil(t, created)

	event, err := f.engine.AddCompanyEvent(ctx, domain.CompanyEventInput{
		Title: "Ciclo di review",
		Type:  domain.EventReviewCycle,
		Date:  monday.AddDate(0, 0, 14),
	})
	require.NoError(t, err)
	assert.Equal(t, []*domain.CompanyEvent{event}, f.engine.CompanyEvents(ctx))
	assert.Len(t, f.engine.Rules(ctx), 2)
}

func TestSchedulingEngine_StorageRecoveryMergesChanges(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()

	storedEvent, err := domain.NewCompanyEvent(domain.CompanyEventInput{
		Title: "Budget 2026",
		Type:  domain.EventBudgetPlanning,
		Date:  monday.AddDate(0, 0, 20),
	}, monday)
	require.NoError(t, err)
	require.NoError(t, persistence.NewKVCompanyEventRepository(store).SaveAll(ctx, []*domain.CompanyEvent{storedEvent}))

	dismissed := domain.NewSuggestion(uuid.New(), "Ex Dipendente", domain.Assessment{
		Triggers:      []domain.Trigger{trig(domain.TriggerOverdueReview, domain.SeverityMedium)},
		Priority:      domain.PriorityMedium,
		SuggestedDate: at(3, 10, 0),
		Confidence:    0.6,
	}, monday)
	require.NoError(t, dismissed.Dismiss("left the company", monday))
	require.NoError(t, persistence.NewKVSuggestionRepository(store).SaveAll(ctx, []*domain.Suggestion{dismissed}))

	flaky := &recoveringStore{Store: store, down: true}
	emp, call := lowPerformer(t)
	f := newEngineFixture(t, []*callsDomain.Employee{emp}, []*callsDomain.Call{call}, withStore(flaky))

	pending, err := f.engine.GenerateSuggestions(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	localEvent, err := f.engine.AddCompanyEvent(ctx, domain.CompanyEventInput{
		Title: "Ciclo di review",
		Type:  domain.EventReviewCycle,
		Date:  monday.AddDate(0, 0, 14),
	})
	require.NoError(t, err)

	flaky.down = false
	again, err := f.engine.GenerateSuggestions(ctx)
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, pending[0].ID(), again[0].ID())

	kept, err := f.engine.Suggestion(ctx, dismissed.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.SuggestionDismissed, kept.Status())

	stored, err := persistence.NewKVSuggestionRepository(store).LoadAll(ctx)
	require.NoError(t, err)
	ids := make([]uuid.UUID, 0, len(stored))
	for _, s := range stored {
		ids = append(ids, s.ID())
	}
	assert.ElementsMatch(t, []uuid.UUID{dismissed.ID(), pending[0].ID()}, ids)

	events := f.engine.CompanyEvents(ctx)
	require.Len(t, events, 2)
	assert.Equal(t, localEvent.ID(), events[0].ID())
	assert.Equal(t, storedEvent.ID(), events[1].ID())
}

func TestSchedulingEngine_EmployeeListingFails(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t, nil, nil)
	f.engine.employees = failingEmployeeRepo{}

	pending, err := f.engine.GenerateSuggestions(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

type failingEmployeeRepo struct {
	callsDomain.EmployeeRepository
}

func (failingEmployeeRepo) List(ctx context.Context) ([]*callsDomain.Employee, error) {
	return nil, errors.New("database is locked")
}

func TestSchedulingEngine_MalformedDocumentStartsEmpty(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	require.NoError(t, store.Set(ctx, domain.KeySchedulingSuggestions, []byte("not json")))

	emp, call := lowPerformer(t)
	f := newEngineFixture(t, []*callsDomain.Employee{emp}, []*callsDomain.Call{call}, withStore(store))

	pending, err := f.engine.GenerateSuggestions(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	raw, err := store.Get(ctx, domain.KeySchedulingSuggestions)
	require.NoError(t, err)
	assert.True(t, json.Valid(raw))
}

func TestSchedulingEngine_MalformedRecordKeepsHistory(t *testing.T) {
	ctx := context.Background()
	store := kvstore.NewMemoryStore()
	emp, call := lowPerformer(t)

	first := newEngineFixture(t, []*callsDomain.Employee{emp}, []*callsDomain.Call{call}, withStore(store))
	pending, err := first.engine.GenerateSuggestions(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	dismissedID := pending[0].ID()
	require.NoError(t, first.engine.DismissSuggestion(ctx, dismissedID, "already discussed"))

	raw, err := store.Get(ctx, domain.KeySchedulingSuggestions)
	require.NoError(t, err)
	spliced := `[{"employeeName":"broken"},` + string(raw[1:])
	require.NoError(t, store.Set(ctx, domain.KeySchedulingSuggestions, []byte(spliced)))

	second := newEngineFixture(t, []*callsDomain.Employee{emp}, []*callsDomain.Call{call}, withStore(store))
	_, err = second.engine.GenerateSuggestions(ctx)
	require.NoError(t, err)

	kept, err := second.engine.Suggestion(ctx, dismissedID)
	require.NoError(t, err)
	assert.Equal(t, domain.SuggestionDismissed, kept.Status())
	assert.Equal(t, "already discussed", kept.DismissReason())

	stored, err := persistence.NewKVSuggestionRepository(store).LoadAll(ctx)
	require.NoError(t, err, "the rewritten document no longer holds the malformed record")
	ids := make([]uuid.UUID, 0, len(stored))
	for _, s := range stored {
		ids = append(ids, s.ID())
	}
	assert.Contains(t, ids, dismissedID)
}

func TestSchedulingEngine_DispatchFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	emp, call := lowPerformer(t)
	f := newEngineFixture(t, []*callsDomain.Employee{emp}, []*callsDomain.Call{call})
	f.dispatcher.err = errors.New("broker down")

	pending, err := f.engine.GenerateSuggestions(ctx)
	require.NoError(t, err)

	created, err := f.engine.AcceptSuggestion(ctx, pending[0].ID())
	require.NoError(t, err)
	assert.NotNil(t, created)
	assert.Equal(t, int64(2), f.metrics.GetCounter(observability.MetricNotificationsFailed))
}

func TestSchedulingEngine_CleanupSuggestions(t *testing.T) {
	ctx := context.Background()
	emp, call := lowPerformer(t)
	fresh := newTestEmployee(t, "Laura Verdi", "HR")
	f := newEngineFixture(t, []*callsDomain.Employee{emp, fresh}, []*callsDomain.Call{call})

	pending, err := f.engine.GenerateSuggestions(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	dismissed := suggestionFor(t, pending, emp.ID())
	require.NoError(t, f.engine.DismissSuggestion(ctx, dismissed.ID(), ""))

	removed, err := f.engine.CleanupSuggestions(ctx, 30*24*time.Hour)
	require.NoError(t, err)
	assert.Zero(t, removed, "recent suggestions are kept")

	*f.clock = monday.AddDate(0, 0, 31)
	removed, err = f.engine.CleanupSuggestions(ctx, 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	remaining := f.engine.Suggestions(ctx)
	require.Len(t, remaining, 1)
	assert.Equal(t, fresh.ID(), remaining[0].EmployeeID())
	assert.True(t, remaining[0].IsPending())
}

func TestSchedulingEngine_CompanyEvents(t *testing.T) {
	ctx := context.Background()
	emp := newTestEmployee(t, "Paolo Costa", "Sales")
	recent := completedCall(t, emp.ID(), monday.AddDate(0, 0, -2), ptr(4.0))
	f := newEngineFixture(t, []*callsDomain.Employee{emp}, []*callsDomain.Call{recent})

	_, err := f.engine.AddCompanyEvent(ctx, domain.CompanyEventInput{Type: domain.EventTraining, Date: monday})
	assert.ErrorIs(t, err, domain.ErrEventTitleRequired)

	later, err := f.engine.AddCompanyEvent(ctx, domain.CompanyEventInput{
		Title: "Budget 2026",
		Type:  domain.EventBudgetPlanning,
		Date:  monday.AddDate(0, 0, 20),
	})
	require.NoError(t, err)
	sooner, err := f.engine.AddCompanyEvent(ctx, domain.CompanyEventInput{
		Title:               "Riorganizzazione vendite",
		Type:                domain.EventRestructuring,
		Date:                monday.AddDate(0, 0, 10),
		ImpactsScheduling:   true,
		AffectedDepartments: []string{"Sales"},
	})
	require.NoError(t, err)

	events := f.engine.CompanyEvents(ctx)
	require.Len(t, events, 2)
	assert.Equal(t, sooner.ID(), events[0].ID())
	assert.Equal(t, later.ID(), events[1].ID())

	stored, err := persistence.NewKVCompanyEventRepository(f.store).LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 2)

	pending, err := f.engine.GenerateSuggestions(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	trigger, ok := domain.FindTrigger(pending[0].Triggers(), domain.TriggerCompanyEvent)
	require.True(t, ok)
	assert.Equal(t, domain.SeverityHigh, trigger.Severity)
	assert.Equal(t, 10, *trigger.DaysUntilAction)
}

func TestSchedulingEngine_SeedsDefaultRules(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t, nil, nil)

	rules := f.engine.Rules(ctx)
	require.Len(t, rules, 2)
	assert.Equal(t, domain.PriorityUrgent, rules[0].Priority)

	stored, err := persistence.NewKVRuleRepository(f.store).LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}
