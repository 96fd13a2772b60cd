package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	callsDomain "github.com/felixgeelhaar/calltracker/internal/calls/domain"
	"github.com/felixgeelhaar/calltracker/internal/scheduling/domain"
	"github.com/felixgeelhaar/calltracker/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/calltracker/internal/shared/domain"
	"github.com/felixgeelhaar/calltracker/pkg/observability"
	"github.com/google/uuid"
)

// NotificationDispatcher delivers scheduling events to interested parties.
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, events []sharedDomain.DomainEvent) error
}

// SchedulingEngineConfig contains configuration for the engine.
type SchedulingEngineConfig struct {
	// ResolveSlotOnAccept runs the slot search before creating a call. When
	// false the raw suggested date is used.
	ResolveSlotOnAccept bool
	Now                 func() time.Time
}

// DefaultSchedulingEngineConfig returns the default engine configuration.
func DefaultSchedulingEngineConfig() SchedulingEngineConfig {
	return SchedulingEngineConfig{
		ResolveSlotOnAccept: true,
		Now:                 time.Now,
	}
}

// SchedulingEngineDeps groups the collaborators of the engine.
type SchedulingEngineDeps struct {
	Employees   callsDomain.EmployeeRepository
	Calls       callsDomain.CallRepository
	Suggestions domain.SuggestionRepository
	Events      domain.CompanyEventRepository
	Rules       domain.RuleRepository
	Detector    *ConflictDetector
	Analyzer    *TriggerAnalyzer
	Builder     *SuggestionBuilder
	Dispatcher  NotificationDispatcher
	Logger      *slog.Logger
	Metrics     observability.Metrics
}

// SchedulingEngine owns the suggestion lifecycle.
type SchedulingEngine struct {
	employees  callsDomain.EmployeeRepository
	calls      callsDomain.CallRepository
	detector   *ConflictDetector
	analyzer   *TriggerAnalyzer
	builder    *SuggestionBuilder
	dispatcher NotificationDispatcher
	config     SchedulingEngineConfig
	logger     *slog.Logger
	metrics    observability.Metrics

	mu          sync.Mutex
	suggestions *document[*domain.Suggestion]
	events      *document[*domain.CompanyEvent]
	rules       *document[*domain.SchedulingRule]
}

// NewSchedulingEngine creates a new scheduling engine.
func NewSchedulingEngine(deps SchedulingEngineDeps, config SchedulingEngineConfig) *SchedulingEngine {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Metrics == nil {
		deps.Metrics = observability.NoopMetrics{}
	}
	if deps.Analyzer == nil {
		deps.Analyzer = NewTriggerAnalyzer(DefaultTriggerAnalyzerConfig())
	}
	if deps.Builder == nil {
		deps.Builder = NewSuggestionBuilder(DefaultSuggestionBuilderConfig())
	}
	if deps.Detector == nil {
		deps.Detector = NewConflictDetector(deps.Calls, DefaultConflictDetectorConfig(), deps.Logger, deps.Metrics)
	}
	if config.Now == nil {
		config.Now = time.Now
	}

	return &SchedulingEngine{
		employees:   deps.Employees,
		calls:       deps.Calls,
		detector:    deps.Detector,
		analyzer:    deps.Analyzer,
		builder:     deps.Builder,
		dispatcher:  deps.Dispatcher,
		config:      config,
		logger:      deps.Logger,
		metrics:     deps.Metrics,
		suggestions: &document[*domain.Suggestion]{key: domain.KeySchedulingSuggestions, repo: deps.Suggestions, merge: mergeSuggestions},
		events:      &document[*domain.CompanyEvent]{key: domain.KeyCompanyEvents, repo: deps.Events, merge: mergeCompanyEvents},
		rules:       &document[*domain.SchedulingRule]{key: domain.KeySchedulingRules, repo: deps.Rules},
	}
}

// ensureLoaded loads every document that has not been loaded yet. Callers
// must hold e.mu.
func (e *SchedulingEngine) ensureLoaded(ctx context.Context) {
	e.suggestions.ensure(ctx, e.logger)
	e.events.ensure(ctx, e.logger)
	e.rules.ensure(ctx, e.logger)

	if len(e.rules.items) == 0 {
		e.rules.items = domain.DefaultRules(e.config.Now())
		e.rules.persist(ctx, e.logger)
	}
}

// GenerateSuggestions analyses every active employee and merges the result
// into at most one pending suggestion per employee. It returns the pending
// suggestions ordered by priority, then suggested date.
func (e *SchedulingEngine) GenerateSuggestions(ctx context.Context) ([]*domain.Suggestion, error) {
	return observability.TimeOperationResult(ctx, e.logger, e.metrics, "generate_suggestions",
		func() ([]*domain.Suggestion, error) {
			e.mu.Lock()
			defer e.mu.Unlock()

			e.ensureLoaded(ctx)
			now := e.config.Now()

			employees, err := e.employees.List(ctx)
			if err != nil {
				e.logger.Warn("failed to list employees, skipping analysis", "error", err)
				return e.pendingLocked(), nil
			}
			callsByEmployee, err := e.callsByEmployee(ctx)
			if err != nil {
				// Without call history every employee would look overdue.
				e.logger.Warn("failed to list calls, skipping analysis", "error", err)
				return e.pendingLocked(), nil
			}

			var created, updated int
			for _, emp := range employees {
				if !emp.IsActive() {
					continue
				}
				empCtx := observability.WithEmployeeID(ctx, emp.ID().String())
				outcome, err := e.analyzeEmployee(empCtx, emp, callsByEmployee[emp.ID()], now)
				if err != nil {
					e.logger.ErrorContext(empCtx, "employee analysis failed", "error", err)
					continue
				}
				switch outcome {
				case outcomeCreated:
					created++
				case outcomeUpdated:
					updated++
				}
			}

			if created > 0 || updated > 0 {
				e.suggestions.persist(ctx, e.logger)
			}
			e.metrics.Counter(observability.MetricSuggestionsGenerated, int64(created))
			pending := e.pendingLocked()
			e.metrics.Gauge(observability.MetricSuggestionsPending, float64(len(pending)))

			e.logger.Info("suggestions generated",
				"employees", len(employees),
				"created", created,
				"updated", updated,
			)
			return pending, nil
		})
}

type analysisOutcome int

const (
	outcomeNone analysisOutcome = iota
	outcomeCreated
	outcomeUpdated
)

func (e *SchedulingEngine) analyzeEmployee(
	ctx context.Context,
	emp *callsDomain.Employee,
	calls []*callsDomain.Call,
	now time.Time,
) (analysisOutcome, error) {
	if emp.ID() == uuid.Nil || emp.Name() == "" {
		return outcomeNone, fmt.Errorf("employee record incomplete: %w", sharedDomain.ErrMalformedRecord)
	}

	triggers := e.analyzer.Analyze(emp, calls, e.events.items, now)
	if len(triggers) == 0 {
		e.updateRiskLevel(ctx, emp, callsDomain.RiskLow, now)
		return outcomeNone, nil
	}

	assessment := e.builder.Assess(emp, triggers, now)
	e.updateRiskLevel(ctx, emp, riskForPriority(assessment.Priority), now)

	if existing := e.pendingFor(emp.ID()); existing != nil {
		existing.Refresh(emp.Name(), assessment, now)
		return outcomeUpdated, nil
	}

	e.suggestions.items = append(e.suggestions.items, domain.NewSuggestion(emp.ID(), emp.Name(), assessment, now))
	return outcomeCreated, nil
}

func riskForPriority(p domain.Priority) callsDomain.RiskLevel {
	switch p {
	case domain.PriorityUrgent, domain.PriorityHigh:
		return callsDomain.RiskHigh
	case domain.PriorityMedium:
		return callsDomain.RiskMedium
	default:
		return callsDomain.RiskLow
	}
}

func (e *SchedulingEngine) updateRiskLevel(ctx context.Context, emp *callsDomain.Employee, level callsDomain.RiskLevel, now time.Time) {
	if !emp.UpdateRiskLevel(level, now) {
		return
	}
	if err := e.employees.UpdateRiskLevel(ctx, emp.ID(), level); err != nil {
		e.logger.WarnContext(ctx, "failed to update employee risk level",
			"risk_level", level,
			"error", err,
		)
	}
}

func (e *SchedulingEngine) callsByEmployee(ctx context.Context) (map[uuid.UUID][]*callsDomain.Call, error) {
	calls, err := e.calls.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[uuid.UUID][]*callsDomain.Call)
	for _, c := range calls {
		if err := c.Validate(); err != nil {
			e.logger.Warn("skipping malformed call",
				"call_id", c.ID(),
				"employee_id", c.EmployeeID(),
				"error", err,
			)
			continue
		}
		out[c.EmployeeID()] = append(out[c.EmployeeID()], c)
	}
	return out, nil
}

// AcceptSuggestion turns a suggestion into a scheduled call and notifies.
// A suggestion whose employee no longer exists is still marked accepted.
func (e *SchedulingEngine) AcceptSuggestion(ctx context.Context, id uuid.UUID) (*callsDomain.Call, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.ensureLoaded(ctx)
	now := e.config.Now()

	s := e.findLocked(id)
	if s == nil {
		return nil, suggestionNotFound(id)
	}
	if s.Status() == domain.SuggestionAccepted {
		return nil, domain.ErrSuggestionAlreadyAccepted
	}

	emp, err := e.employees.FindByID(ctx, s.EmployeeID())
	if errors.Is(err, callsDomain.ErrEmployeeNotFound) {
		if acceptErr := s.Accept(now); acceptErr != nil {
			return nil, acceptErr
		}
		s.ClearDomainEvents()
		e.suggestions.persist(ctx, e.logger)
		e.logger.Warn("accepted suggestion for missing employee",
			"suggestion_id", id,
			"employee_id", s.EmployeeID(),
		)
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("load employee: %w: %w", sharedDomain.ErrStorageUnavailable, err)
	}

	scheduledAt := e.resolveSlot(ctx, s.SuggestedDate())
	notes := "Call programmata automaticamente. Motivi: " + strings.Join(s.TriggerDescriptions(), ", ")

	call, err := callsDomain.NewCall(emp.ID(), scheduledAt, callsDomain.DefaultCallDuration, notes, now)
	if err != nil {
		return nil, err
	}
	if err := e.calls.Create(ctx, call); err != nil {
		return nil, fmt.Errorf("create call: %w", err)
	}

	if err := s.Accept(now); err != nil {
		return nil, err
	}
	e.suggestions.persist(ctx, e.logger)
	e.metrics.Counter(observability.MetricSuggestionsAccepted, 1, observability.T("priority", string(s.Priority())))

	e.logger.Info("suggestion accepted",
		"suggestion_id", id,
		"employee_id", emp.ID(),
		"call_id", call.ID(),
		"scheduled_at", scheduledAt,
	)

	events := append(s.DomainEvents(), domain.NewCallAutoScheduled(call.ID(), scheduledAt, s, now))
	e.dispatch(ctx, events)
	s.ClearDomainEvents()

	return call, nil
}

func (e *SchedulingEngine) resolveSlot(ctx context.Context, suggested time.Time) time.Time {
	if !e.config.ResolveSlotOnAccept {
		return suggested
	}
	slot, err := e.detector.FindAvailableSlot(ctx, suggested, uuid.Nil)
	if err != nil {
		e.logger.Warn("slot search failed, using suggested date",
			"suggested", suggested,
			"error", err,
		)
		return suggested
	}
	return slot
}

// DismissSuggestion marks a suggestion dismissed with an optional reason.
func (e *SchedulingEngine) DismissSuggestion(ctx context.Context, id uuid.UUID, reason string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.ensureLoaded(ctx)

	s := e.findLocked(id)
	if s == nil {
		return suggestionNotFound(id)
	}
	if err := s.Dismiss(reason, e.config.Now()); err != nil {
		return err
	}
	e.suggestions.persist(ctx, e.logger)
	e.metrics.Counter(observability.MetricSuggestionsDismissed, 1)

	e.dispatch(ctx, s.DomainEvents())
	s.ClearDomainEvents()
	return nil
}

func (e *SchedulingEngine) dispatch(ctx context.Context, events []sharedDomain.DomainEvent) {
	if e.dispatcher == nil || len(events) == 0 {
		return
	}
	application.ApplyEventMetadata(events, application.EventMetadataFromContext(ctx))
	if err := e.dispatcher.Dispatch(ctx, events); err != nil {
		e.logger.Warn("notification dispatch failed", "events", len(events), "error", err)
		e.metrics.Counter(observability.MetricNotificationsFailed, int64(len(events)))
	}
}

// AddCompanyEvent validates and stores a company event.
func (e *SchedulingEngine) AddCompanyEvent(ctx context.Context, in domain.CompanyEventInput) (*domain.CompanyEvent, error) {
	event, err := domain.NewCompanyEvent(in, e.config.Now())
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.ensureLoaded(ctx)
	e.events.items = append(e.events.items, event)
	e.events.persist(ctx, e.logger)

	e.logger.Info("company event added",
		"event_id", event.ID(),
		"type", event.Type(),
		"date", event.Date(),
	)
	return event, nil
}

// CompanyEvents returns all company events ordered by date.
func (e *SchedulingEngine) CompanyEvents(ctx context.Context) []*domain.CompanyEvent {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.ensureLoaded(ctx)
	out := slices.Clone(e.events.items)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date().Before(out[j].Date()) })
	return out
}

// Rules returns the scheduling rule presets.
func (e *SchedulingEngine) Rules(ctx context.Context) []*domain.SchedulingRule {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.ensureLoaded(ctx)
	return slices.Clone(e.rules.items)
}

// PendingSuggestions returns pending suggestions ordered by priority, then date.
func (e *SchedulingEngine) PendingSuggestions(ctx context.Context) []*domain.Suggestion {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.ensureLoaded(ctx)
	return e.pendingLocked()
}

// Suggestions returns every stored suggestion, newest first.
func (e *SchedulingEngine) Suggestions(ctx context.Context) []*domain.Suggestion {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.ensureLoaded(ctx)
	out := slices.Clone(e.suggestions.items)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt().After(out[j].CreatedAt()) })
	return out
}

// Suggestion returns a single suggestion by ID.
func (e *SchedulingEngine) Suggestion(ctx context.Context, id uuid.UUID) (*domain.Suggestion, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.ensureLoaded(ctx)
	if s := e.findLocked(id); s != nil {
		return s, nil
	}
	return nil, suggestionNotFound(id)
}

// CleanupSuggestions deletes accepted and dismissed suggestions last updated
// before now minus olderThan. Pending suggestions are never removed.
func (e *SchedulingEngine) CleanupSuggestions(ctx context.Context, olderThan time.Duration) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.ensureLoaded(ctx)
	cutoff := e.config.Now().Add(-olderThan)

	kept := make([]*domain.Suggestion, 0, len(e.suggestions.items))
	for _, s := range e.suggestions.items {
		if !s.IsPending() && s.UpdatedAt().Before(cutoff) {
			continue
		}
		kept = append(kept, s)
	}

	removed := len(e.suggestions.items) - len(kept)
	if removed > 0 {
		e.suggestions.items = kept
		e.suggestions.persist(ctx, e.logger)
		e.logger.Info("suggestions cleaned up", "removed", removed, "cutoff", cutoff)
	}
	return removed, nil
}

func (e *SchedulingEngine) findLocked(id uuid.UUID) *domain.Suggestion {
	for _, s := range e.suggestions.items {
		if s.ID() == id {
			return s
		}
	}
	return nil
}

func (e *SchedulingEngine) pendingFor(employeeID uuid.UUID) *domain.Suggestion {
	for _, s := range e.suggestions.items {
		if s.IsPending() && s.EmployeeID() == employeeID {
			return s
		}
	}
	return nil
}

func (e *SchedulingEngine) pendingLocked() []*domain.Suggestion {
	var out []*domain.Suggestion
	for _, s := range e.suggestions.items {
		if s.IsPending() {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority().Rank() != out[j].Priority().Rank() {
			return out[i].Priority().Rank() < out[j].Priority().Rank()
		}
		return out[i].SuggestedDate().Before(out[j].SuggestedDate())
	})
	return out
}

func suggestionNotFound(id uuid.UUID) error {
	return fmt.Errorf("%w: %s", domain.ErrSuggestionNotFound, id)
}
