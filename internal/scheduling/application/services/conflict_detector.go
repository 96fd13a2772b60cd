package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	callsDomain "github.com/felixgeelhaar/calltracker/internal/calls/domain"
	"github.com/felixgeelhaar/calltracker/internal/scheduling/domain"
	sharedDomain "github.com/felixgeelhaar/calltracker/internal/shared/domain"
	"github.com/felixgeelhaar/calltracker/pkg/observability"
	"github.com/google/uuid"
)

// ConflictDetectorConfig contains configuration for slot search.
type ConflictDetectorConfig struct {
	Hours        domain.BusinessHours
	MinGap       time.Duration
	CallDuration time.Duration
	MaxAttempts  int
	// FreeDayHour is used when the suggested day has no calls and the
	// suggested time is outside business hours.
	FreeDayHour int
}

// DefaultConflictDetectorConfig returns the standard scheduling policy.
func DefaultConflictDetectorConfig() ConflictDetectorConfig {
	return ConflictDetectorConfig{
		Hours:        domain.DefaultBusinessHours(),
		MinGap:       domain.MinGap,
		CallDuration: callsDomain.DefaultCallDuration,
		MaxAttempts:  50,
		FreeDayHour:  10,
	}
}

// SlotResult is the outcome of a slot search.
type SlotResult struct {
	Start        time.Time
	Attempts     int
	FallbackUsed bool
}

// ConflictDetector checks calendar slots against the minimum gap policy.
type ConflictDetector struct {
	calls   callsDomain.CallRepository
	config  ConflictDetectorConfig
	logger  *slog.Logger
	metrics observability.Metrics
}

// NewConflictDetector creates a new conflict detector.
func NewConflictDetector(
	calls callsDomain.CallRepository,
	config ConflictDetectorConfig,
	logger *slog.Logger,
	metrics observability.Metrics,
) *ConflictDetector {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &ConflictDetector{
		calls:   calls,
		config:  config,
		logger:  logger,
		metrics: metrics,
	}
}

// Config returns the detector configuration.
func (d *ConflictDetector) Config() ConflictDetectorConfig {
	return d.config
}

func (d *ConflictDetector) candidateRange(start time.Time) domain.TimeRange {
	return domain.TimeRange{Start: start, End: start.Add(d.config.CallDuration)}
}

func callRange(c *callsDomain.Call) domain.TimeRange {
	return domain.TimeRange{Start: c.ScheduledAt(), End: c.EndsAt()}
}

// ConflictCheck is the outcome of validating a proposed start time.
type ConflictCheck struct {
	HasConflict      bool
	ConflictingCalls []*callsDomain.Call
}

// IsSlotAvailable reports whether a default-length call starting at
// candidate keeps the minimum gap from every non-cancelled call.
func (d *ConflictDetector) IsSlotAvailable(candidate time.Time, calls []*callsDomain.Call) bool {
	return len(d.conflicting(candidate, calls, 1)) == 0
}

// conflicting returns up to limit calls that violate the gap around
// candidate. A limit of zero means no limit.
func (d *ConflictDetector) conflicting(candidate time.Time, calls []*callsDomain.Call, limit int) []*callsDomain.Call {
	slot := d.candidateRange(candidate)
	var out []*callsDomain.Call
	for _, c := range calls {
		if c.IsCancelled() || c.ScheduledAt().IsZero() {
			continue
		}
		if slot.ConflictsWith(callRange(c), d.config.MinGap) {
			out = append(out, c)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out
}

// HasConflictIn checks proposedStart against every non-cancelled call on
// any day, ignoring excludeID.
func (d *ConflictDetector) HasConflictIn(proposedStart time.Time, calls []*callsDomain.Call, excludeID uuid.UUID) ConflictCheck {
	found := d.conflicting(proposedStart, withoutCall(calls, excludeID), 0)
	return ConflictCheck{HasConflict: len(found) > 0, ConflictingCalls: found}
}

// FindSlot searches for the first available slot at or after suggested.
func (d *ConflictDetector) FindSlot(suggested time.Time, calendar []*callsDomain.Call, excludeID uuid.UUID) SlotResult {
	hours := d.config.Hours
	booked := bookedCalls(calendar, excludeID)

	sameDay := 0
	for _, c := range booked {
		if hours.SameDay(c.ScheduledAt(), suggested) {
			sameDay++
		}
	}
	if sameDay == 0 {
		if hours.Contains(suggested) {
			return SlotResult{Start: suggested}
		}
		return SlotResult{Start: hours.AtHour(suggested, d.config.FreeDayHour)}
	}

	candidate := suggested
	if !hours.Contains(candidate) {
		candidate = hours.Opening(suggested)
	}

	for attempt := 1; attempt <= d.config.MaxAttempts; attempt++ {
		if !candidate.Before(hours.Closing(candidate)) {
			candidate = hours.NextBusinessDayOpening(candidate)
		}
		if d.IsSlotAvailable(candidate, booked) {
			return SlotResult{Start: candidate, Attempts: attempt}
		}
		candidate = candidate.Add(d.config.MinGap)
	}

	return SlotResult{
		Start:        hours.NextBusinessDayOpening(suggested),
		Attempts:     d.config.MaxAttempts,
		FallbackUsed: true,
	}
}

// FindAvailableSlot loads the calendar and searches for a slot.
func (d *ConflictDetector) FindAvailableSlot(ctx context.Context, suggested time.Time, excludeID uuid.UUID) (time.Time, error) {
	calendar, err := d.loadCalendar(ctx)
	if err != nil {
		return time.Time{}, err
	}

	result := d.FindSlot(suggested, calendar, excludeID)
	if result.FallbackUsed {
		d.logger.Warn("no free slot found, using next business day",
			"suggested", suggested,
			"fallback", result.Start,
			"attempts", result.Attempts,
		)
		d.metrics.Counter(observability.MetricSlotFallback, 1)
	}

	return result.Start, nil
}

// HasConflict loads the calendar and checks proposedStart against it.
func (d *ConflictDetector) HasConflict(ctx context.Context, proposedStart time.Time, excludeID uuid.UUID) (ConflictCheck, error) {
	calendar, err := d.loadCalendar(ctx)
	if err != nil {
		return ConflictCheck{}, err
	}
	check := d.HasConflictIn(proposedStart, calendar, excludeID)
	if check.HasConflict {
		d.metrics.Counter(observability.MetricConflicts, 1)
	}
	return check, nil
}

// DetectAllConflicts loads the calendar and groups conflicting calls.
func (d *ConflictDetector) DetectAllConflicts(ctx context.Context) ([]domain.ConflictGroup, error) {
	calendar, err := d.loadCalendar(ctx)
	if err != nil {
		return nil, err
	}
	return d.DetectConflictGroups(calendar), nil
}

// DetectConflictGroups groups scheduled and rescheduled calls that are
// linked, directly or transitively, by gap violations. Every call with at
// least one conflict lands in exactly one group.
func (d *ConflictDetector) DetectConflictGroups(calls []*callsDomain.Call) []domain.ConflictGroup {
	active := make([]*callsDomain.Call, 0, len(calls))
	for _, c := range calls {
		if c.IsOnCalendar() && c.Validate() == nil {
			active = append(active, c)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].ScheduledAt().Before(active[j].ScheduledAt())
	})

	visited := make([]bool, len(active))
	var groups []domain.ConflictGroup

	for i := range active {
		if visited[i] {
			continue
		}
		visited[i] = true

		members := []int{i}
		for head := 0; head < len(members); head++ {
			current := callRange(active[members[head]])
			for k := range active {
				if visited[k] {
					continue
				}
				if current.ConflictsWith(callRange(active[k]), d.config.MinGap) {
					visited[k] = true
					members = append(members, k)
				}
			}
		}

		if len(members) < 2 {
			continue
		}
		sort.Ints(members)

		group := domain.ConflictGroup{
			Start: active[members[0]].ScheduledAt(),
			End:   active[members[0]].EndsAt(),
		}
		for _, idx := range members {
			c := active[idx]
			group.CallIDs = append(group.CallIDs, c.ID())
			if c.EndsAt().After(group.End) {
				group.End = c.EndsAt()
			}
		}
		groups = append(groups, group)
	}

	return groups
}

func (d *ConflictDetector) loadCalendar(ctx context.Context) ([]*callsDomain.Call, error) {
	calendar, err := d.calls.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load calls: %w: %w", sharedDomain.ErrStorageUnavailable, err)
	}
	return calendar, nil
}

func bookedCalls(calls []*callsDomain.Call, excludeID uuid.UUID) []*callsDomain.Call {
	out := make([]*callsDomain.Call, 0, len(calls))
	for _, c := range calls {
		if c.IsCancelled() || c.ScheduledAt().IsZero() {
			continue
		}
		if excludeID != uuid.Nil && c.ID() == excludeID {
			continue
		}
		out = append(out, c)
	}
	return out
}

func withoutCall(calls []*callsDomain.Call, excludeID uuid.UUID) []*callsDomain.Call {
	if excludeID == uuid.Nil {
		return calls
	}
	out := make([]*callsDomain.Call, 0, len(calls))
	for _, c := range calls {
		if c.ID() != excludeID {
			out = append(out, c)
		}
	}
	return out
}
