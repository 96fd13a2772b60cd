package observability

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Metrics records counters, gauges and timings. Services default to
// NoopMetrics; the worker injects InMemoryMetrics.
type Metrics interface {
	Counter(name string, value int64, tags ...Tag)
	Gauge(name string, value float64, tags ...Tag)
	Timing(name string, duration time.Duration, tags ...Tag)
}

// Tag is a metric label.
type Tag struct {
	Key   string
	Value string
}

// T creates a new Tag.
func T(key, value string) Tag {
	return Tag{Key: key, Value: value}
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

func (NoopMetrics) Counter(string, int64, ...Tag)        {}
func (NoopMetrics) Gauge(string, float64, ...Tag)        {}
func (NoopMetrics) Timing(string, time.Duration, ...Tag) {}

// InMemoryMetrics keeps every series in maps keyed by name and tags. Tag
// order does not matter when reading a series back.
type InMemoryMetrics struct {
	mu       sync.RWMutex
	counters map[string]int64
	gauges   map[string]float64
	timings  map[string][]time.Duration
}

// NewInMemoryMetrics creates an empty collector.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		counters: make(map[string]int64),
		gauges:   make(map[string]float64),
		timings:  make(map[string][]time.Duration),
	}
}

func (m *InMemoryMetrics) Counter(name string, value int64, tags ...Tag) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[seriesKey(name, tags)] += value
}

func (m *InMemoryMetrics) Gauge(name string, value float64, tags ...Tag) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[seriesKey(name, tags)] = value
}

func (m *InMemoryMetrics) Timing(name string, duration time.Duration, tags ...Tag) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := seriesKey(name, tags)
	m.timings[key] = append(m.timings[key], duration)
}

// GetCounter returns the current value of a counter.
func (m *InMemoryMetrics) GetCounter(name string, tags ...Tag) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counters[seriesKey(name, tags)]
}

// GetGauge returns the last value set on a gauge.
func (m *InMemoryMetrics) GetGauge(name string, tags ...Tag) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gauges[seriesKey(name, tags)]
}

// GetTimings returns a copy of the recorded durations.
func (m *InMemoryMetrics) GetTimings(name string, tags ...Tag) []time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]time.Duration(nil), m.timings[seriesKey(name, tags)]...)
}

func seriesKey(name string, tags []Tag) string {
	if len(tags) == 0 {
		return name
	}
	labels := make([]string, len(tags))
	for i, t := range tags {
		labels[i] = t.Key + "=" + t.Value
	}
	sort.Strings(labels)
	return name + "{" + strings.Join(labels, ",") + "}"
}

// Metric names.
const (
	MetricOperationTotal    = "calltracker.operation.total"
	MetricOperationDuration = "calltracker.operation.duration"
	MetricOperationErrors   = "calltracker.operation.errors"

	MetricSlotFallback = "calltracker.slots.fallback"
	MetricConflicts    = "calltracker.slots.conflicts"

	MetricSuggestionsGenerated = "calltracker.suggestions.generated"
	MetricSuggestionsAccepted  = "calltracker.suggestions.accepted"
	MetricSuggestionsDismissed = "calltracker.suggestions.dismissed"
	MetricSuggestionsCleaned   = "calltracker.suggestions.cleaned"
	// MetricSuggestionsPending is a gauge set after every generation pass.
	MetricSuggestionsPending = "calltracker.suggestions.pending"

	MetricNotificationsSent   = "calltracker.notifications.sent"
	MetricNotificationsFailed = "calltracker.notifications.failed"
	MetricNotificationsParked = "calltracker.notifications.parked"
	MetricNotificationsDead   = "calltracker.notifications.dead"
	// MetricNotificationsBacklog is a gauge of parked notifications still
	// waiting for a retry, set after every outbox flush.
	MetricNotificationsBacklog = "calltracker.notifications.backlog"
	MetricRemindersScheduled   = "calltracker.reminders.scheduled"

	MetricEmployeesImported = "calltracker.import.employees"
	MetricCallsImported     = "calltracker.import.calls"

	MetricEventsPublished = "calltracker.events.published"
	MetricEventsConsumed  = "calltracker.events.consumed"
)
