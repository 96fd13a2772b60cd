package services

import (
	"fmt"
	"math"
	"time"

	callsDomain "github.com/felixgeelhaar/calltracker/internal/calls/domain"
	"github.com/felixgeelhaar/calltracker/internal/scheduling/domain"
)

// SuggestionBuilderConfig contains the scoring and placement settings.
type SuggestionBuilderConfig struct {
	Hours         domain.BusinessHours
	PreferredHour int
	// ContractLeadDays is how long before contract end the call should happen.
	ContractLeadDays int
}

// DefaultSuggestionBuilderConfig returns the standard builder settings.
func DefaultSuggestionBuilderConfig() SuggestionBuilderConfig {
	return SuggestionBuilderConfig{
		Hours:            domain.DefaultBusinessHours(),
		PreferredHour:    10,
		ContractLeadDays: 30,
	}
}

// SuggestionBuilder turns fired triggers into a scored suggestion.
type SuggestionBuilder struct {
	config SuggestionBuilderConfig
}

// NewSuggestionBuilder creates a new suggestion builder.
func NewSuggestionBuilder(config SuggestionBuilderConfig) *SuggestionBuilder {
	return &SuggestionBuilder{config: config}
}

// DeterminePriority maps trigger severities to a priority.
func (b *SuggestionBuilder) DeterminePriority(triggers []domain.Trigger) domain.Priority {
	high := domain.CountBySeverity(triggers, domain.SeverityHigh)
	medium := domain.CountBySeverity(triggers, domain.SeverityMedium)

	switch {
	case high >= 2:
		return domain.PriorityUrgent
	case high >= 1 || medium >= 2:
		return domain.PriorityHigh
	case medium >= 1:
		return domain.PriorityMedium
	default:
		return domain.PriorityLow
	}
}

// CalculateConfidence scores how well-founded the suggestion is, in [0.5, 1].
func (b *SuggestionBuilder) CalculateConfidence(e *callsDomain.Employee, triggers []domain.Trigger) float64 {
	confidence := 0.5
	confidence += 0.1 * float64(len(triggers))
	confidence += 0.15 * float64(domain.CountBySeverity(triggers, domain.SeverityHigh))
	if e.PerformanceScore() != nil {
		confidence += 0.1
	}
	if e.AverageCallRating() != nil {
		confidence += 0.1
	}
	if e.TotalCalls() > 0 {
		confidence += 0.05
	}

	confidence = math.Round(confidence*100) / 100
	return math.Min(confidence, 1.0)
}

// CalculateOptimalDate places the call at the preferred hour, priority lead
// days ahead of now, earlier if a contract is about to end, and never on a
// weekend.
func (b *SuggestionBuilder) CalculateOptimalDate(priority domain.Priority, triggers []domain.Trigger, now time.Time) time.Time {
	days := priority.LeadDays()
	if t, ok := domain.FindTrigger(triggers, domain.TriggerContractExpiry); ok && t.DaysUntilAction != nil {
		alt := max(*t.DaysUntilAction-b.config.ContractLeadDays, 1)
		days = min(days, alt)
	}

	local := b.config.Hours.In(now)
	date := time.Date(local.Year(), local.Month(), local.Day()+days, b.config.PreferredHour, 0, 0, 0, local.Location())
	return domain.SkipWeekend(date)
}

// GenerateReasoning renders the human-readable explanation: a header naming
// the employee, one line per trigger in input order, then the priority.
func (b *SuggestionBuilder) GenerateReasoning(e *callsDomain.Employee, triggers []domain.Trigger, priority domain.Priority) []string {
	lines := make([]string, 0, len(triggers)+2)
	lines = append(lines, fmt.Sprintf("Analisi per %s:", e.Name()))
	for _, t := range triggers {
		lines = append(lines, t.Type.Marker()+" "+t.Description)
	}
	return append(lines, fmt.Sprintf("Priorità: %s", priority))
}

// Assess computes the full assessment for an employee's triggers.
func (b *SuggestionBuilder) Assess(e *callsDomain.Employee, triggers []domain.Trigger, now time.Time) domain.Assessment {
	priority := b.DeterminePriority(triggers)
	return domain.Assessment{
		Triggers:      triggers,
		Priority:      priority,
		SuggestedDate: b.CalculateOptimalDate(priority, triggers, now),
		Confidence:    b.CalculateConfidence(e, triggers),
		Reasoning:     b.GenerateReasoning(e, triggers, priority),
	}
}

// Build creates a pending suggestion for the employee.
func (b *SuggestionBuilder) Build(e *callsDomain.Employee, triggers []domain.Trigger, now time.Time) *domain.Suggestion {
	return domain.NewSuggestion(e.ID(), e.Name(), b.Assess(e, triggers, now), now)
}
