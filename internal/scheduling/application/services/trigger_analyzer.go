package services

import (
	"fmt"
	"math"
	"time"

	callsDomain "github.com/felixgeelhaar/calltracker/internal/calls/domain"
	"github.com/felixgeelhaar/calltracker/internal/scheduling/domain"
)

// TriggerAnalyzerConfig holds the thresholds for each trigger rule.
type TriggerAnalyzerConfig struct {
	PerformanceThreshold float64 // score below this fires performance_decline
	PerformanceCritical  float64 // score below this is high severity
	ContractHorizonDays  int
	ContractCriticalDays int
	OverdueEscalation    float64 // multiple of the frequency window that is high severity
	LowRatingThreshold   float64
	LowRatingCritical    float64
	EventHorizonDays     int
}

// DefaultTriggerAnalyzerConfig returns the standard trigger thresholds.
func DefaultTriggerAnalyzerConfig() TriggerAnalyzerConfig {
	return TriggerAnalyzerConfig{
		PerformanceThreshold: 6,
		PerformanceCritical:  4,
		ContractHorizonDays:  90,
		ContractCriticalDays: 30,
		OverdueEscalation:    1.5,
		LowRatingThreshold:   3,
		LowRatingCritical:    2,
		EventHorizonDays:     30,
	}
}

// TriggerAnalyzer evaluates the trigger rules for one employee.
type TriggerAnalyzer struct {
	config TriggerAnalyzerConfig
}

// NewTriggerAnalyzer creates a new trigger analyzer.
func NewTriggerAnalyzer(config TriggerAnalyzerConfig) *TriggerAnalyzer {
	return &TriggerAnalyzer{config: config}
}

// Analyze returns the triggers that fire for employee at now. Calls that
// belong to other employees or are malformed are ignored.
func (a *TriggerAnalyzer) Analyze(
	employee *callsDomain.Employee,
	calls []*callsDomain.Call,
	events []*domain.CompanyEvent,
	now time.Time,
) []domain.Trigger {
	var triggers []domain.Trigger

	if t, ok := a.performanceDecline(employee); ok {
		triggers = append(triggers, t)
	}
	if t, ok := a.contractExpiry(employee, now); ok {
		triggers = append(triggers, t)
	}

	last := lastCompletedCall(employee, calls)
	if t, ok := a.overdueReview(employee, last, now); ok {
		triggers = append(triggers, t)
	}
	if t, ok := a.lowRating(last); ok {
		triggers = append(triggers, t)
	}

	triggers = append(triggers, a.companyEvents(employee, events, now)...)
	return triggers
}

func (a *TriggerAnalyzer) performanceDecline(e *callsDomain.Employee) (domain.Trigger, bool) {
	score := e.PerformanceScore()
	if score == nil || *score >= a.config.PerformanceThreshold {
		return domain.Trigger{}, false
	}

	severity := domain.SeverityMedium
	if *score < a.config.PerformanceCritical {
		severity = domain.SeverityHigh
	}
	return domain.Trigger{
		Type:        domain.TriggerPerformanceDecline,
		Severity:    severity,
		Description: fmt.Sprintf("Performance score basso: %.1f/10", *score),
	}, true
}

func (a *TriggerAnalyzer) contractExpiry(e *callsDomain.Employee, now time.Time) (domain.Trigger, bool) {
	expiry := e.ContractExpiry()
	if expiry == nil {
		return domain.Trigger{}, false
	}

	days := daysUntil(now, *expiry)
	if days <= 0 || days > a.config.ContractHorizonDays {
		return domain.Trigger{}, false
	}

	severity := domain.SeverityMedium
	if days <= a.config.ContractCriticalDays {
		severity = domain.SeverityHigh
	}
	return domain.Trigger{
		Type:            domain.TriggerContractExpiry,
		Severity:        severity,
		Description:     fmt.Sprintf("Contratto in scadenza tra %d giorni", days),
		DaysUntilAction: &days,
	}, true
}

func (a *TriggerAnalyzer) overdueReview(e *callsDomain.Employee, last *callsDomain.Call, now time.Time) (domain.Trigger, bool) {
	if last == nil {
		return domain.Trigger{
			Type:        domain.TriggerOverdueReview,
			Severity:    domain.SeverityHigh,
			Description: "Nessuna call mai effettuata",
		}, true
	}

	maxDays := e.CallFrequency().MaxDaysBetweenCalls()
	elapsed := int(now.Sub(*last.CompletedAt()).Hours() / 24)
	if elapsed <= maxDays {
		return domain.Trigger{}, false
	}

	severity := domain.SeverityMedium
	if float64(elapsed) > float64(maxDays)*a.config.OverdueEscalation {
		severity = domain.SeverityHigh
	}
	return domain.Trigger{
		Type:        domain.TriggerOverdueReview,
		Severity:    severity,
		Description: fmt.Sprintf("Ultima call %d giorni fa (frequenza %s)", elapsed, e.CallFrequency()),
	}, true
}

func (a *TriggerAnalyzer) lowRating(last *callsDomain.Call) (domain.Trigger, bool) {
	if last == nil || last.Rating() == nil || *last.Rating() >= a.config.LowRatingThreshold {
		return domain.Trigger{}, false
	}

	rating := *last.Rating()
	severity := domain.SeverityMedium
	if rating <= a.config.LowRatingCritical {
		severity = domain.SeverityHigh
	}
	return domain.Trigger{
		Type:        domain.TriggerLowRating,
		Severity:    severity,
		Description: fmt.Sprintf("Ultima call valutata %.1f/5", rating),
	}, true
}

func (a *TriggerAnalyzer) companyEvents(e *callsDomain.Employee, events []*domain.CompanyEvent, now time.Time) []domain.Trigger {
	horizon := now.AddDate(0, 0, a.config.EventHorizonDays)

	var out []domain.Trigger
	for _, ev := range events {
		if !ev.ImpactsScheduling() || ev.Date().Before(now) || ev.Date().After(horizon) {
			continue
		}
		if !ev.Affects(e.ID(), e.Department()) {
			continue
		}

		severity := domain.SeverityMedium
		if ev.Type() == domain.EventRestructuring {
			severity = domain.SeverityHigh
		}
		days := daysUntil(now, ev.Date())
		out = append(out, domain.Trigger{
			Type:            domain.TriggerCompanyEvent,
			Severity:        severity,
			Description:     fmt.Sprintf("Evento aziendale \"%s\" tra %d giorni", ev.Title(), days),
			DaysUntilAction: &days,
		})
	}
	return out
}

// lastCompletedCall returns the employee's completed call with the latest
// completion time.
func lastCompletedCall(e *callsDomain.Employee, calls []*callsDomain.Call) *callsDomain.Call {
	var last *callsDomain.Call
	for _, c := range calls {
		if c.EmployeeID() != e.ID() || !c.IsCompleted() || c.Validate() != nil {
			continue
		}
		if last == nil || c.CompletedAt().After(*last.CompletedAt()) {
			last = c
		}
	}
	return last
}

// daysUntil counts whole days from now to t, rounding partial days up.
func daysUntil(now, t time.Time) int {
	return int(math.Ceil(t.Sub(now).Hours() / 24))
}
