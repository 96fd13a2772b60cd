package domain

// TriggerType identifies the rule that fired for an employee.
type TriggerType string

const (
	TriggerPerformanceDecline TriggerType = "performance_decline"
	TriggerContractExpiry     TriggerType = "contract_expiry"
	TriggerOverdueReview      TriggerType = "overdue_review"
	TriggerLowRating          TriggerType = "low_rating"
	TriggerCompanyEvent       TriggerType = "company_event"
)

// Marker returns the symbol used in suggestion reasoning.
func (t TriggerType) Marker() string {
	switch t {
	case TriggerPerformanceDecline:
		return "📉"
	case TriggerContractExpiry:
		return "📅"
	case TriggerOverdueReview:
		return "⏰"
	case TriggerLowRating:
		return "⭐"
	case TriggerCompanyEvent:
		return "🏢"
	default:
		return "•"
	}
}

// Severity grades how strongly a trigger fired.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Trigger is a single reason to schedule a call.
type Trigger struct {
	Type            TriggerType `json:"type"`
	Severity        Severity    `json:"severity"`
	Description     string      `json:"description"`
	DaysUntilAction *int        `json:"daysUntilAction,omitempty"`
}

// CountBySeverity returns how many triggers carry the given severity.
func CountBySeverity(triggers []Trigger, s Severity) int {
	n := 0
	for _, t := range triggers {
		if t.Severity == s {
			n++
		}
	}
	return n
}

// FindTrigger returns the first trigger of type tt.
func FindTrigger(triggers []Trigger, tt TriggerType) (Trigger, bool) {
	for _, t := range triggers {
		if t.Type == tt {
			return t, true
		}
	}
	return Trigger{}, false
}
