package domain

import (
	"time"

	"github.com/google/uuid"
)

// ruleNamespace derives stable IDs for the built-in rules.
var ruleNamespace = uuid.MustParse("5f0e4c1e-6a43-4a53-9f5e-7d2f0b8b1c11")

// RuleCondition is a threshold over an employee field.
type RuleCondition struct {
	Field    string  `json:"field"`
	Operator string  `json:"operator"`
	Value    float64 `json:"value"`
}

// SchedulingRule is a named preset mapping a condition to a priority.
// Rules are informational; trigger analysis does not evaluate them.
type SchedulingRule struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Condition   RuleCondition `json:"condition"`
	Priority    Priority      `json:"priority"`
	Enabled     bool          `json:"enabled"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// DefaultRules returns the two presets seeded on first load.
func DefaultRules(now time.Time) []*SchedulingRule {
	return []*SchedulingRule{
		{
			ID:          uuid.NewSHA1(ruleNamespace, []byte("performance-critical")),
			Name:        "Performance critica",
			Description: "Call urgente quando il performance score scende sotto 4",
			Condition:   RuleCondition{Field: "performanceScore", Operator: "<", Value: 4},
			Priority:    PriorityUrgent,
			Enabled:     true,
			CreatedAt:   now.UTC(),
		},
		{
			ID:          uuid.NewSHA1(ruleNamespace, []byte("contract-expiry")),
			Name:        "Scadenza contratto",
			Description: "Call prioritaria quando il contratto scade entro 30 giorni",
			Condition:   RuleCondition{Field: "contractExpiryDays", Operator: "<=", Value: 30},
			Priority:    PriorityHigh,
			Enabled:     true,
			CreatedAt:   now.UTC(),
		},
	}
}
