package domain

import "context"

// Storage keys for the scheduling documents.
const (
	KeySchedulingRules       = "scheduling-rules"
	KeySchedulingSuggestions = "scheduling-suggestions"
	KeyCompanyEvents         = "company-events"
)

// SuggestionRepository loads and stores the whole suggestion collection.
// LoadAll skips records it cannot decode: it returns the valid suggestions
// together with an error wrapping ErrMalformedRecord from the shared
// domain. The other repositories behave the same way.
type SuggestionRepository interface {
	LoadAll(ctx context.Context) ([]*Suggestion, error)
	SaveAll(ctx context.Context, suggestions []*Suggestion) error
}

// CompanyEventRepository loads and stores the whole company event collection.
type CompanyEventRepository interface {
	LoadAll(ctx context.Context) ([]*CompanyEvent, error)
	SaveAll(ctx context.Context, events []*CompanyEvent) error
}

// RuleRepository loads and stores the scheduling rules.
type RuleRepository interface {
	LoadAll(ctx context.Context) ([]*SchedulingRule, error)
	SaveAll(ctx context.Context, rules []*SchedulingRule) error
}
