package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/felixgeelhaar/calltracker/internal/scheduling/domain"
	"github.com/felixgeelhaar/calltracker/internal/shared/infrastructure/kvstore"
	"github.com/google/uuid"
)

var errMissingID = errors.New("record has no id")

type suggestionRecord struct {
	ID            uuid.UUID               `json:"id"`
	EmployeeID    uuid.UUID               `json:"employeeId"`
	EmployeeName  string                  `json:"employeeName"`
	Triggers      []domain.Trigger        `json:"triggers"`
	Priority      domain.Priority         `json:"priority"`
	SuggestedDate time.Time               `json:"suggestedDate"`
	Confidence    float64                 `json:"confidence"`
	Reasoning     []string                `json:"reasoning"`
	Status        domain.SuggestionStatus `json:"status"`
	DismissReason string                  `json:"dismissReason,omitempty"`
	CreatedAt     time.Time               `json:"createdAt"`
	UpdatedAt     time.Time               `json:"updatedAt"`
}

func toSuggestionRecord(s *domain.Suggestion) suggestionRecord {
	return suggestionRecord{
		ID:            s.ID(),
		EmployeeID:    s.EmployeeID(),
		EmployeeName:  s.EmployeeName(),
		Triggers:      s.Triggers(),
		Priority:      s.Priority(),
		SuggestedDate: s.SuggestedDate(),
		Confidence:    s.Confidence(),
		Reasoning:     s.Reasoning(),
		Status:        s.Status(),
		DismissReason: s.DismissReason(),
		CreatedAt:     s.CreatedAt(),
		UpdatedAt:     s.UpdatedAt(),
	}
}

func toSuggestion(r suggestionRecord) (*domain.Suggestion, error) {
	if r.ID == uuid.Nil || r.EmployeeID == uuid.Nil {
		return nil, errMissingID
	}
	status := r.Status
	if status == "" {
		status = domain.SuggestionPending
	}
	return domain.RehydrateSuggestion(
		r.ID,
		r.EmployeeID,
		r.EmployeeName,
		domain.Assessment{
			Triggers:      r.Triggers,
			Priority:      r.Priority,
			SuggestedDate: r.SuggestedDate,
			Confidence:    r.Confidence,
			Reasoning:     r.Reasoning,
		},
		status,
		r.DismissReason,
		r.CreatedAt,
		r.UpdatedAt,
	), nil
}

// KVSuggestionRepository stores suggestions under the scheduling-suggestions key.
type KVSuggestionRepository struct {
	doc kvDocument[suggestionRecord, *domain.Suggestion]
}

// NewKVSuggestionRepository creates a suggestion repository over store.
func NewKVSuggestionRepository(store kvstore.Store) *KVSuggestionRepository {
	return &KVSuggestionRepository{doc: kvDocument[suggestionRecord, *domain.Suggestion]{
		store:    store,
		key:      domain.KeySchedulingSuggestions,
		toRecord: toSuggestionRecord,
		toDomain: toSuggestion,
	}}
}

func (r *KVSuggestionRepository) LoadAll(ctx context.Context) ([]*domain.Suggestion, error) {
	return r.doc.load(ctx)
}

func (r *KVSuggestionRepository) SaveAll(ctx context.Context, suggestions []*domain.Suggestion) error {
	return r.doc.save(ctx, suggestions)
}

type companyEventRecord struct {
	ID                  uuid.UUID               `json:"id"`
	Title               string                  `json:"title"`
	Type                domain.CompanyEventType `json:"type"`
	Date                time.Time               `json:"date"`
	ImpactsScheduling   bool                    `json:"impactsScheduling"`
	AffectedEmployees   []uuid.UUID             `json:"affectedEmployees,omitempty"`
	AffectedDepartments []string                `json:"affectedDepartments,omitempty"`
	Description         string                  `json:"description,omitempty"`
	CreatedAt           time.Time               `json:"createdAt"`
	UpdatedAt           time.Time               `json:"updatedAt"`
}

func toCompanyEventRecord(e *domain.CompanyEvent) companyEventRecord {
	return companyEventRecord{
		ID:                  e.ID(),
		Title:               e.Title(),
		Type:                e.Type(),
		Date:                e.Date(),
		ImpactsScheduling:   e.ImpactsScheduling(),
		AffectedEmployees:   e.AffectedEmployees(),
		AffectedDepartments: e.AffectedDepartments(),
		Description:         e.Description(),
		CreatedAt:           e.CreatedAt(),
		UpdatedAt:           e.UpdatedAt(),
	}
}

func toCompanyEvent(r companyEventRecord) (*domain.CompanyEvent, error) {
	if r.ID == uuid.Nil {
		return nil, errMissingID
	}
	return domain.RehydrateCompanyEvent(r.ID, domain.CompanyEventInput{
		Title:               r.Title,
		Type:                r.Type,
		Date:                r.Date,
		ImpactsScheduling:   r.ImpactsScheduling,
		AffectedEmployees:   r.AffectedEmployees,
		AffectedDepartments: r.AffectedDepartments,
		Description:         r.Description,
	}, r.CreatedAt, r.UpdatedAt), nil
}

// KVCompanyEventRepository stores company events under the company-events key.
type KVCompanyEventRepository struct {
	doc kvDocument[companyEventRecord, *domain.CompanyEvent]
}

// NewKVCompanyEventRepository creates a company event repository over store.
func NewKVCompanyEventRepository(store kvstore.Store) *KVCompanyEventRepository {
	return &KVCompanyEventRepository{doc: kvDocument[companyEventRecord, *domain.CompanyEvent]{
		store:    store,
		key:      domain.KeyCompanyEvents,
		toRecord: toCompanyEventRecord,
		toDomain: toCompanyEvent,
	}}
}

func (r *KVCompanyEventRepository) LoadAll(ctx context.Context) ([]*domain.CompanyEvent, error) {
	return r.doc.load(ctx)
}

func (r *KVCompanyEventRepository) SaveAll(ctx context.Context, events []*domain.CompanyEvent) error {
	return r.doc.save(ctx, events)
}

// KVRuleRepository stores rules under the scheduling-rules key. Rules are
// plain data, so they are stored as-is.
type KVRuleRepository struct {
	doc kvDocument[domain.SchedulingRule, *domain.SchedulingRule]
}

// NewKVRuleRepository creates a rule repository over store.
func NewKVRuleRepository(store kvstore.Store) *KVRuleRepository {
	return &KVRuleRepository{doc: kvDocument[domain.SchedulingRule, *domain.SchedulingRule]{
		store:    store,
		key:      domain.KeySchedulingRules,
		toRecord: func(r *domain.SchedulingRule) domain.SchedulingRule { return *r },
		toDomain: func(r domain.SchedulingRule) (*domain.SchedulingRule, error) {
			if r.ID == uuid.Nil {
				return nil, errMissingID
			}
			return &r, nil
		},
	}}
}

func (r *KVRuleRepository) LoadAll(ctx context.Context) ([]*domain.SchedulingRule, error) {
	return r.doc.load(ctx)
}

func (r *KVRuleRepository) SaveAll(ctx context.Context, rules []*domain.SchedulingRule) error {
	return r.doc.save(ctx, rules)
}
