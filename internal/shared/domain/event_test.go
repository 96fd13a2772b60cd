package domain_test

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/calltracker/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewBaseEvent(t *testing.T) {
	aggregateID := uuid.New()
	at := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	event := domain.NewBaseEvent(aggregateID, "Suggestion", "scheduling.suggestion.accepted", at)

	assert.NotEqual(t, uuid.Nil, event.EventID())
	assert.Equal(t, aggregateID, event.AggregateID())
	assert.Equal(t, "Suggestion", event.AggregateType())
	assert.Equal(t, "scheduling.suggestion.accepted", event.RoutingKey())
	assert.Equal(t, at, event.OccurredAt())
}

func TestBaseEvent_SetMetadata(t *testing.T) {
	event := domain.NewBaseEvent(uuid.New(), "Call", "scheduling.call.auto_scheduled", time.Now())
	event.SetMetadata(domain.EventMetadata{CorrelationID: "corr-1", CausationID: "cause-1"})

	assert.Equal(t, "corr-1", event.Metadata().CorrelationID)
	assert.Equal(t, "cause-1", event.Metadata().CausationID)
}
