package domain_test

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/calltracker/internal/scheduling/domain"
	sharedDomain "github.com/felixgeelhaar/calltracker/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestion_LifecycleEvents(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("accept", func(t *testing.T) {
		s := domain.NewSuggestion(uuid.New(), "Giulia Rossi", sampleAssessment(now), now)
		require.NoError(t, s.Accept(now))

		events := s.DomainEvents()
		require.Len(t, events, 1)
		accepted, ok := events[0].(*domain.SuggestionAcceptedEvent)
		require.True(t, ok, "got %T", events[0])
		assert.Equal(t, domain.RoutingKeySuggestionAccepted, accepted.RoutingKey())
		assert.Equal(t, s.ID(), accepted.AggregateID())
		assert.Equal(t, s.EmployeeID(), accepted.EmployeeID)
		assert.Equal(t, "high", accepted.Priority)
		assert.Equal(t, domain.SuggestionAccepted, s.Status())
	})

	t.Run("dismiss", func(t *testing.T) {
		s := domain.NewSuggestion(uuid.New(), "Giulia Rossi", sampleAssessment(now), now)
		require.NoError(t, s.Dismiss("già sentita", now))

		events := s.DomainEvents()
		require.Len(t, events, 1)
		dismissed, ok := events[0].(*domain.SuggestionDismissedEvent)
		require.True(t, ok, "got %T", events[0])
		assert.Equal(t, domain.RoutingKeySuggestionDismissed, dismissed.RoutingKey())
		assert.Equal(t, "già sentita", dismissed.Reason)
		assert.Equal(t, domain.SuggestionDismissed, s.Status())
	})
}

func TestNewCallAutoScheduled(t *testing.T) {
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	s := domain.NewSuggestion(uuid.New(), "Giulia Rossi", sampleAssessment(now), now)
	callID := uuid.New()

	var event sharedDomain.DomainEvent = domain.NewCallAutoScheduled(callID, now.AddDate(0, 0, 3), s, now)

	assert.Equal(t, domain.RoutingKeyCallAutoScheduled, event.RoutingKey())
	assert.Equal(t, callID, event.AggregateID())
	assert.Equal(t, domain.CallAggregateType, event.AggregateType())
}
