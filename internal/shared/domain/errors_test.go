package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/felixgeelhaar/calltracker/internal/shared/domain"
	"github.com/stretchr/testify/assert"
)

func TestErrorKinds_Wrapping(t *testing.T) {
	errSuggestionNotFound := fmt.Errorf("suggestion %w", domain.ErrNotFound)
	wrapped := fmt.Errorf("accept: %w", errSuggestionNotFound)

	assert.True(t, errors.Is(wrapped, domain.ErrNotFound))
	assert.False(t, errors.Is(wrapped, domain.ErrStorageUnavailable))
	assert.False(t, errors.Is(wrapped, domain.ErrMalformedRecord))
}
