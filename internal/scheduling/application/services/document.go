package services

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/felixgeelhaar/calltracker/internal/scheduling/domain"
	sharedDomain "github.com/felixgeelhaar/calltracker/internal/shared/domain"
	"github.com/google/uuid"
)

type documentRepository[T any] interface {
	LoadAll(ctx context.Context) ([]T, error)
	SaveAll(ctx context.Context, items []T) error
}

// document is a lazily loaded, whole-collection persisted list. Until a
// load succeeds, changes live only in memory and are not written back, so a
// storage outage never overwrites stored data with a partial view.
//
// When a load finally succeeds after changes were made in memory, merge
// combines the stored items with the in-memory ones. Without a merge func
// the stored items replace the in-memory state. Items removed in memory
// during an outage reappear if storage still holds them.
type document[T any] struct {
	key    string
	repo   documentRepository[T]
	merge  func(stored, local []T) []T
	items  []T
	loaded bool
}

func (d *document[T]) ensure(ctx context.Context, logger *slog.Logger) {
	if d.loaded || d.repo == nil {
		return
	}

	items, err := d.repo.LoadAll(ctx)
	switch {
	case err == nil:
	case errors.Is(err, sharedDomain.ErrMalformedRecord):
		logger.Error("skipping malformed scheduling records",
			"key", d.key,
			"kept", len(items),
			"error", err,
		)
	default:
		logger.Warn("scheduling data unavailable, using in-memory state",
			"key", d.key,
			"error", err,
		)
		return
	}

	if len(d.items) > 0 {
		if d.merge != nil {
			items = d.merge(items, d.items)
			logger.Info("merged in-memory scheduling changes with stored data",
				"key", d.key,
				"items", len(items),
			)
		} else {
			logger.Warn("discarding in-memory scheduling changes in favour of stored data",
				"key", d.key,
				"discarded", len(d.items),
			)
		}
	}
	d.items = items
	d.loaded = true
}

func (d *document[T]) persist(ctx context.Context, logger *slog.Logger) {
	if d.repo == nil {
		return
	}
	if !d.loaded {
		logger.Warn("scheduling data not loaded, keeping changes in memory", "key", d.key)
		return
	}
	if err := d.repo.SaveAll(ctx, d.items); err != nil {
		logger.Warn("failed to persist scheduling data",
			"key", d.key,
			"error", err,
		)
	}
}

// mergeSuggestions overlays suggestions changed in memory on the stored
// ones. A local suggestion replaces the stored one with the same ID. A new
// local pending suggestion is dropped when storage already holds a pending
// one for the same employee, keeping one pending suggestion per employee.
func mergeSuggestions(stored, local []*domain.Suggestion) []*domain.Suggestion {
	merged := slices.Clone(stored)
	index := make(map[uuid.UUID]int, len(merged))
	pending := make(map[uuid.UUID]bool, len(merged))
	for i, s := range merged {
		index[s.ID()] = i
		if s.IsPending() {
			pending[s.EmployeeID()] = true
		}
	}
	for _, s := range local {
		if i, ok := index[s.ID()]; ok {
			merged[i] = s
			continue
		}
		if s.IsPending() && pending[s.EmployeeID()] {
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

// mergeCompanyEvents keeps every stored event, replacing those changed in
// memory and appending events created during the outage.
func mergeCompanyEvents(stored, local []*domain.CompanyEvent) []*domain.CompanyEvent {
	merged := slices.Clone(stored)
	index := make(map[uuid.UUID]int, len(merged))
	for i, e := range merged {
		index[e.ID()] = i
	}
	for _, e := range local {
		if i, ok := index[e.ID()]; ok {
			merged[i] = e
			continue
		}
		merged = append(merged, e)
	}
	return merged
}
