package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sharedDomain "github.com/felixgeelhaar/calltracker/internal/shared/domain"
	"github.com/felixgeelhaar/calltracker/internal/shared/infrastructure/kvstore"
)

// kvDocument stores a whole collection as one JSON array under key. R is
// the stored record type and D the domain type.
type kvDocument[R any, D any] struct {
	store    kvstore.Store
	key      string
	toRecord func(D) R
	toDomain func(R) (D, error)
}

// load decodes the stored array record by record. Records that cannot be
// decoded are skipped: the valid ones are returned together with an error
// wrapping ErrMalformedRecord that lists every skipped record. A value that
// is not a JSON array at all yields no records.
func (d kvDocument[R, D]) load(ctx context.Context) ([]D, error) {
	raw, err := d.store.Get(ctx, d.key)
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w: %w", d.key, sharedDomain.ErrStorageUnavailable, err)
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		return nil, fmt.Errorf("decode %s: %w: %w", d.key, sharedDomain.ErrMalformedRecord, err)
	}

	out := make([]D, 0, len(elements))
	var skipped []error
	for i, element := range elements {
		item, err := d.decode(element)
		if err != nil {
			skipped = append(skipped, fmt.Errorf("%s[%d]: %w", d.key, i, err))
			continue
		}
		out = append(out, item)
	}
	if len(skipped) > 0 {
		return out, fmt.Errorf("decode %s: skipped %d of %d records: %w: %w",
			d.key, len(skipped), len(elements), sharedDomain.ErrMalformedRecord, errors.Join(skipped...))
	}
	return out, nil
}

func (d kvDocument[R, D]) decode(element json.RawMessage) (D, error) {
	var record R
	if err := json.Unmarshal(element, &record); err != nil {
		var zero D
		return zero, err
	}
	return d.toDomain(record)
}

func (d kvDocument[R, D]) save(ctx context.Context, items []D) error {
	records := make([]R, len(items))
	for i, item := range items {
		records[i] = d.toRecord(item)
	}

	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode %s: %w", d.key, err)
	}
	if err := d.store.Set(ctx, d.key, raw); err != nil {
		return fmt.Errorf("save %s: %w: %w", d.key, sharedDomain.ErrStorageUnavailable, err)
	}
	return nil
}
