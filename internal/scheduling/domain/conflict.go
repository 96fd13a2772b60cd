package domain

import (
	"time"

	"github.com/google/uuid"
)

// MinGap is the minimum spacing required between two calls.
const MinGap = 25 * time.Minute

// TimeRange represents a time period with start and end.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Padded widens the range by gap on both sides.
func (t TimeRange) Padded(gap time.Duration) TimeRange {
	return TimeRange{Start: t.Start.Add(-gap), End: t.End.Add(gap)}
}

// Overlaps checks if two time ranges overlap.
func (t TimeRange) Overlaps(other TimeRange) bool {
	return t.Start.Before(other.End) && other.Start.Before(t.End)
}

// ConflictsWith reports whether two ranges are closer than gap.
// The relation is symmetric.
func (t TimeRange) ConflictsWith(other TimeRange, gap time.Duration) bool {
	return t.Overlaps(other.Padded(gap))
}

// ConflictGroup is a set of calls linked by gap violations.
type ConflictGroup struct {
	CallIDs []uuid.UUID `json:"call_ids"`
	Start   time.Time   `json:"start"`
	End     time.Time   `json:"end"`
}

// Size returns the number of calls in the group.
func (g ConflictGroup) Size() int {
	return len(g.CallIDs)
}

// Contains reports whether the group holds the given call.
func (g ConflictGroup) Contains(id uuid.UUID) bool {
	for _, callID := range g.CallIDs {
		if callID == id {
			return true
		}
	}
	return false
}
