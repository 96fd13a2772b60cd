// Package convert holds overflow-safe integer conversions for config values
// and retry counters.
package convert

import "math"

// IntToUint32Clamped converts v to uint32, clamping to [0, MaxUint32].
// Used for thresholds read from the environment.
func IntToUint32Clamped(v int) uint32 {
	if v < 0 {
		return 0
	}
	if uint64(v) > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(v)
}

// ShiftClamped returns 1<<n as a multiplier, with n clamped to [0, max].
func ShiftClamped(n, max int) int64 {
	if n < 0 {
		n = 0
	}
	if n > max {
		n = max
	}
	return int64(1) << uint(n)
}
