package slots

import (
	"errors"
	"time"

	"github.com/tmeier/occuboard/backend/internal/types"
)

// DefaultAlignment is the slot granularity used when the caller does not
// request one.
const DefaultAlignment = time.Hour

// ErrInvalidWindow is returned when the window end is not after its start.
var ErrInvalidWindow = errors.New("invalid window: end must be after start")

// Partition splits [start, end) into ordered, contiguous slots. The first
// slot runs from start to the next alignment boundary (or to end, whichever
// comes first); every following slot runs one alignment unit, and the last
// is truncated to end. Slots of zero duration are never emitted, so the
// durations always sum to exactly end-start.
func Partition(start, end time.Time, alignment time.Duration) ([]types.Slot, error) {
	if !end.After(start) {
		return nil, ErrInvalidWindow
	}
	if alignment <= 0 {
		alignment = DefaultAlignment
	}

	var out []types.Slot
	cur := start
	next := nextBoundary(start, alignment)
	for cur.Before(end) {
		if next.After(end) {
			next = end
		}
		out = append(out, types.Slot{Index: len(out), Start: cur, End: next})
		cur = next
		next = cur.Add(alignment)
	}
	return out, nil
}

// nextBoundary returns the first alignment boundary strictly after t,
// measured on t's local wall clock. Truncating against the UTC epoch would
// misplace boundaries in fractional-offset timezones (hourly slots in a
// +5:30 zone must start at the local top of the hour, not at :30).
func nextBoundary(t time.Time, alignment time.Duration) time.Time {
	year, month, day := t.Date()
	midnight := time.Date(year, month, day, 0, 0, 0, 0, t.Location())
	return midnight.Add(t.Sub(midnight).Truncate(alignment) + alignment)
}

// WindowDuration returns the summed duration of a partition.
func WindowDuration(slots []types.Slot) time.Duration {
	var total time.Duration
	for _, s := range slots {
		total += s.Duration()
	}
	return total
}
