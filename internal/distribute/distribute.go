package distribute

import (
	"math"
	"time"

	"github.com/tmeier/occuboard/backend/internal/types"
)

// Distribute apportions one agent's window aggregate onto a single slot,
// weighted by the slot's share of the total window duration.
//
// Shares are computed by cumulative rounding: a slot receives
// round(v*W(through)) - round(v*W(before)), where W is the duration-weight
// prefix sum over the ordered partition. Summed over all slots this
// reproduces the aggregate exactly, so any non-zero aggregate lands in at
// least one slot and small counts are never rounded away. Count shares can
// still disagree between fields, so answered is clamped to totalCalls
// defensively (the input invariant answered <= total is not assumed).
//
// Average handle time is a window-level rate, not an additive quantity: it
// is computed once from the aggregate and repeated on every slot.
func Distribute(agg types.AgentAggregate, slot types.Slot, allSlots []types.Slot) types.SlotMetrics {
	before, through := weights(slot, allSlots)

	total := countShare(agg.TotalCalls, before, through)
	answered := countShare(agg.AnsweredCalls, before, through)
	if answered > total {
		answered = total
	}
	failed := total - answered
	if failed < 0 {
		failed = 0
	}

	return types.SlotMetrics{
		TotalCalls:       total,
		Answered:         answered,
		Failed:           failed,
		WrapUpTime:       durationShare(agg.WrapUpTime, before, through),
		HoldTime:         durationShare(agg.HoldTime, before, through),
		OnCallTime:       durationShare(agg.OnCallTime, before, through),
		NotAvailableTime: durationShare(agg.NotAvailableTime, before, through),
		AvgHandleTime:    AvgHandleTime(agg),
	}
}

// AvgHandleTime derives the window-level average handle time from an
// aggregate: (on-call + wrap-up + hold) per answered-or-not call.
func AvgHandleTime(agg types.AgentAggregate) float64 {
	if agg.TotalCalls <= 0 {
		return 0
	}
	return (agg.OnCallTime + agg.WrapUpTime + agg.HoldTime) / float64(agg.TotalCalls)
}

// weights returns the window-duration fraction strictly before the slot and
// through its end.
func weights(slot types.Slot, allSlots []types.Slot) (before, through float64) {
	var total, prefix time.Duration
	for _, s := range allSlots {
		total += s.Duration()
		if s.Index < slot.Index {
			prefix += s.Duration()
		}
	}
	if total <= 0 {
		return 0, 0
	}
	before = float64(prefix) / float64(total)
	through = float64(prefix+slot.Duration()) / float64(total)
	return before, through
}

func countShare(v int, before, through float64) int {
	if v <= 0 {
		return 0
	}
	return int(math.Round(float64(v)*through)) - int(math.Round(float64(v)*before))
}

func durationShare(v float64, before, through float64) float64 {
	if v <= 0 {
		return 0
	}
	return math.Round(v*through) - math.Round(v*before)
}
