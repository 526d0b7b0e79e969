package timeline

import (
	"github.com/tmeier/occuboard/backend/internal/types"
)

// Reconstruct turns one agent's events into a gap-free list of state
// intervals for a single slot, threading the state that was in effect at
// the previous slot's end.
//
// The emitted intervals always tile [slot.Start, slot.End) exactly:
//
//   - no events, carry present: one interval in the carried state
//   - no events, no carry: one "No Activity" sentinel interval
//   - events present: a lead-in interval up to the first event (carried
//     state if known, sentinel otherwise), then one interval per event
//     closed at the next event (or the slot end for the last one)
//
// The returned carry is the state still open at slot.End, or nil when
// nothing is known about the agent yet. Callers must feed slots in
// ascending order per agent or the carry hand-off is meaningless.
//
// Events are expected sorted ascending; those outside [slot.Start, slot.End)
// are ignored. Events sharing an instant produce zero-duration intervals,
// which are legal and kept.
func Reconstruct(events []types.NormalizedEvent, slot types.Slot, carry *types.CarryState) ([]types.StateInterval, *types.CarryState) {
	inSlot := events[:0:0]
	for _, ev := range events {
		if ev.Time.Before(slot.Start) || !ev.Time.Before(slot.End) {
			continue
		}
		inSlot = append(inSlot, ev)
	}

	if len(inSlot) == 0 {
		if carry == nil {
			return []types.StateInterval{{
				State: types.StateNoActivity,
				Start: slot.Start,
				End:   slot.End,
			}}, nil
		}
		return []types.StateInterval{{
			State: carry.State,
			Start: slot.Start,
			End:   slot.End,
			Open:  true,
		}}, &types.CarryState{State: carry.State, At: slot.End}
	}

	var intervals []types.StateInterval
	if inSlot[0].Time.After(slot.Start) {
		// Lead-in up to the first event: the carried state when one is
		// known, the sentinel otherwise.
		lead := types.StateNoActivity
		if carry != nil {
			lead = carry.State
		}
		intervals = append(intervals, types.StateInterval{
			State: lead,
			Start: slot.Start,
			End:   inSlot[0].Time,
		})
	}
	for i, ev := range inSlot {
		end := slot.End
		open := true
		if i+1 < len(inSlot) {
			end = inSlot[i+1].Time
			open = false
		}
		intervals = append(intervals, types.StateInterval{
			State: ev.State,
			Start: ev.Time,
			End:   end,
			Open:  open,
		})
	}

	last := inSlot[len(inSlot)-1]
	carryOut := &types.CarryState{State: last.State, At: slot.End}
	return Consolidate(intervals), carryOut
}

// Consolidate merges adjacent intervals that share a state label. The
// merged interval spans from the first member's start to the last member's
// end; if any member is open-ended the merged result stays open, since the
// true duration of an open occupancy is unknown rather than zero.
func Consolidate(intervals []types.StateInterval) []types.StateInterval {
	if len(intervals) < 2 {
		return intervals
	}
	out := intervals[:1]
	for _, iv := range intervals[1:] {
		prev := &out[len(out)-1]
		if iv.State == prev.State {
			prev.End = iv.End
			prev.Open = prev.Open || iv.Open
			continue
		}
		out = append(out, iv)
	}
	return out
}
