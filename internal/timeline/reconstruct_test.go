package timeline

import (
	"testing"
	"time"

	"github.com/tmeier/occuboard/backend/internal/types"
)

func at(h, m int) time.Time {
	return time.Date(2026, 8, 20, h, m, 0, 0, time.UTC)
}

func slotAt(index, fromH, fromM, toH, toM int) types.Slot {
	return types.Slot{Index: index, Start: at(fromH, fromM), End: at(toH, toM)}
}

func ev(h, m int, state string) types.NormalizedEvent {
	return types.NormalizedEvent{Time: at(h, m), State: state}
}

// checkTotality verifies the emitted intervals tile the slot exactly.
func checkTotality(t *testing.T, intervals []types.StateInterval, slot types.Slot) {
	t.Helper()
	if len(intervals) == 0 {
		t.Fatal("expected at least one interval")
	}
	if !intervals[0].Start.Equal(slot.Start) {
		t.Errorf("first interval starts at %v, want %v", intervals[0].Start, slot.Start)
	}
	if !intervals[len(intervals)-1].End.Equal(slot.End) {
		t.Errorf("last interval ends at %v, want %v", intervals[len(intervals)-1].End, slot.End)
	}
	var total time.Duration
	for i, iv := range intervals {
		if i > 0 && !iv.Start.Equal(intervals[i-1].End) {
			t.Errorf("gap or overlap between interval %d and %d", i-1, i)
		}
		total += iv.Duration()
	}
	if total != slot.Duration() {
		t.Errorf("interval durations sum to %v, want %v", total, slot.Duration())
	}
}

func TestReconstructNoEventsNoCarry(t *testing.T) {
	slot := slotAt(0, 10, 0, 11, 0)

	intervals, carry := Reconstruct(nil, slot, nil)

	checkTotality(t, intervals, slot)
	if len(intervals) != 1 {
		t.Fatalf("expected 1 interval, got %d", len(intervals))
	}
	if intervals[0].State != types.StateNoActivity {
		t.Errorf("expected %q, got %q", types.StateNoActivity, intervals[0].State)
	}
	if carry != nil {
		t.Errorf("expected nil carry, got %+v", carry)
	}
}

func TestReconstructNoEventsWithCarry(t *testing.T) {
	slot := slotAt(1, 11, 0, 12, 0)
	carryIn := &types.CarryState{State: "Login", At: at(11, 0)}

	intervals, carry := Reconstruct(nil, slot, carryIn)

	checkTotality(t, intervals, slot)
	if len(intervals) != 1 {
		t.Fatalf("expected 1 interval, got %d", len(intervals))
	}
	if intervals[0].State != "Login" {
		t.Errorf("expected carried state Login, got %q", intervals[0].State)
	}
	if !intervals[0].Open {
		t.Error("expected full-slot carried interval to be open")
	}
	if carry == nil || carry.State != "Login" || !carry.At.Equal(slot.End) {
		t.Errorf("expected carry Login@%v, got %+v", slot.End, carry)
	}
}

func TestReconstructExampleSlot(t *testing.T) {
	// Agent events (10:40 Login), (11:15 lunch), (13:00 Login); no carry-in
	// for slot 10:30-11:00.
	events := []types.NormalizedEvent{
		ev(10, 40, "Login"),
		ev(11, 15, "lunch"),
		ev(13, 0, "Login"),
	}
	slot := types.Slot{Index: 0, Start: at(10, 30), End: at(11, 0)}

	intervals, carry := Reconstruct(events, slot, nil)

	checkTotality(t, intervals, slot)
	if len(intervals) != 2 {
		t.Fatalf("expected 2 intervals, got %d", len(intervals))
	}
	if intervals[0].State != types.StateNoActivity || !intervals[0].End.Equal(at(10, 40)) {
		t.Errorf("expected No Activity until 10:40, got %+v", intervals[0])
	}
	if intervals[1].State != "Login" || !intervals[1].Open {
		t.Errorf("expected open Login interval, got %+v", intervals[1])
	}
	if carry == nil || carry.State != "Login" || !carry.At.Equal(slot.End) {
		t.Errorf("expected carry Login@11:00, got %+v", carry)
	}
}

func TestReconstructCarryAcrossSlots(t *testing.T) {
	// The carry correctness property: a state open at the end of slot i
	// opens slot i+1.
	events := []types.NormalizedEvent{
		ev(10, 40, "Login"),
		ev(12, 15, "lunch"),
	}
	slots := []types.Slot{
		slotAt(0, 10, 30, 11, 0),
		slotAt(1, 11, 0, 12, 0),
		slotAt(2, 12, 0, 13, 0),
	}

	var carry *types.CarryState
	var all [][]types.StateInterval
	for _, slot := range slots {
		var intervals []types.StateInterval
		intervals, carry = Reconstruct(events, slot, carry)
		checkTotality(t, intervals, slot)
		all = append(all, intervals)
	}

	// Slot 1 has no events: one full-slot Login interval from the carry.
	if len(all[1]) != 1 || all[1][0].State != "Login" {
		t.Errorf("expected slot 1 fully Login, got %+v", all[1])
	}
	// Slot 2 starts with carried Login until lunch at 12:15.
	if all[2][0].State != "Login" || !all[2][0].End.Equal(at(12, 15)) {
		t.Errorf("expected slot 2 to open with Login until 12:15, got %+v", all[2][0])
	}
	if all[2][1].State != "lunch" || !all[2][1].Open {
		t.Errorf("expected slot 2 to end with open lunch, got %+v", all[2][1])
	}
	if carry == nil || carry.State != "lunch" {
		t.Errorf("expected final carry lunch, got %+v", carry)
	}
}

func TestReconstructEventAtSlotStart(t *testing.T) {
	events := []types.NormalizedEvent{ev(11, 0, "Not Available")}
	slot := slotAt(1, 11, 0, 12, 0)
	carryIn := &types.CarryState{State: "Login", At: at(11, 0)}

	intervals, carry := Reconstruct(events, slot, carryIn)

	checkTotality(t, intervals, slot)
	// No leading carry interval: the event replaces the carried state at
	// the slot boundary.
	if len(intervals) != 1 || intervals[0].State != "Not Available" {
		t.Fatalf("expected single Not Available interval, got %+v", intervals)
	}
	if carry.State != "Not Available" {
		t.Errorf("expected carry Not Available, got %q", carry.State)
	}
}

func TestReconstructZeroDurationInterval(t *testing.T) {
	// Two events at the same instant: feed order wins, the first becomes a
	// zero-duration interval.
	events := []types.NormalizedEvent{
		ev(11, 15, "lunch"),
		ev(11, 15, "Login"),
	}
	slot := slotAt(0, 11, 0, 12, 0)
	carryIn := &types.CarryState{State: "Login", At: at(11, 0)}

	intervals, _ := Reconstruct(events, slot, carryIn)

	checkTotality(t, intervals, slot)
	// carried Login, zero-duration lunch, Login to slot end: the zero
	// duration lunch keeps carried Login and trailing Login from merging.
	if len(intervals) != 3 {
		t.Fatalf("expected 3 intervals, got %d: %+v", len(intervals), intervals)
	}
	if intervals[1].State != "lunch" || intervals[1].Duration() != 0 {
		t.Errorf("expected zero-duration lunch interval, got %+v", intervals[1])
	}
}

func TestReconstructIgnoresOutOfSlotEvents(t *testing.T) {
	events := []types.NormalizedEvent{
		ev(9, 0, "Login"),
		ev(11, 30, "lunch"),
		ev(14, 0, "Login"),
	}
	slot := slotAt(0, 11, 0, 12, 0)

	intervals, carry := Reconstruct(events, slot, nil)

	checkTotality(t, intervals, slot)
	if len(intervals) != 2 {
		t.Fatalf("expected 2 intervals, got %d", len(intervals))
	}
	if intervals[0].State != types.StateNoActivity {
		t.Errorf("expected leading No Activity, got %q", intervals[0].State)
	}
	if carry.State != "lunch" {
		t.Errorf("expected carry lunch, got %q", carry.State)
	}
}

func TestConsolidate(t *testing.T) {
	tests := []struct {
		name string
		in   []types.StateInterval
		want int
	}{
		{
			"adjacent same state merged",
			[]types.StateInterval{
				{State: "Login", Start: at(10, 0), End: at(10, 30)},
				{State: "Login", Start: at(10, 30), End: at(11, 0)},
			},
			1,
		},
		{
			"different states kept",
			[]types.StateInterval{
				{State: "Login", Start: at(10, 0), End: at(10, 30)},
				{State: "lunch", Start: at(10, 30), End: at(11, 0)},
			},
			2,
		},
		{
			"merge run of three",
			[]types.StateInterval{
				{State: "Login", Start: at(10, 0), End: at(10, 10)},
				{State: "Login", Start: at(10, 10), End: at(10, 20)},
				{State: "Login", Start: at(10, 20), End: at(11, 0)},
			},
			1,
		},
		{"single interval untouched", []types.StateInterval{{State: "Login", Start: at(10, 0), End: at(11, 0)}}, 1},
		{"empty", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Consolidate(tt.in)
			if len(got) != tt.want {
				t.Fatalf("expected %d intervals, got %d", tt.want, len(got))
			}
			if tt.want == 1 && len(tt.in) > 1 {
				if !got[0].Start.Equal(tt.in[0].Start) || !got[0].End.Equal(tt.in[len(tt.in)-1].End) {
					t.Errorf("merged interval spans %v-%v, want %v-%v",
						got[0].Start, got[0].End, tt.in[0].Start, tt.in[len(tt.in)-1].End)
				}
			}
		})
	}
}

func TestConsolidateKeepsOpenFlag(t *testing.T) {
	in := []types.StateInterval{
		{State: "Login", Start: at(10, 0), End: at(10, 30)},
		{State: "Login", Start: at(10, 30), End: at(11, 0), Open: true},
	}

	got := Consolidate(in)

	if len(got) != 1 {
		t.Fatalf("expected 1 interval, got %d", len(got))
	}
	if !got[0].Open {
		t.Error("merged interval with an open member must stay open")
	}
}
