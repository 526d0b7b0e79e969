package report

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/tmeier/occuboard/backend/internal/slots"
	"github.com/tmeier/occuboard/backend/internal/types"
)

func testAssembler() *Assembler {
	return NewAssembler(zerolog.New(&bytes.Buffer{}))
}

func at(h, m int) time.Time {
	return time.Date(2026, 8, 20, h, m, 0, 0, time.UTC)
}

func mustPartition(t *testing.T, start, end time.Time) []types.Slot {
	t.Helper()
	s, err := slots.Partition(start, end, time.Hour)
	if err != nil {
		t.Fatalf("partition failed: %v", err)
	}
	return s
}

func eventsFor(username, extension string, evs ...types.NormalizedEvent) map[string]*types.AgentEvents {
	return map[string]*types.AgentEvents{
		username: {Username: username, Extension: extension, Events: evs},
	}
}

func TestAssembleSingleAgent(t *testing.T) {
	// Window 10:30-14:45 hourly, the agent logs in mid-first-slot.
	window := mustPartition(t, at(10, 30), at(14, 45))
	aggs := []types.AgentAggregate{{
		Username:      "anna",
		Extension:     "1001",
		TotalCalls:    9,
		AnsweredCalls: 7,
		OnCallTime:    3600,
	}}
	events := eventsFor("anna", "1001",
		types.NormalizedEvent{Time: at(10, 40), State: "Login"},
		types.NormalizedEvent{Time: at(12, 15), State: "lunch"},
	)

	got, err := testAssembler().Assemble(context.Background(), aggs, events, window, types.AgentFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got.Records) != len(window) {
		t.Fatalf("expected %d records, got %d", len(window), len(got.Records))
	}

	// Every record's intervals tile its slot.
	var totalCalls, answered int
	for _, r := range got.Records {
		if r.Username != "anna" || r.Extension != "1001" {
			t.Errorf("unexpected identity on record: %s/%s", r.Username, r.Extension)
		}
		var d time.Duration
		for _, iv := range r.Intervals {
			d += iv.Duration()
		}
		if d != r.Slot.Duration() {
			t.Errorf("slot %d: intervals sum to %v, want %v", r.Slot.Index, d, r.Slot.Duration())
		}
		totalCalls += r.Metrics.TotalCalls
		answered += r.Metrics.Answered
	}
	if totalCalls != 9 || answered != 7 {
		t.Errorf("metrics not conserved: totalCalls %d answered %d", totalCalls, answered)
	}

	// First slot: No Activity until the 10:40 login.
	first := got.Records[0]
	if first.Intervals[0].State != types.StateNoActivity {
		t.Errorf("expected leading %q, got %q", types.StateNoActivity, first.Intervals[0].State)
	}
	// Second slot has no events: the login carries over as a full-slot
	// interval.
	second := got.Records[1]
	if len(second.Intervals) != 1 || second.Intervals[0].State != "Login" || !second.Intervals[0].Open {
		t.Errorf("expected carried open Login for slot 1, got %+v", second.Intervals)
	}

	if got.Summary.Agents != 1 || got.Summary.Slots != len(window) {
		t.Errorf("bad summary dimensions: %+v", got.Summary)
	}
	if got.Summary.TotalCalls != 9 || got.Summary.Answered != 7 || got.Summary.Failed != 2 {
		t.Errorf("bad summary counts: %+v", got.Summary)
	}
	if got.Summary.AnswerRate < 77.7 || got.Summary.AnswerRate > 77.8 {
		t.Errorf("expected answer rate ~77.78, got %v", got.Summary.AnswerRate)
	}
}

func TestAssembleEventOnlyAgent(t *testing.T) {
	// No aggregate for ben: he still gets a timeline, metrics stay zero.
	window := mustPartition(t, at(10, 0), at(12, 0))
	events := eventsFor("ben", "1002",
		types.NormalizedEvent{Time: at(10, 30), State: "Login"},
	)

	got, err := testAssembler().Assemble(context.Background(), nil, events, window, types.AgentFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got.Records))
	}
	for _, r := range got.Records {
		if r.Metrics.TotalCalls != 0 || r.Metrics.Answered != 0 {
			t.Errorf("event-only agent must have zero metrics, got %+v", r.Metrics)
		}
	}
	if got.Records[1].Intervals[0].State != "Login" {
		t.Errorf("expected carried Login in second slot, got %+v", got.Records[1].Intervals)
	}
}

func TestAssembleAggregateOnlyAgent(t *testing.T) {
	// No events for the agent: every slot is No Activity but the calls are
	// still distributed.
	window := mustPartition(t, at(10, 0), at(13, 0))
	aggs := []types.AgentAggregate{{Username: "carla", Extension: "1003", TotalCalls: 3, AnsweredCalls: 3}}

	got, err := testAssembler().Assemble(context.Background(), aggs, nil, window, types.AgentFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	total := 0
	for _, r := range got.Records {
		if len(r.Intervals) != 1 || r.Intervals[0].State != types.StateNoActivity {
			t.Errorf("slot %d: expected single No Activity interval, got %+v", r.Slot.Index, r.Intervals)
		}
		total += r.Metrics.TotalCalls
	}
	if total != 3 {
		t.Errorf("expected 3 calls distributed, got %d", total)
	}
}

func TestAssembleMultipleAgentsDeterministic(t *testing.T) {
	window := mustPartition(t, at(10, 0), at(12, 0))
	aggs := []types.AgentAggregate{
		{Username: "anna", Extension: "1001", TotalCalls: 4, AnsweredCalls: 4},
		{Username: "ben", Extension: "1002", TotalCalls: 2, AnsweredCalls: 1},
	}

	// Agents run in parallel; the output order must still be stable.
	var prev *Report
	for i := 0; i < 10; i++ {
		got, err := testAssembler().Assemble(context.Background(), aggs, nil, window, types.AgentFilter{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got.Records) != 4 {
			t.Fatalf("expected 4 records, got %d", len(got.Records))
		}
		if prev != nil {
			for j := range got.Records {
				if got.Records[j].Username != prev.Records[j].Username ||
					got.Records[j].Slot.Index != prev.Records[j].Slot.Index {
					t.Fatalf("record order changed between runs at %d", j)
				}
			}
		}
		prev = got
	}
	if prev.Summary.TotalCalls != 6 || prev.Summary.Answered != 5 {
		t.Errorf("bad summary: %+v", prev.Summary)
	}
}

func TestAssembleFilter(t *testing.T) {
	window := mustPartition(t, at(10, 0), at(11, 0))
	aggs := []types.AgentAggregate{
		{Username: "anna.schmidt", Extension: "1001", TotalCalls: 1, AnsweredCalls: 1},
		{Username: "ben.weber", Extension: "2002", TotalCalls: 1, AnsweredCalls: 1},
	}

	tests := []struct {
		name   string
		filter types.AgentFilter
		want   string
	}{
		{"by name", types.AgentFilter{Name: "schmidt"}, "anna.schmidt"},
		{"by extension", types.AgentFilter{Extension: "2002"}, "ben.weber"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := testAssembler().Assemble(context.Background(), aggs, nil, window, tt.filter)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got.Records) != 1 || got.Records[0].Username != tt.want {
				t.Errorf("expected only %s, got %+v", tt.want, got.Records)
			}
			if got.Summary.Agents != 1 {
				t.Errorf("expected 1 agent in summary, got %d", got.Summary.Agents)
			}
		})
	}
}

func TestAssembleExtensionDisagreement(t *testing.T) {
	// Stats feed says 1001, event feed says 1009: the event feed wins for
	// display, the aggregate still attaches.
	window := mustPartition(t, at(10, 0), at(11, 0))
	aggs := []types.AgentAggregate{{Username: "anna", Extension: "1001", TotalCalls: 2, AnsweredCalls: 2}}
	events := eventsFor("anna", "1009",
		types.NormalizedEvent{Time: at(10, 15), State: "Login"},
	)

	got, err := testAssembler().Assemble(context.Background(), aggs, events, window, types.AgentFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got.Records))
	}
	r := got.Records[0]
	if r.Extension != "1009" {
		t.Errorf("expected event-feed extension 1009, got %q", r.Extension)
	}
	if r.Metrics.TotalCalls != 2 {
		t.Errorf("aggregate must still attach, got %+v", r.Metrics)
	}
	if got.Summary.Agents != 1 {
		t.Errorf("extension mismatch must not split the agent, got %d agents", got.Summary.Agents)
	}
}

func TestAssembleEmptyPartition(t *testing.T) {
	if _, err := testAssembler().Assemble(context.Background(), nil, nil, nil, types.AgentFilter{}); err == nil {
		t.Error("expected error for empty slot partition")
	}
}

func TestAssembleCancelledContext(t *testing.T) {
	window := mustPartition(t, at(10, 0), at(11, 0))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := testAssembler().Assemble(ctx, nil, nil, window, types.AgentFilter{}); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestAssembleAnsweredClampedBeforeConservation(t *testing.T) {
	// Upstream reports more answered than total calls. The clamp applies
	// per slot and the conservation check compares against the clamped sum,
	// so this must not trip the rounding inconsistency error.
	window := mustPartition(t, at(10, 0), at(14, 0))
	aggs := []types.AgentAggregate{{Username: "anna", Extension: "1001", TotalCalls: 3, AnsweredCalls: 9}}

	got, err := testAssembler().Assemble(context.Background(), aggs, nil, window, types.AgentFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Summary.Answered > got.Summary.TotalCalls {
		t.Errorf("summary answered %d exceeds total %d", got.Summary.Answered, got.Summary.TotalCalls)
	}
}
