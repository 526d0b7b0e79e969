package report

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"github.com/tmeier/occuboard/backend/internal/distribute"
	"github.com/tmeier/occuboard/backend/internal/timeline"
	"github.com/tmeier/occuboard/backend/internal/types"
)

// ErrRoundingInconsistency signals that the distributed per-slot metrics
// for some agent no longer sum back to that agent's aggregate within
// tolerance. The distribution algorithm conserves sums exactly, so this is
// a computation bug, never a data problem, and is surfaced rather than
// silently corrected.
var ErrRoundingInconsistency = errors.New("distributed slot metrics deviate from aggregate beyond tolerance")

// Report is the assembled response for one window: one record per
// (agent, slot) plus a window-level summary.
type Report struct {
	Records []types.ReportRecord `json:"records"`
	Summary types.ReportSummary  `json:"summary"`
}

// Assembler joins aggregates, normalized events and a slot partition into
// a Report.
type Assembler struct {
	logger zerolog.Logger
}

// NewAssembler creates a new Assembler.
func NewAssembler(logger zerolog.Logger) *Assembler {
	return &Assembler{
		logger: logger.With().Str("component", "assembler").Logger(),
	}
}

// agentInput is the resolved per-agent work unit: identity, the window
// aggregate (zero when the stats feed had none) and the event sequence
// (nil when the event feed had none).
type agentInput struct {
	username  string
	extension string
	aggregate types.AgentAggregate
	events    []types.NormalizedEvent
}

// Assemble produces the report for one window. Slots must be an ordered
// partition; eventsByAgent is keyed the way the normalizer keys agents.
// Agents are independent and processed in parallel; each agent's slots are
// processed strictly in order so the carry-over state stays valid.
func (a *Assembler) Assemble(ctx context.Context, aggs []types.AgentAggregate, eventsByAgent map[string]*types.AgentEvents, slots []types.Slot, filter types.AgentFilter) (*Report, error) {
	if len(slots) == 0 {
		return nil, fmt.Errorf("assemble: empty slot partition")
	}

	agents := a.resolveAgents(aggs, eventsByAgent, filter)

	// Per-agent fan-out: each goroutine writes only its own index, the
	// slot partition is read-only.
	results := make([][]types.ReportRecord, len(agents))
	errs := make([]error, len(agents))
	var wg sync.WaitGroup
	for i, agent := range agents {
		wg.Add(1)
		go func(i int, agent agentInput) {
			defer wg.Done()
			results[i], errs[i] = a.assembleAgent(agent, slots)
		}(i, agent)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	report := &Report{Records: make([]types.ReportRecord, 0, len(agents)*len(slots))}
	for _, records := range results {
		report.Records = append(report.Records, records...)
	}
	report.Summary = summarize(report.Records, len(agents), len(slots))

	a.logger.Debug().
		Int("agents", len(agents)).
		Int("slots", len(slots)).
		Int("records", len(report.Records)).
		Msg("report assembled")

	return report, nil
}

// assembleAgent reconstructs the timeline and distributes the aggregate for
// one agent across the ordered slots.
func (a *Assembler) assembleAgent(agent agentInput, slots []types.Slot) ([]types.ReportRecord, error) {
	records := make([]types.ReportRecord, 0, len(slots))
	var carry *types.CarryState
	var sum types.SlotMetrics

	for _, slot := range slots {
		var intervals []types.StateInterval
		intervals, carry = timeline.Reconstruct(agent.events, slot, carry)
		metrics := distribute.Distribute(agent.aggregate, slot, slots)

		sum.TotalCalls += metrics.TotalCalls
		sum.Answered += metrics.Answered
		sum.WrapUpTime += metrics.WrapUpTime
		sum.HoldTime += metrics.HoldTime
		sum.OnCallTime += metrics.OnCallTime
		sum.NotAvailableTime += metrics.NotAvailableTime

		records = append(records, types.ReportRecord{
			Username:  agent.username,
			Extension: agent.extension,
			Slot:      slot,
			Intervals: intervals,
			Metrics:   metrics,
		})
	}

	if err := checkConservation(agent, sum, len(slots)); err != nil {
		return nil, err
	}
	return records, nil
}

// checkConservation verifies the distribution invariant: per-agent slot
// sums reproduce the aggregate within one unit per slot per field.
func checkConservation(agent agentInput, sum types.SlotMetrics, slotCount int) error {
	tol := slotCount
	agg := agent.aggregate
	checks := []struct {
		field string
		got   float64
		want  float64
	}{
		{"totalCalls", float64(sum.TotalCalls), float64(agg.TotalCalls)},
		{"answered", float64(sum.Answered), float64(min(agg.AnsweredCalls, agg.TotalCalls))},
		{"wrapUpTime", sum.WrapUpTime, agg.WrapUpTime},
		{"holdTime", sum.HoldTime, agg.HoldTime},
		{"onCallTime", sum.OnCallTime, agg.OnCallTime},
		{"notAvailableTime", sum.NotAvailableTime, agg.NotAvailableTime},
	}
	for _, c := range checks {
		if diff := c.got - c.want; diff > float64(tol) || diff < -float64(tol) {
			return fmt.Errorf("%w: agent %s field %s: slots sum to %.0f, aggregate is %.0f",
				ErrRoundingInconsistency, agent.username, c.field, c.got, c.want)
		}
	}
	return nil
}

// resolveAgents joins the two feeds into one agent list: aggregates matched
// to event sequences by username, event-only agents carried with a zero
// aggregate, and the filter applied up front so no work is wasted on
// excluded agents. The extension seen on events wins for display; the
// aggregate still attaches by username.
func (a *Assembler) resolveAgents(aggs []types.AgentAggregate, eventsByAgent map[string]*types.AgentEvents, filter types.AgentFilter) []agentInput {
	agents := make([]agentInput, 0, len(aggs))
	claimed := make(map[string]bool, len(aggs))

	for _, agg := range aggs {
		in := agentInput{username: agg.Username, extension: agg.Extension, aggregate: agg}
		// Resolution order: username match first, then extension for event
		// feeds that never carried a username.
		key := agg.Username
		evs, ok := eventsByAgent[key]
		if !ok && agg.Extension != "" {
			key = agg.Extension
			evs, ok = eventsByAgent[key]
		}
		if ok {
			in.events = evs.Events
			claimed[key] = true
			if evs.Extension != "" && evs.Extension != agg.Extension {
				a.logger.Warn().
					Str("username", agg.Username).
					Str("stats_extension", agg.Extension).
					Str("event_extension", evs.Extension).
					Msg("feeds disagree on extension, using event feed for display")
				in.extension = evs.Extension
			}
		}
		if !filter.Matches(in.username, in.extension) {
			continue
		}
		agents = append(agents, in)
	}

	// Agents that only ever appeared in the event feed still get a
	// timeline; their metrics stay zero rather than being invented.
	extras := make([]agentInput, 0)
	for key, evs := range eventsByAgent {
		if claimed[key] {
			continue
		}
		if !filter.Matches(evs.Username, evs.Extension) {
			continue
		}
		extras = append(extras, agentInput{
			username:  evs.Username,
			extension: evs.Extension,
			events:    evs.Events,
		})
	}
	sort.Slice(extras, func(i, j int) bool { return extras[i].username < extras[j].username })

	return append(agents, extras...)
}

// summarize computes the window-level summary by summing the assembled
// records.
func summarize(records []types.ReportRecord, agents, slotCount int) types.ReportSummary {
	s := types.ReportSummary{Agents: agents, Slots: slotCount}
	for _, r := range records {
		s.TotalCalls += r.Metrics.TotalCalls
		s.Answered += r.Metrics.Answered
		s.Failed += r.Metrics.Failed
	}
	if s.TotalCalls > 0 {
		s.AnswerRate = float64(s.Answered) / float64(s.TotalCalls) * 100
	}
	return s
}
