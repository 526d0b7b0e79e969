package events

import (
	"sort"
	"strings"

	"github.com/tmeier/occuboard/backend/internal/timeutil"
	"github.com/tmeier/occuboard/backend/internal/types"
)

// Normalize reduces the heterogeneous upstream event feed to per-agent,
// instant-sorted event sequences.
//
// Events with no meaningful state (empty or the "none" sentinel), events
// explicitly disabled, and events missing both a timestamp and an agent key
// are dropped individually; one malformed record never aborts the batch.
// The sort is stable, so events sharing an instant keep their feed order.
//
// Agents are keyed by username, falling back to extension for event feeds
// that carry only the extension. The extension observed on events is kept
// as the display extension even if the stats feed later disagrees.
func Normalize(raw []types.RawEvent, filter *types.AgentFilter) map[string]*types.AgentEvents {
	out := make(map[string]*types.AgentEvents)

	for _, ev := range raw {
		if !ev.Enabled {
			continue
		}
		state := strings.TrimSpace(ev.State)
		if state == "" || strings.EqualFold(state, "none") {
			continue
		}
		if ev.Timestamp <= 0 {
			continue
		}
		key := agentKey(ev.Username, ev.Extension)
		if key == "" {
			continue
		}
		if filter != nil && !filter.Matches(ev.Username, ev.Extension) {
			continue
		}

		agent, ok := out[key]
		if !ok {
			agent = &types.AgentEvents{Username: ev.Username, Extension: ev.Extension}
			out[key] = agent
		}
		if agent.Extension == "" {
			agent.Extension = ev.Extension
		}
		agent.Events = append(agent.Events, types.NormalizedEvent{
			Time:  timeutil.FromEpoch(ev.Timestamp),
			State: state,
		})
	}

	for _, agent := range out {
		evs := agent.Events
		sort.SliceStable(evs, func(i, j int) bool {
			return evs[i].Time.Before(evs[j].Time)
		})
	}
	return out
}

// agentKey resolves the map key for an event: username when present,
// extension otherwise.
func agentKey(username, extension string) string {
	if username != "" {
		return username
	}
	return extension
}
