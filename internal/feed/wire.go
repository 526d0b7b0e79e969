package feed

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/tmeier/occuboard/backend/internal/types"
)

// The upstream reporting API is loosely typed: the same field arrives under
// several names depending on the exporting version, and numbers are
// sometimes quoted. All of that variance is absorbed here, in one place, so
// the rest of the service only ever sees the strongly-typed records in
// internal/types.

// wireAggregate decodes one agent statistics record from the stats feed.
type wireAggregate struct {
	fields map[string]json.RawMessage
}

func (w *wireAggregate) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &w.fields)
}

func (w *wireAggregate) toAggregate() types.AgentAggregate {
	return types.AgentAggregate{
		Username:         pickString(w.fields, "username", "user", "agent", "name"),
		Extension:        pickString(w.fields, "extension", "exten", "ext"),
		TotalCalls:       pickInt(w.fields, "total_calls", "totalCalls", "calls"),
		AnsweredCalls:    pickInt(w.fields, "answered_calls", "answeredCalls", "answered"),
		WrapUpTime:       pickFloat(w.fields, "wrapup_time", "wrapUpTime", "wrapup"),
		HoldTime:         pickFloat(w.fields, "hold_time", "holdTime", "hold"),
		OnCallTime:       pickFloat(w.fields, "oncall_time", "onCallTime", "talk_time", "oncall"),
		NotAvailableTime: pickFloat(w.fields, "notavailable_time", "notAvailableTime", "na_time"),
	}
}

// wireEvent decodes one state-change notification from the event feed.
type wireEvent struct {
	fields map[string]json.RawMessage
}

func (w *wireEvent) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &w.fields)
}

func (w *wireEvent) toRawEvent() types.RawEvent {
	enabled := true
	if raw, ok := firstRaw(w.fields, "enabled", "active"); ok {
		var b bool
		if err := json.Unmarshal(raw, &b); err == nil {
			enabled = b
		}
	}
	return types.RawEvent{
		Username:  pickString(w.fields, "username", "user", "agent", "name"),
		Extension: pickString(w.fields, "extension", "exten", "ext"),
		Timestamp: int64(pickFloat(w.fields, "timestamp", "ts", "time")),
		State:     pickString(w.fields, "state", "status", "statename"),
		Enabled:   enabled,
	}
}

func firstRaw(fields map[string]json.RawMessage, names ...string) (json.RawMessage, bool) {
	for _, name := range names {
		if raw, ok := fields[name]; ok && string(raw) != "null" {
			return raw, true
		}
	}
	return nil, false
}

func pickString(fields map[string]json.RawMessage, names ...string) string {
	raw, ok := firstRaw(fields, names...)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	// Some exporters emit bare numbers for extensions.
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return ""
}

func pickFloat(fields map[string]json.RawMessage, names ...string) float64 {
	raw, ok := firstRaw(fields, names...)
	if !ok {
		return 0
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	// Quoted numbers show up in older exports.
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return n
		}
	}
	return 0
}

func pickInt(fields map[string]json.RawMessage, names ...string) int {
	return int(pickFloat(fields, names...))
}
