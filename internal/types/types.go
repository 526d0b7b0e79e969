package types

import (
	"strings"
	"time"
)

// StateNoActivity is the sentinel state used to fill slots for which no
// event and no carried-over state exists. It is a display label, not a
// state an agent can enter.
const StateNoActivity = "No Activity"

// AgentAggregate holds one agent's statistics summed over the whole
// requested window, as delivered by the upstream stats feed.
type AgentAggregate struct {
	Username         string  `json:"username"`
	Extension        string  `json:"extension"`
	TotalCalls       int     `json:"totalCalls"`
	AnsweredCalls    int     `json:"answeredCalls"`
	WrapUpTime       float64 `json:"wrapUpTime"`       // seconds
	HoldTime         float64 `json:"holdTime"`         // seconds
	OnCallTime       float64 `json:"onCallTime"`       // seconds
	NotAvailableTime float64 `json:"notAvailableTime"` // seconds
}

// RawEvent is a single state-change notification from the upstream event
// feed. Timestamp is epoch seconds or milliseconds; the normalizer
// disambiguates by magnitude.
type RawEvent struct {
	Username  string `json:"username"`
	Extension string `json:"extension"`
	Timestamp int64  `json:"timestamp"`
	State     string `json:"state"`
	Enabled   bool   `json:"enabled"`
}

// NormalizedEvent is a raw event reduced to what the reconstructor needs.
type NormalizedEvent struct {
	Time  time.Time `json:"time"`
	State string    `json:"state"`
}

// AgentEvents is one agent's instant-sorted event sequence plus the
// identity resolved from the event feed. The extension seen on events is
// authoritative for display even when the stats feed disagrees.
type AgentEvents struct {
	Username  string            `json:"username"`
	Extension string            `json:"extension"`
	Events    []NormalizedEvent `json:"events"`
}

// Slot is one contiguous sub-interval of the reporting window. Slots from
// one partition are ordered, non-overlapping and tile the window exactly.
type Slot struct {
	Index int       `json:"index"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration returns the slot's length.
func (s Slot) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// StateInterval is a contiguous stretch of one state inside a single slot.
// Open marks an interval clamped at the slot boundary whose state carries
// into the next slot: its in-slot duration is End-Start, but the occupancy
// itself has not ended.
type StateInterval struct {
	State string    `json:"state"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Open  bool      `json:"open,omitempty"`
}

// Duration returns the in-slot length of the interval.
func (i StateInterval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// CarryState is the open-ended state in effect at a slot boundary, handed
// from the reconstruction of one slot to the next. Transient; never
// persisted.
type CarryState struct {
	State string
	At    time.Time
}

// SlotMetrics is one agent's share of its window aggregate for one slot.
type SlotMetrics struct {
	TotalCalls       int     `json:"totalCalls"`
	Answered         int     `json:"answered"`
	Failed           int     `json:"failed"`
	WrapUpTime       float64 `json:"wrapUpTime"`       // seconds
	HoldTime         float64 `json:"holdTime"`         // seconds
	OnCallTime       float64 `json:"onCallTime"`       // seconds
	NotAvailableTime float64 `json:"notAvailableTime"` // seconds
	AvgHandleTime    float64 `json:"avgHandleTime"`    // seconds, window-level rate
}

// ReportRecord is the unit returned to callers: one per (agent, slot).
type ReportRecord struct {
	Username  string          `json:"username"`
	Extension string          `json:"extension"`
	Slot      Slot            `json:"slot"`
	Intervals []StateInterval `json:"intervals"`
	Metrics   SlotMetrics     `json:"metrics"`
}

// ReportSummary aggregates one report response.
type ReportSummary struct {
	Agents     int     `json:"agents"`
	Slots      int     `json:"slots"`
	TotalCalls int     `json:"totalCalls"`
	Answered   int     `json:"answered"`
	Failed     int     `json:"failed"`
	AnswerRate float64 `json:"answerRate"` // 0-100%
}

// AgentFilter restricts a report to agents whose username or extension
// contains the given substrings, case-insensitively. The zero value
// matches everything.
type AgentFilter struct {
	Name      string `json:"name,omitempty"`
	Extension string `json:"extension,omitempty"`
}

// Matches reports whether an agent identified by username/extension passes
// the filter.
func (f AgentFilter) Matches(username, extension string) bool {
	if f.Name != "" && !strings.Contains(strings.ToLower(username), strings.ToLower(f.Name)) {
		return false
	}
	if f.Extension != "" && !strings.Contains(strings.ToLower(extension), strings.ToLower(f.Extension)) {
		return false
	}
	return true
}

// IsZero reports whether the filter matches everything.
func (f AgentFilter) IsZero() bool {
	return f.Name == "" && f.Extension == ""
}
