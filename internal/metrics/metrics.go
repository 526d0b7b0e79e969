package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Metrics holds all application metrics
type Metrics struct {
	mu sync.RWMutex

	// Report metrics
	ReportsGeneratedTotal        int64
	ReportErrorsTotal            int64
	ReportCacheHitsTotal         int64
	RoundingInconsistenciesTotal int64
	lastReportDuration           time.Duration
	lastReportAgents             int
	lastReportSlots              int

	// Feed metrics
	FeedFetchesTotal      int64
	FeedErrorsTotal       int64
	EventsNormalizedTotal int64
	EventsDroppedTotal    int64

	// WebSocket metrics
	WebSocketConnectionsTotal    int64
	WebSocketDisconnectionsTotal int64
	activeConnections            int64

	// HTTP metrics
	httpRequestsTotal    map[string]map[int]int64 // endpoint -> status -> count
	httpRequestDurations map[string][]float64     // endpoint -> durations

	// Timing
	startTime time.Time
}

// New creates a fresh metrics registry. Each server owns its own instance;
// there is no process-wide singleton.
func New() *Metrics {
	return &Metrics{
		httpRequestsTotal:    make(map[string]map[int]int64),
		httpRequestDurations: make(map[string][]float64),
		startTime:            time.Now(),
	}
}

// RecordReport records one generated report
func (m *Metrics) RecordReport(duration time.Duration, agents, slots int) {
	m.mu.Lock()
	m.ReportsGeneratedTotal++
	m.lastReportDuration = duration
	m.lastReportAgents = agents
	m.lastReportSlots = slots
	m.mu.Unlock()
}

// RecordReportError increments the report error counter
func (m *Metrics) RecordReportError() {
	m.mu.Lock()
	m.ReportErrorsTotal++
	m.mu.Unlock()
}

// RecordReportCacheHit increments the cache hit counter
func (m *Metrics) RecordReportCacheHit() {
	m.mu.Lock()
	m.ReportCacheHitsTotal++
	m.mu.Unlock()
}

// RecordRoundingInconsistency increments the rounding inconsistency counter.
// This should stay at zero; anything else is a computation bug.
func (m *Metrics) RecordRoundingInconsistency() {
	m.mu.Lock()
	m.RoundingInconsistenciesTotal++
	m.mu.Unlock()
}

// RecordFeedFetch increments the feed fetch counter
func (m *Metrics) RecordFeedFetch() {
	m.mu.Lock()
	m.FeedFetchesTotal++
	m.mu.Unlock()
}

// RecordFeedError increments the feed error counter
func (m *Metrics) RecordFeedError() {
	m.mu.Lock()
	m.FeedErrorsTotal++
	m.mu.Unlock()
}

// RecordEventsNormalized records how many raw events survived normalization
// and how many were dropped
func (m *Metrics) RecordEventsNormalized(kept, dropped int) {
	m.mu.Lock()
	m.EventsNormalizedTotal += int64(kept)
	m.EventsDroppedTotal += int64(dropped)
	m.mu.Unlock()
}

// RecordWebSocketConnect increments connection counters
func (m *Metrics) RecordWebSocketConnect() {
	m.mu.Lock()
	m.WebSocketConnectionsTotal++
	m.activeConnections++
	m.mu.Unlock()
}

// RecordWebSocketDisconnect increments disconnection counter
func (m *Metrics) RecordWebSocketDisconnect() {
	m.mu.Lock()
	m.WebSocketDisconnectionsTotal++
	m.activeConnections--
	m.mu.Unlock()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(endpoint string, statusCode int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.httpRequestsTotal[endpoint] == nil {
		m.httpRequestsTotal[endpoint] = make(map[int]int64)
	}
	m.httpRequestsTotal[endpoint][statusCode]++

	// Keep last 100 durations for percentile calculation
	if len(m.httpRequestDurations[endpoint]) >= 100 {
		m.httpRequestDurations[endpoint] = m.httpRequestDurations[endpoint][1:]
	}
	m.httpRequestDurations[endpoint] = append(m.httpRequestDurations[endpoint], duration.Seconds())
}

// GetActiveConnections returns current WebSocket connections
func (m *Metrics) GetActiveConnections() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeConnections
}

// Handler returns an HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.mu.RLock()
		defer m.mu.RUnlock()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		// Helper to write metric
		write := func(name string, value interface{}, labels ...string) {
			labelStr := ""
			if len(labels) > 0 {
				labelStr = "{"
				for i := 0; i < len(labels); i += 2 {
					if i > 0 {
						labelStr += ","
					}
					labelStr += labels[i] + "=\"" + labels[i+1] + "\""
				}
				labelStr += "}"
			}

			switch v := value.(type) {
			case int:
				w.Write([]byte(name + labelStr + " " + strconv.Itoa(v) + "\n"))
			case int64:
				w.Write([]byte(name + labelStr + " " + strconv.FormatInt(v, 10) + "\n"))
			case float64:
				w.Write([]byte(name + labelStr + " " + strconv.FormatFloat(v, 'f', 6, 64) + "\n"))
			}
		}

		// System metrics
		write("occuboard_uptime_seconds", time.Since(m.startTime).Seconds())

		// Report metrics
		write("occuboard_reports_generated_total", m.ReportsGeneratedTotal)
		write("occuboard_report_errors_total", m.ReportErrorsTotal)
		write("occuboard_report_cache_hits_total", m.ReportCacheHitsTotal)
		write("occuboard_rounding_inconsistencies_total", m.RoundingInconsistenciesTotal)
		write("occuboard_last_report_duration_seconds", m.lastReportDuration.Seconds())
		write("occuboard_last_report_agents", m.lastReportAgents)
		write("occuboard_last_report_slots", m.lastReportSlots)

		// Feed metrics
		write("occuboard_feed_fetches_total", m.FeedFetchesTotal)
		write("occuboard_feed_errors_total", m.FeedErrorsTotal)
		write("occuboard_events_normalized_total", m.EventsNormalizedTotal)
		write("occuboard_events_dropped_total", m.EventsDroppedTotal)

		// WebSocket metrics
		write("occuboard_websocket_connections_total", m.WebSocketConnectionsTotal)
		write("occuboard_websocket_disconnections_total", m.WebSocketDisconnectionsTotal)
		write("occuboard_websocket_active_connections", m.activeConnections)

		// HTTP metrics
		for endpoint, statusCodes := range m.httpRequestsTotal {
			for status, count := range statusCodes {
				write("occuboard_http_requests_total", count, "endpoint", endpoint, "status", strconv.Itoa(status))
			}
		}
	}
}
