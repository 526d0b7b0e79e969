package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/tmeier/occuboard/backend/internal/cache"
	"github.com/tmeier/occuboard/backend/internal/events"
	"github.com/tmeier/occuboard/backend/internal/feed"
	"github.com/tmeier/occuboard/backend/internal/metrics"
	"github.com/tmeier/occuboard/backend/internal/report"
	"github.com/tmeier/occuboard/backend/internal/slots"
	"github.com/tmeier/occuboard/backend/internal/storage"
	"github.com/tmeier/occuboard/backend/internal/timeutil"
	"github.com/tmeier/occuboard/backend/internal/types"
	"github.com/tmeier/occuboard/backend/internal/websocket"
)

// ReportHandler serves the occupancy report endpoint: it fetches the two
// upstream feeds for the requested window, runs the reconstruction and
// distribution engine, and returns one record per (agent, slot).
type ReportHandler struct {
	feed      *feed.Client
	assembler *report.Assembler
	cache     *cache.ReportCache
	store     storage.Store
	hub       *websocket.Hub
	metrics   *metrics.Metrics
	zone      *timeutil.Zone
	alignment time.Duration
	logger    zerolog.Logger
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(feedClient *feed.Client, assembler *report.Assembler, reportCache *cache.ReportCache, store storage.Store, hub *websocket.Hub, m *metrics.Metrics, zone *timeutil.Zone, alignment time.Duration, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		feed:      feedClient,
		assembler: assembler,
		cache:     reportCache,
		store:     store,
		hub:       hub,
		metrics:   m,
		zone:      zone,
		alignment: alignment,
		logger:    logger.With().Str("component", "report_handler").Logger(),
	}
}

// runNotification is pushed to websocket subscribers when a run completes
type runNotification struct {
	Type    string              `json:"type"` // always "report_completed"
	RunID   string              `json:"runId"`
	Window  string              `json:"window"`
	Summary types.ReportSummary `json:"summary"`
}

// GetReport handles GET /api/report?from=...&to=...&agent=...&extension=...
// from/to are local wall-clock strings in the configured report timezone.
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	q := r.URL.Query()

	from, err := h.zone.ParseLocal(q.Get("from"))
	if err != nil {
		http.Error(w, "invalid 'from' parameter", http.StatusBadRequest)
		return
	}
	to, err := h.zone.ParseLocal(q.Get("to"))
	if err != nil {
		http.Error(w, "invalid 'to' parameter", http.StatusBadRequest)
		return
	}
	filter := types.AgentFilter{
		Name:      q.Get("agent"),
		Extension: q.Get("extension"),
	}

	partition, err := slots.Partition(from, to, h.alignment)
	if err != nil {
		if errors.Is(err, slots.ErrInvalidWindow) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error().Err(err).Msg("failed to partition window")
		http.Error(w, "failed to build report", http.StatusInternalServerError)
		return
	}

	cacheKey := cache.Key(from, to, h.alignment, filter)
	if cached := h.cache.Get(cacheKey); cached != nil {
		h.metrics.RecordReportCacheHit()
		writeJSON(w, cached)
		return
	}

	h.metrics.RecordFeedFetch()
	aggs, rawEvents, err := h.feed.FetchWindow(r.Context(), from, to)
	if err != nil {
		h.metrics.RecordFeedError()
		h.logger.Error().Err(err).
			Time("from", from).
			Time("to", to).
			Msg("failed to fetch upstream feeds")
		http.Error(w, "upstream feeds unavailable", http.StatusBadGateway)
		return
	}

	eventsByAgent := events.Normalize(rawEvents, &filter)
	kept := 0
	for _, agent := range eventsByAgent {
		kept += len(agent.Events)
	}
	h.metrics.RecordEventsNormalized(kept, len(rawEvents)-kept)

	result, err := h.assembler.Assemble(r.Context(), aggs, eventsByAgent, partition, filter)
	if err != nil {
		h.metrics.RecordReportError()
		if errors.Is(err, report.ErrRoundingInconsistency) {
			h.metrics.RecordRoundingInconsistency()
		}
		h.logger.Error().Err(err).Msg("failed to assemble report")
		http.Error(w, "failed to build report", http.StatusInternalServerError)
		return
	}

	h.cache.Put(cacheKey, result)
	h.metrics.RecordReport(time.Since(started), result.Summary.Agents, result.Summary.Slots)

	run := h.persistRun(from, to, result.Summary)
	h.notify(run, result.Summary)

	h.logger.Info().
		Str("run_id", run.RunID).
		Int("agents", result.Summary.Agents).
		Int("slots", result.Summary.Slots).
		Dur("took", time.Since(started)).
		Msg("report generated")

	writeJSON(w, result)
}

// persistRun writes the run header to the history store. A storage failure
// only loses history, never the response.
func (h *ReportHandler) persistRun(from, to time.Time, summary types.ReportSummary) types.ReportRun {
	run := types.ReportRun{
		DateKey:     h.zone.FormatLocalDate(from),
		RunID:       uuid.New().String(),
		WindowStart: from.Format(time.RFC3339),
		WindowEnd:   to.Format(time.RFC3339),
		Agents:      summary.Agents,
		Slots:       summary.Slots,
		TotalCalls:  summary.TotalCalls,
		Answered:    summary.Answered,
		Failed:      summary.Failed,
		AnswerRate:  summary.AnswerRate,
		GeneratedAt: time.Now().Format(time.RFC3339),
	}
	if err := h.store.SaveReportRun(run); err != nil {
		h.logger.Error().Err(err).Str("run_id", run.RunID).Msg("failed to persist report run")
	}
	return run
}

// notify pushes the completed run to websocket subscribers
func (h *ReportHandler) notify(run types.ReportRun, summary types.ReportSummary) {
	data, err := json.Marshal(runNotification{
		Type:    "report_completed",
		RunID:   run.RunID,
		Window:  run.WindowStart + " - " + run.WindowEnd,
		Summary: summary,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to marshal run notification")
		return
	}
	h.hub.Broadcast(data)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
