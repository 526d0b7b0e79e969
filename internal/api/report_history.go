package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/tmeier/occuboard/backend/internal/storage"
	"github.com/tmeier/occuboard/backend/internal/types"
)

// ReportHistoryHandler provides REST endpoints for persisted report runs
type ReportHistoryHandler struct {
	store  storage.Store
	logger zerolog.Logger
}

// NewReportHistoryHandler creates a new ReportHistoryHandler
func NewReportHistoryHandler(store storage.Store, logger zerolog.Logger) *ReportHistoryHandler {
	return &ReportHistoryHandler{
		store:  store,
		logger: logger.With().Str("component", "report_history_handler").Logger(),
	}
}

// GetRuns returns report runs generated on a specific date
// GET /api/reports?date=YYYY-MM-DD
func (h *ReportHistoryHandler) GetRuns(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		http.Error(w, "date query parameter is required (YYYY-MM-DD)", http.StatusBadRequest)
		return
	}

	runs, err := h.store.GetReportRuns(date)
	if err != nil {
		h.logger.Error().Err(err).Str("date", date).Msg("failed to get report runs")
		http.Error(w, "failed to retrieve report runs", http.StatusInternalServerError)
		return
	}

	if runs == nil {
		runs = []types.ReportRun{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(runs)
}
