package websocket

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/tmeier/occuboard/backend/internal/config"
	"github.com/tmeier/occuboard/backend/internal/metrics"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for now
		// TODO: Implement proper origin checking based on config
		return true
	},
}

// Handler handles WebSocket upgrade requests
type Handler struct {
	hub     *Hub
	config  *config.Config
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, cfg *config.Config, m *metrics.Metrics, logger zerolog.Logger) *Handler {
	return &Handler{
		hub:     hub,
		config:  cfg,
		metrics: m,
		logger:  logger,
	}
}

// ServeHTTP handles WebSocket upgrade requests
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Upgrade HTTP connection to WebSocket
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to upgrade connection")
		return
	}

	h.metrics.RecordWebSocketConnect()

	// Create new client
	client := NewClient(h.hub, conn, h.config, h.metrics, h.logger)

	// Register client with hub
	h.hub.register <- client

	h.logger.Debug().
		Int64("active_connections", h.metrics.GetActiveConnections()).
		Msg("websocket connection established")

	// Start client pumps
	client.Start()
}
