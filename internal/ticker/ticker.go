package ticker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/tmeier/occuboard/backend/internal/websocket"
)

// TimeMessage represents the keepalive message sent to subscribed dashboards
type TimeMessage struct {
	Type       string `json:"type"` // always "tick"
	Timestamp  string `json:"timestamp"`
	ServerTime int64  `json:"serverTime"`
}

// Ticker periodically broadcasts time updates to the hub
type Ticker struct {
	hub      *websocket.Hub
	interval time.Duration
	logger   zerolog.Logger
}

// NewTicker creates a new Ticker
func NewTicker(hub *websocket.Hub, interval time.Duration, logger zerolog.Logger) *Ticker {
	return &Ticker{
		hub:      hub,
		interval: interval,
		logger:   logger,
	}
}

// Start begins broadcasting time updates
func (t *Ticker) Start(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.logger.Info().Dur("interval", t.interval).Msg("ticker started")

	for {
		select {
		case <-ctx.Done():
			t.logger.Info().Msg("ticker stopped")
			return

		case now := <-ticker.C:
			message := TimeMessage{
				Type:       "tick",
				Timestamp:  now.Format(time.RFC3339),
				ServerTime: now.Unix(),
			}

			data, err := json.Marshal(message)
			if err != nil {
				t.logger.Error().Err(err).Msg("failed to marshal time message")
				continue
			}

			t.hub.Broadcast(data)
			t.logger.Debug().
				Int("clients", t.hub.ClientCount()).
				Msg("time update broadcasted")
		}
	}
}
