package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/tmeier/occuboard/backend/internal/types"
)

// Client fetches the two upstream feeds: per-agent aggregate statistics and
// raw state-change events. The engine itself never does I/O; this client is
// the collaborator that feeds it.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a feed client for the upstream reporting API.
func NewClient(baseURL, token string, timeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With().Str("component", "feed_client").Logger(),
	}
}

// FetchAggregates retrieves the per-agent daily aggregate statistics for
// the window.
func (c *Client) FetchAggregates(ctx context.Context, from, to time.Time) ([]types.AgentAggregate, error) {
	var wire []wireAggregate
	if err := c.get(ctx, "/stats/agents", from, to, &wire); err != nil {
		return nil, fmt.Errorf("failed to fetch agent stats: %w", err)
	}

	aggs := make([]types.AgentAggregate, 0, len(wire))
	for _, w := range wire {
		agg := w.toAggregate()
		if agg.Username == "" && agg.Extension == "" {
			continue
		}
		aggs = append(aggs, agg)
	}
	c.logger.Debug().Int("agents", len(aggs)).Msg("aggregates fetched")
	return aggs, nil
}

// FetchEvents retrieves the raw state-change event stream for the window.
func (c *Client) FetchEvents(ctx context.Context, from, to time.Time) ([]types.RawEvent, error) {
	var wire []wireEvent
	if err := c.get(ctx, "/events/agents", from, to, &wire); err != nil {
		return nil, fmt.Errorf("failed to fetch agent events: %w", err)
	}

	events := make([]types.RawEvent, 0, len(wire))
	for _, w := range wire {
		events = append(events, w.toRawEvent())
	}
	c.logger.Debug().Int("events", len(events)).Msg("events fetched")
	return events, nil
}

// FetchWindow retrieves both feeds concurrently. The feeds are independent,
// so neither waits on the other; the first error wins.
func (c *Client) FetchWindow(ctx context.Context, from, to time.Time) ([]types.AgentAggregate, []types.RawEvent, error) {
	var (
		aggs   []types.AgentAggregate
		events []types.RawEvent
	)
	errc := make(chan error, 2)

	go func() {
		var err error
		aggs, err = c.FetchAggregates(ctx, from, to)
		errc <- err
	}()
	go func() {
		var err error
		events, err = c.FetchEvents(ctx, from, to)
		errc <- err
	}()

	for i := 0; i < 2; i++ {
		if err := <-errc; err != nil {
			return nil, nil, err
		}
	}
	return aggs, events, nil
}

// get issues one authenticated GET against the upstream API and decodes the
// JSON body into out.
func (c *Client) get(ctx context.Context, path string, from, to time.Time, out interface{}) error {
	q := url.Values{}
	q.Set("from", strconv.FormatInt(from.Unix(), 10))
	q.Set("to", strconv.FormatInt(to.Unix(), 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("upstream returned status %d for %s", resp.StatusCode, path)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
