// Package upstream fetches optional growth-rate overrides from a remote
// source and keeps the last good set for the dashboard.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"digitrend/internal/errs"
)

// Client for a growth-rate source answering {"rates": {"name": percent}}.
type Client struct {
	url    string
	client *http.Client
	log    zerolog.Logger
}

// NewClient creates a client for url with the given request timeout.
func NewClient(url string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		url:    url,
		client: &http.Client{Timeout: timeout},
		log:    log.With().Str("client", "upstream").Logger(),
	}
}

// Fetch returns the override rates in percent. Every failure wraps
// errs.ErrUpstream.
func (c *Client) Fetch(ctx context.Context) (map[string]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", errs.ErrUpstream, err)
	}
	req.Header.Set("Accept", "application/json")

	c.log.Debug().Str("url", c.url).Msg("Fetching growth rates")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %v", errs.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: source returned status %d", errs.ErrUpstream, resp.StatusCode)
	}

	var result struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: failed to parse response: %v", errs.ErrUpstream, err)
	}
	if len(result.Rates) == 0 {
		return nil, fmt.Errorf("%w: response carries no rates", errs.ErrUpstream)
	}
	for name, rate := range result.Rates {
		if math.IsNaN(rate) || math.IsInf(rate, 0) || rate < -100 {
			return nil, fmt.Errorf("%w: rate %v for %q is out of range", errs.ErrUpstream, rate, name)
		}
	}

	c.log.Info().Int("rates", len(result.Rates)).Msg("Fetched growth rates")
	return result.Rates, nil
}
