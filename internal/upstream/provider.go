package upstream

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"digitrend/internal/metrics"
)

// Fetcher returns a fresh override set.
type Fetcher interface {
	Fetch(ctx context.Context) (map[string]float64, error)
}

// Provider holds the last good override set. A failed refresh keeps the
// previous set, which is empty until the first success.
type Provider struct {
	mu      sync.RWMutex
	fetcher Fetcher
	timeout time.Duration
	rates   map[string]float64
	updated time.Time
	log     zerolog.Logger
}

// NewProvider wraps fetcher. A nil fetcher yields a provider that never
// overrides anything.
func NewProvider(fetcher Fetcher, timeout time.Duration, log zerolog.Logger) *Provider {
	return &Provider{
		fetcher: fetcher,
		timeout: timeout,
		rates:   map[string]float64{},
		log:     log.With().Str("component", "upstream_provider").Logger(),
	}
}

// Enabled reports whether a source is configured.
func (p *Provider) Enabled() bool {
	return p.fetcher != nil
}

// Overrides returns a copy of the current override set.
func (p *Provider) Overrides() map[string]float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return maps.Clone(p.rates)
}

// UpdatedAt is the time of the last successful refresh.
func (p *Provider) UpdatedAt() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.updated
}

// Refresh fetches a new override set and swaps it in on success.
func (p *Provider) Refresh(ctx context.Context) error {
	if p.fetcher == nil {
		return nil
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	rates, err := p.fetcher.Fetch(ctx)
	metrics.UpstreamRefresh(err == nil)
	if err != nil {
		p.log.Warn().Err(err).Msg("Upstream refresh failed, keeping last good rates")
		return err
	}

	p.mu.Lock()
	p.rates = maps.Clone(rates)
	p.updated = time.Now()
	p.mu.Unlock()

	p.log.Info().Int("rates", len(rates)).Msg("Upstream rates updated")
	return nil
}

// Name identifies the refresh job in scheduler logs.
func (p *Provider) Name() string {
	return "upstream_refresh"
}

// Run refreshes with a background context.
func (p *Provider) Run() error {
	return p.Refresh(context.Background())
}
