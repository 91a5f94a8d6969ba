// Package netcheck gates startup on outbound connectivity. The clock
// offset service is useless without a route to the NTP pool, so the app
// probes a well-known URL (with a fallback) before the first sync.
package netcheck

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"pinsched/pkg/logx"
)

type Config struct {
	PrimaryURL   string
	FallbackURL  string
	ProbeTimeout time.Duration
	// ProbeInterval paces retries; the limiter enforces it even when
	// probes fail fast (DNS errors return in microseconds).
	ProbeInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.PrimaryURL == "" {
		c.PrimaryURL = "http://www.google.com"
	}
	if c.FallbackURL == "" {
		c.FallbackURL = "http://www.cloudflare.com"
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = 5 * time.Second
	}
	if c.ProbeInterval <= 0 {
		c.ProbeInterval = 5 * time.Second
	}
	return c
}

type Prober struct {
	cfg    Config
	client *http.Client
	log    logx.Logger
}

func New(cfg Config, log logx.Logger) *Prober {
	cfg = cfg.withDefaults()
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Prober{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.ProbeTimeout},
		log:    log,
	}
}

// Wait blocks until one probe returns HTTP 200 or ctx ends. A 429 from
// the primary switches the remaining probes to the fallback URL.
func (p *Prober) Wait(ctx context.Context) error {
	url := p.cfg.PrimaryURL
	lim := rate.NewLimiter(rate.Every(p.cfg.ProbeInterval), 1)
	for {
		if err := lim.Wait(ctx); err != nil {
			return err
		}
		status, err := p.probe(ctx, url)
		switch {
		case err != nil:
			p.log.Warn("connectivity probe failed; retrying", logx.String("url", url), logx.Err(err))
		case status == http.StatusOK:
			p.log.Info("connectivity confirmed", logx.String("url", url))
			return nil
		case status == http.StatusTooManyRequests:
			p.log.Warn("probe target throttling; switching to fallback", logx.String("url", url))
			url = p.cfg.FallbackURL
		default:
			p.log.Warn("unexpected probe status", logx.String("url", url), logx.Int("status", status))
		}
	}
}

func (p *Prober) probe(ctx context.Context, url string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build probe request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}
