// Package timesync maintains the signed offset between the local wall
// clock and a reference NTP source. The offset is published atomically:
// Refresh is the single writer, Now can be called from anywhere.
package timesync

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"pinsched/pkg/logx"
)

// ErrSyncFailed reports that every configured time source was
// unreachable. Soft: the previous offset stays in effect.
var ErrSyncFailed = errors.New("timesync: all time sources failed")

// Querier obtains the clock offset from one server. Implemented by the
// NTP client; tests inject fakes.
type Querier interface {
	QueryOffset(ctx context.Context, server string, timeout time.Duration) (time.Duration, error)
}

type Config struct {
	PrimaryServer   string
	SecondaryServer string
	QueryTimeout    time.Duration
}

func (c Config) withDefaults() Config {
	if c.PrimaryServer == "" {
		c.PrimaryServer = "time.nist.gov"
	}
	if c.SecondaryServer == "" {
		c.SecondaryServer = "pool.ntp.org"
	}
	if c.QueryTimeout <= 0 {
		c.QueryTimeout = 5 * time.Second
	}
	return c
}

type Service struct {
	cfg     Config
	querier Querier
	log     logx.Logger

	offsetNS atomic.Int64
}

func New(cfg Config, querier Querier, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	if querier == nil {
		querier = NTPQuerier{}
	}
	return &Service{cfg: cfg.withDefaults(), querier: querier, log: log}
}

// Now returns the local wall clock adjusted by the current offset. This
// is the only sanctioned "current time" for scheduling decisions.
func (s *Service) Now() time.Time {
	return time.Now().UTC().Add(s.Offset())
}

// Offset returns the current reference-minus-local clock offset.
func (s *Service) Offset() time.Duration {
	return time.Duration(s.offsetNS.Load())
}

// Refresh queries the primary server, then the secondary. Each attempt
// is bounded by the query timeout so the caller never blocks for long.
// When both fail the previous offset is kept and ErrSyncFailed returned.
func (s *Service) Refresh(ctx context.Context) error {
	for _, server := range []string{s.cfg.PrimaryServer, s.cfg.SecondaryServer} {
		off, err := s.querier.QueryOffset(ctx, server, s.cfg.QueryTimeout)
		if err != nil {
			s.log.Error("time source query failed", logx.String("server", server), logx.Err(err))
			continue
		}
		s.offsetNS.Store(int64(off))
		s.log.Info("clock offset updated", logx.String("server", server), logx.Duration("offset", off))
		return nil
	}
	s.log.Warn("offset refresh failed on all sources; keeping last known offset",
		logx.Duration("offset", s.Offset()))
	return ErrSyncFailed
}
