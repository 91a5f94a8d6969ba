package netcheck

import (
	"context"
	"fmt"
	"sort"

	"github.com/showwin/speedtest-go/speedtest"

	"pinsched/pkg/logx"
)

// MeasureLatency pings the nearest speedtest server once and logs the
// result. Purely diagnostic: a high baseline latency explains noisy NTP
// offsets, so it is worth a log line at startup. Failures are soft.
func (p *Prober) MeasureLatency(ctx context.Context) error {
	// Package-level speedtest helpers keep a default client alive; use a
	// private one so nothing is retained after the probe.
	st := speedtest.New()

	servers, err := st.FetchServerListContext(ctx)
	if err != nil {
		return fmt.Errorf("fetch server list: %w", err)
	}
	if a := servers.Available(); a != nil {
		servers = *a
	}
	if len(servers) == 0 {
		return fmt.Errorf("no latency servers available")
	}
	sort.Slice(servers, func(i, j int) bool {
		return servers[i].Distance < servers[j].Distance
	})
	srv := servers[0]
	if err := srv.PingTestContext(ctx, nil); err != nil {
		return fmt.Errorf("ping %s: %w", srv.Host, err)
	}
	p.log.Info("network latency baseline",
		logx.String("server", srv.Host),
		logx.Duration("latency", srv.Latency))
	return nil
}
