package timesync

import (
	"context"
	"time"

	"github.com/beevik/ntp"
)

// NTPQuerier queries SNTP servers (version 4).
type NTPQuerier struct{}

func (NTPQuerier) QueryOffset(ctx context.Context, server string, timeout time.Duration) (time.Duration, error) {
	// ntp.QueryWithOptions has its own deadline; honor an already-cancelled
	// context so shutdown doesn't wait out a dead server.
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	resp, err := ntp.QueryWithOptions(server, ntp.QueryOptions{Timeout: timeout})
	if err != nil {
		return 0, err
	}
	if err := resp.Validate(); err != nil {
		return 0, err
	}
	return resp.ClockOffset, nil
}
