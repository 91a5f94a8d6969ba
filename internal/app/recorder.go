package app

import (
	"context"
	"time"

	"pinsched/internal/engine"
	"pinsched/internal/eventbus"
	"pinsched/internal/storage"
	"pinsched/pkg/logx"
)

// recentRunWindow bounds the history recap logged at startup.
const recentRunWindow = 5

// recordLoop drains engine lifecycle events into the history store.
// It rides the bus instead of hooking the engine directly so a slow
// store can never stall the scheduling loop.
func (a *App) recordLoop(ctx context.Context) error {
	a.logRecentRuns(ctx)

	ch, unsub := a.bus.Subscribe(64)
	defer unsub()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			if ev.Type != eventbus.TypeExecuted && ev.Type != eventbus.TypeFailed {
				continue
			}
			exec, ok := ev.Data.(engine.Execution)
			if !ok {
				continue
			}
			rec := runRecord(exec)
			wctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			err := a.store.AppendRun(wctx, rec)
			cancel()
			if err != nil {
				a.log.Warn("history append failed", logx.String("event", exec.Description), logx.Err(err))
			}
		}
	}
}

// logRecentRuns recaps the tail of the run history, so a restarted box
// shows what the previous process last did. Returns the recapped records.
func (a *App) logRecentRuns(ctx context.Context) []storage.RunRecord {
	if a.store == nil {
		return nil
	}
	runs, err := a.store.RecentRuns(ctx, recentRunWindow)
	if err != nil {
		a.log.Warn("run history unavailable", logx.Err(err))
		return nil
	}
	for _, r := range runs {
		f := []logx.Field{
			logx.String("event", r.Description), logx.String("action", r.Action),
			logx.Time("at", r.At), logx.Int64("took_ms", r.TookMS),
		}
		if r.Error != "" {
			f = append(f, logx.String("err", r.Error))
		}
		a.log.Info("previous run", f...)
	}
	return runs
}

func runRecord(exec engine.Execution) storage.RunRecord {
	return storage.RunRecord{
		At:          exec.Started,
		Description: exec.Description,
		Action:      exec.Action,
		Pin:         exec.Pin,
		Scheduled:   exec.Scheduled,
		TookMS:      exec.Duration.Milliseconds(),
		Error:       exec.Error,
	}
}
