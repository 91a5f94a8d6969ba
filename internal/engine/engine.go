// Package engine runs the single scheduling loop: wait for the earliest
// queued event, execute its action, reschedule it if it recurs.
package engine

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"pinsched/internal/actuator"
	"pinsched/internal/eventbus"
	"pinsched/internal/schedule"
	"pinsched/pkg/logx"
)

// Clock supplies the offset-corrected current time.
type Clock interface {
	Now() time.Time
}

// Resyncer refreshes the clock offset; backing for the resync action.
type Resyncer interface {
	Refresh(ctx context.Context) error
}

type Config struct {
	// PollInterval paces the idle recheck when the queue is empty.
	PollInterval time.Duration
	// Margin is subtracted from long waits so an offset update arriving
	// mid-sleep cannot make the loop overshoot the due instant.
	Margin time.Duration
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
	if c.Margin <= 0 {
		c.Margin = 500 * time.Millisecond
	}
	return c
}

// Execution is the bus payload for one action run.
type Execution struct {
	Description string
	Action      string
	Pin         string
	Scheduled   time.Time
	Started     time.Time
	Duration    time.Duration
	Error       string
}

// Engine owns the queue after the load phase: no other goroutine touches
// it once Run starts, so the queue needs no lock.
type Engine struct {
	mu  sync.Mutex
	cfg Config

	clock  Clock
	resync Resyncer
	binder *actuator.Binder
	queue  *schedule.Queue
	bus    eventbus.Bus
	log    logx.Logger
}

func New(cfg Config, clock Clock, resync Resyncer, binder *actuator.Binder, queue *schedule.Queue, bus eventbus.Bus, log logx.Logger) *Engine {
	if log.IsZero() {
		log = logx.Nop()
	}
	if queue == nil {
		queue = schedule.NewQueue()
	}
	return &Engine{
		cfg:    cfg.withDefaults(),
		clock:  clock,
		resync: resync,
		binder: binder,
		queue:  queue,
		bus:    bus,
		log:    log,
	}
}

// Apply swaps the timing knobs at runtime.
func (e *Engine) Apply(cfg Config) {
	e.mu.Lock()
	e.cfg = cfg.withDefaults()
	e.mu.Unlock()
}

func (e *Engine) config() Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// Run drives the loop until ctx is cancelled. It never returns an error
// from event execution; per-event failures are logged and contained.
func (e *Engine) Run(ctx context.Context) error {
	e.log.Info("engine started", logx.Int("queued", e.queue.Len()))
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		cfg := e.config()

		next, ok := e.queue.Peek()
		if !ok {
			// Idle: nothing scheduled, poll for shutdown.
			if err := sleep(ctx, cfg.PollInterval); err != nil {
				return err
			}
			continue
		}

		remaining := next.Due.Sub(e.clock.Now())
		if remaining > cfg.Margin {
			// Long wait: stop short of the due instant, then recompute.
			// The offset may have been corrected while we slept.
			if err := sleep(ctx, remaining-cfg.Margin); err != nil {
				return err
			}
			continue
		}
		if remaining > 0 {
			if err := sleep(ctx, remaining); err != nil {
				return err
			}
		}
		// Crossing check instead of exact match: robust against offset jitter.
		if e.clock.Now().Before(next.Due) {
			continue
		}

		ev, _ := e.queue.Pop()
		e.execute(ctx, ev)

		if ev.Recurrence != schedule.RecurNone {
			ev.Due = schedule.NextDue(ev.Due, ev.Recurrence)
			e.queue.Insert(ev)
			e.log.Debug("event rescheduled",
				logx.String("event", ev.Description), logx.Time("due", ev.Due))
			e.bus.Publish(eventbus.Event{Type: eventbus.TypeRescheduled, Data: Execution{
				Description: ev.Description,
				Action:      ev.Action.Kind.String(),
				Pin:         ev.Action.Pin,
				Scheduled:   ev.Due,
			}})
		}
	}
}

// execute runs one action to completion. Failures (and panics) are
// caught here so a bad actuator can never halt the loop.
func (e *Engine) execute(ctx context.Context, ev schedule.Event) {
	started := e.clock.Now()
	wall := time.Now()
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				e.log.Error("panic in action", logx.String("event", ev.Description),
					logx.Any("panic", r), logx.Stack(string(debug.Stack())))
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return e.interpret(ctx, ev.Action)
	}()
	// Duration from the monotonic clock: a resync action may move the
	// offset-corrected clock mid-run.
	took := time.Since(wall)

	exec := Execution{
		Description: ev.Description,
		Action:      ev.Action.Kind.String(),
		Pin:         ev.Action.Pin,
		Scheduled:   ev.Due,
		Started:     started,
		Duration:    took,
	}
	if err != nil {
		exec.Error = err.Error()
		e.log.Error("event failed", logx.String("event", ev.Description),
			logx.String("action", exec.Action), logx.Err(err), logx.Duration("took", took))
		e.bus.Publish(eventbus.Event{Type: eventbus.TypeFailed, Data: exec})
		return
	}
	e.log.Info("event executed", logx.String("event", ev.Description),
		logx.String("action", exec.Action), logx.Time("scheduled", ev.Due), logx.Duration("took", took))
	e.bus.Publish(eventbus.Event{Type: eventbus.TypeExecuted, Data: exec})
}

// interpret dispatches the action variant.
func (e *Engine) interpret(ctx context.Context, a schedule.Action) error {
	switch a.Kind {
	case schedule.ActionActivate:
		pin, err := e.binder.Get(a.Pin)
		if err != nil {
			return err
		}
		return pin.On()
	case schedule.ActionDeactivate:
		pin, err := e.binder.Get(a.Pin)
		if err != nil {
			return err
		}
		return pin.Off()
	case schedule.ActionPulse:
		pin, err := e.binder.Get(a.Pin)
		if err != nil {
			return err
		}
		if err := pin.On(); err != nil {
			return err
		}
		// The hold is part of this event's execution; later events wait.
		if err := sleep(ctx, a.Duration); err != nil {
			_ = pin.Off()
			return err
		}
		return pin.Off()
	case schedule.ActionResync:
		if e.resync == nil {
			return fmt.Errorf("no resync service configured")
		}
		if err := e.resync.Refresh(ctx); err != nil {
			e.bus.Publish(eventbus.Event{Type: eventbus.TypeSyncFailed, Data: err.Error()})
			return err
		}
		e.bus.Publish(eventbus.Event{Type: eventbus.TypeSyncUpdated})
		return nil
	default:
		return fmt.Errorf("unknown action kind %v", a.Kind)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
