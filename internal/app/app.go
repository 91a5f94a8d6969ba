// Package app wires configuration, logging, storage and the scheduling
// services into one process.
package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"pinsched/internal/actuator"
	"pinsched/internal/config"
	"pinsched/internal/engine"
	"pinsched/internal/eventbus"
	"pinsched/internal/netcheck"
	"pinsched/internal/runtime/supervisor"
	"pinsched/internal/schedule"
	"pinsched/internal/storage"
	"pinsched/internal/timesync"
	"pinsched/pkg/logx"
)

type App struct {
	cfgMgr *config.Manager
	logSvc *logx.Service
	log    logx.Logger

	bus    eventbus.Bus
	store  storage.Store
	sync   *timesync.Service
	prober *netcheck.Prober
	binder *actuator.Binder
	queue  *schedule.Queue
	engine *engine.Engine

	sup *supervisor.Supervisor
}

func New(cfgPath string) (*App, error) {
	mgr := config.NewManager(cfgPath)
	cfg, err := mgr.Load()
	if err != nil {
		// A broken config must not kill the process: fall back to defaults
		// so the loop stays available (and keeps logging) for a later fix.
		cfg = &config.Config{}
		mgr.Commit(cfg)
		boot := logx.NewConsole("info")
		boot.Error("config load failed; continuing with defaults", logx.String("path", cfgPath), logx.Err(err))
	}

	logSvc, log := logx.New(loggingConfig(cfg))
	mgr.SetLogger(log.With(logx.String("comp", "config")))
	mgr.SetValidator(func(ctx context.Context, c *config.Config) error {
		_, err := runtimeSettings(c)
		return err
	})

	rs, err := runtimeSettings(cfg)
	if err != nil {
		log.Error("invalid settings; using defaults where needed", logx.Err(err))
		rs, _ = runtimeSettings(&config.Config{})
	}

	a := &App{
		cfgMgr: mgr,
		logSvc: logSvc,
		log:    log,
		bus:    eventbus.New(),
		queue:  schedule.NewQueue(),
	}

	if cfg.Storage != nil {
		st, err := storage.Open(storageConfig(cfg.Storage), log.With(logx.String("comp", "storage")))
		if err != nil {
			log.Warn("history store unavailable; continuing without it", logx.Err(err))
		} else {
			a.store = st
		}
	}

	a.sync = timesync.New(rs.sync, nil, log.With(logx.String("comp", "timesync")))
	a.prober = netcheck.New(rs.netcheck, log.With(logx.String("comp", "netcheck")))
	a.binder = actuator.NewBinder(pinDriver(cfg.GPIO.Driver), log.With(logx.String("comp", "actuator")))
	a.engine = engine.New(rs.engine, a.sync, a.sync, a.binder, a.queue, a.bus, log.With(logx.String("comp", "engine")))
	return a, nil
}

// Log returns the root logger.
func (a *App) Log() logx.Logger { return a.log }

// Start launches the supervised goroutines and returns immediately.
func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log.With(logx.String("comp", "supervisor"))))

	a.sup.Go("config-watch", a.cfgMgr.Watch)
	a.sup.Go("config-apply", a.applyLoop)
	if a.store != nil {
		a.sup.Go("history", a.recordLoop)
	}
	a.sup.Go("run", a.run)
	return nil
}

// run executes the startup sequence and hands control to the engine:
// connectivity gate, initial offset sync, event load, loop.
func (a *App) run(ctx context.Context) error {
	cfg := a.cfgMgr.Get()

	if netcheckEnabled(cfg) {
		if err := a.prober.Wait(ctx); err != nil {
			return err
		}
		if cfg.Netcheck.MeasureLatency {
			if err := a.prober.MeasureLatency(ctx); err != nil {
				a.log.Warn("latency baseline unavailable", logx.Err(err))
			}
		}
	}

	// Best effort: the engine still runs on the uncorrected clock when
	// every time source is down.
	if err := a.sync.Refresh(ctx); err != nil {
		a.log.Warn("initial clock sync failed", logx.Err(err))
	}

	a.loadEvents(cfg)
	a.injectResync(cfg)

	return a.engine.Run(ctx)
}

// loadEvents reads the event file once. Any failure leaves the queue
// empty; the engine then idles rather than exiting, so an operator can
// fix the file and restart without fighting a crash loop.
func (a *App) loadEvents(cfg *config.Config) {
	path := strings.TrimSpace(cfg.Events.Path)
	if path == "" {
		a.log.Warn("no event file configured; scheduler is idle")
		return
	}
	f, err := os.Open(path)
	if err != nil {
		a.log.Error("cannot read event file; scheduler is idle", logx.String("path", path), logx.Err(err))
		return
	}
	defer f.Close()

	res, err := schedule.Load(f, a.sync.Now())
	if err != nil {
		a.log.Error("event file malformed; scheduler is idle", logx.String("path", path), logx.Err(err))
		return
	}
	for _, rej := range res.Rejections {
		a.log.Error("event definition dropped",
			logx.Int("index", rej.Index), logx.String("description", rej.Description), logx.Err(rej.Err))
	}
	for _, p := range res.Pins {
		if err := a.binder.Bind(p.Name, p.InitialOn); err != nil {
			a.log.Error("pin bind failed", logx.String("pin", p.Name), logx.Err(err))
		}
	}
	for _, ev := range res.Events {
		a.queue.Insert(ev)
		a.log.Info("event scheduled", logx.String("event", ev.Description),
			logx.String("action", ev.Action.Kind.String()), logx.Time("due", ev.Due),
			logx.String("repeat", ev.Recurrence.String()))
	}
}

// injectResync adds the periodic drift-correction event. It rides the
// ordinary queue, so no second timer mechanism exists in the process.
func (a *App) injectResync(cfg *config.Config) {
	tag := strings.TrimSpace(cfg.Sync.Interval)
	if tag == "" {
		return
	}
	rec, err := schedule.ParseRecurrence(tag)
	if err != nil || rec == schedule.RecurNone {
		a.log.Warn("invalid sync.interval; periodic resync disabled", logx.String("interval", tag))
		return
	}
	ev := schedule.Event{
		Due:         schedule.NextDue(a.sync.Now(), rec),
		Action:      schedule.Action{Kind: schedule.ActionResync},
		Description: "clock resync",
		Recurrence:  rec,
	}
	a.queue.Insert(ev)
	a.log.Info("periodic resync scheduled", logx.String("repeat", rec.String()), logx.Time("due", ev.Due))
}

// applyLoop pushes validated config revisions into the running services.
func (a *App) applyLoop(ctx context.Context) error {
	ch := a.cfgMgr.Subscribe(4)
	defer a.cfgMgr.Unsubscribe(ch)
	for {
		select {
		case <-ctx.Done():
			return nil
		case cfg, ok := <-ch:
			if !ok || cfg == nil {
				return nil
			}
			a.logSvc.Apply(loggingConfig(cfg))
			rs, err := runtimeSettings(cfg)
			if err != nil {
				// The validator should have rejected this already.
				a.log.Warn("config apply skipped", logx.Err(err))
				continue
			}
			a.engine.Apply(rs.engine)
			a.log.Info("config applied")
		}
	}
}

func (a *App) Stop(ctx context.Context) error {
	var err error
	if a.sup != nil {
		err = a.sup.Stop(ctx)
	}
	if a.store != nil {
		_ = a.store.Close()
	}
	_ = a.logSvc.Close()
	return err
}

func pinDriver(name string) actuator.Driver {
	if strings.EqualFold(strings.TrimSpace(name), "memory") {
		return actuator.NewMemoryDriver()
	}
	return actuator.GPIODriver{}
}

func netcheckEnabled(cfg *config.Config) bool {
	if cfg.Netcheck.Enabled == nil {
		return true
	}
	return *cfg.Netcheck.Enabled
}

// runtimeSettings resolves duration strings into component configs.
type settings struct {
	engine   engine.Config
	sync     timesync.Config
	netcheck netcheck.Config
}

func runtimeSettings(cfg *config.Config) (settings, error) {
	var rs settings
	var err error

	if rs.engine.PollInterval, err = config.ParseDurationOrDefault("engine.poll_interval", cfg.Engine.PollInterval, time.Second); err != nil {
		return rs, err
	}
	if rs.engine.Margin, err = config.ParseDurationOrDefault("engine.margin", cfg.Engine.Margin, 500*time.Millisecond); err != nil {
		return rs, err
	}

	rs.sync.PrimaryServer = cfg.Sync.PrimaryServer
	rs.sync.SecondaryServer = cfg.Sync.SecondaryServer
	if rs.sync.QueryTimeout, err = config.ParseDurationOrDefault("sync.query_timeout", cfg.Sync.QueryTimeout, 5*time.Second); err != nil {
		return rs, err
	}
	if tag := strings.TrimSpace(cfg.Sync.Interval); tag != "" {
		if rec, err := schedule.ParseRecurrence(tag); err != nil || rec == schedule.RecurNone {
			return rs, fmt.Errorf("sync.interval: unsupported value %q", tag)
		}
	}

	rs.netcheck.PrimaryURL = cfg.Netcheck.PrimaryURL
	rs.netcheck.FallbackURL = cfg.Netcheck.FallbackURL
	if rs.netcheck.ProbeTimeout, err = config.ParseDurationOrDefault("netcheck.probe_timeout", cfg.Netcheck.ProbeTimeout, 5*time.Second); err != nil {
		return rs, err
	}
	if rs.netcheck.ProbeInterval, err = config.ParseDurationOrDefault("netcheck.probe_interval", cfg.Netcheck.ProbeInterval, 5*time.Second); err != nil {
		return rs, err
	}
	return rs, nil
}

func loggingConfig(cfg *config.Config) logx.Config {
	lc := logx.Config{Level: cfg.Logging.Level, Console: true}
	if cfg.Logging.Console != nil {
		lc.Console = *cfg.Logging.Console
	}
	lc.File.Enabled = cfg.Logging.File.Enabled
	lc.File.Path = cfg.Logging.File.Path
	return lc
}

func storageConfig(sc *config.StorageConfig) storage.Config {
	busy, err := config.ParseDurationField("storage.busy_timeout", sc.BusyTimeout)
	if err != nil {
		busy = 0
	}
	return storage.Config{Driver: sc.Driver, Path: sc.Path, BusyTimeout: busy}
}
