package config

type Config struct {
	Logging LoggingConfig `json:"logging"`

	// Events points at the JSON event file, loaded once at startup.
	// Definition changes need a process restart; only the runtime knobs
	// below are hot-reloadable.
	Events EventsConfig `json:"events"`

	Engine   EngineConfig   `json:"engine,omitempty"`
	Sync     SyncConfig     `json:"sync,omitempty"`
	Netcheck NetcheckConfig `json:"netcheck,omitempty"`
	Storage  *StorageConfig `json:"storage,omitempty"`
	GPIO     GPIOConfig     `json:"gpio,omitempty"`
}

type LoggingConfig struct {
	Level   string `json:"level"`
	Console *bool  `json:"console,omitempty"`
	File    struct {
		Enabled bool   `json:"enabled"`
		Path    string `json:"path,omitempty"`
	} `json:"file,omitempty"`
}

type EventsConfig struct {
	Path string `json:"path"`
}

// EngineConfig tunes the scheduling loop.
//
// All durations are Go duration strings (e.g. "500ms", "1s").
type EngineConfig struct {
	// PollInterval paces the idle loop when no events are queued.
	PollInterval string `json:"poll_interval,omitempty"`
	// Margin is the undershoot buffer for long waits.
	Margin string `json:"margin,omitempty"`
}

// SyncConfig controls the clock offset service.
type SyncConfig struct {
	PrimaryServer   string `json:"primary_server,omitempty"`
	SecondaryServer string `json:"secondary_server,omitempty"`
	QueryTimeout    string `json:"query_timeout,omitempty"`
	// Interval, when set, injects a periodic resync maintenance event
	// into the schedule ("minute" or "hour" granularity).
	Interval string `json:"interval,omitempty"`
}

type NetcheckConfig struct {
	// Enabled gates startup on outbound connectivity (default true).
	Enabled        *bool  `json:"enabled,omitempty"`
	PrimaryURL     string `json:"primary_url,omitempty"`
	FallbackURL    string `json:"fallback_url,omitempty"`
	ProbeTimeout   string `json:"probe_timeout,omitempty"`
	ProbeInterval  string `json:"probe_interval,omitempty"`
	MeasureLatency bool   `json:"measure_latency,omitempty"`
}

// StorageConfig controls the optional execution-history store.
//
// Driver values:
//   - "file": dependency-free jsonl backend
//   - "sqlite": SQLite database file
//
// If the section is omitted or the driver is "none", history is disabled.
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // sqlite only
}

type GPIOConfig struct {
	// Driver selects the pin backend: "gpio" (default) or "memory"
	// (no-op pins for machines without hardware).
	Driver string `json:"driver,omitempty"`
}
