package app

import (
	"testing"
	"time"

	"pinsched/internal/config"
)

func TestRuntimeSettingsDefaults(t *testing.T) {
	t.Parallel()
	rs, err := runtimeSettings(&config.Config{})
	if err != nil {
		t.Fatalf("runtimeSettings: %v", err)
	}
	if rs.engine.PollInterval != time.Second {
		t.Fatalf("poll interval = %v, want 1s", rs.engine.PollInterval)
	}
	if rs.engine.Margin != 500*time.Millisecond {
		t.Fatalf("margin = %v, want 500ms", rs.engine.Margin)
	}
	if rs.sync.QueryTimeout != 5*time.Second {
		t.Fatalf("query timeout = %v, want 5s", rs.sync.QueryTimeout)
	}
}

func TestRuntimeSettingsValidation(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{}
	cfg.Engine.Margin = "sometime"
	if _, err := runtimeSettings(cfg); err == nil {
		t.Fatal("expected error for junk margin")
	}

	cfg = &config.Config{}
	cfg.Sync.Interval = "fortnight"
	if _, err := runtimeSettings(cfg); err == nil {
		t.Fatal("expected error for unsupported sync interval")
	}

	cfg = &config.Config{}
	cfg.Sync.Interval = "none"
	if _, err := runtimeSettings(cfg); err == nil {
		t.Fatal("a resync event that never recurs is a config mistake")
	}

	cfg = &config.Config{}
	cfg.Sync.Interval = "hour"
	if _, err := runtimeSettings(cfg); err != nil {
		t.Fatalf("runtimeSettings: %v", err)
	}
}
