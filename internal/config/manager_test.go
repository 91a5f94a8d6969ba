package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.yaml", `
logging:
  level: debug
events:
  path: ./events.json
engine:
  poll_interval: 2s
  margin: 250ms
sync:
  primary_server: time.example.org
  interval: minute
storage:
  driver: sqlite
  path: ./history.db
`)
	m := NewManager(path)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("logging.level = %q", cfg.Logging.Level)
	}
	if cfg.Events.Path != "./events.json" {
		t.Fatalf("events.path = %q", cfg.Events.Path)
	}
	if cfg.Engine.PollInterval != "2s" || cfg.Engine.Margin != "250ms" {
		t.Fatalf("engine timing = %+v", cfg.Engine)
	}
	if cfg.Sync.Interval != "minute" {
		t.Fatalf("sync.interval = %q", cfg.Sync.Interval)
	}
	if cfg.Storage == nil || cfg.Storage.Driver != "sqlite" {
		t.Fatalf("storage = %+v", cfg.Storage)
	}
	if got := m.Get(); got != cfg {
		t.Fatal("Get did not return the committed config")
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.json", `{"logging": {"level": "info"}, "events": {"path": "e.json"}, "scheudler": {}}`)
	if _, err := NewManager(path).Load(); err == nil {
		t.Fatal("expected error for unknown top-level key")
	}
}

func TestLoadRejectsTrailingData(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.json", `{"events": {"path": "e.json"}} {"extra": true}`)
	if _, err := NewManager(path).Load(); err == nil {
		t.Fatal("expected error for trailing data")
	}
}

func TestParseDurationField(t *testing.T) {
	t.Parallel()
	d, err := ParseDurationField("engine.margin", " 750ms ")
	if err != nil || d != 750*time.Millisecond {
		t.Fatalf("ParseDurationField = (%v, %v)", d, err)
	}
	if _, err := ParseDurationField("engine.margin", "-1s"); err == nil {
		t.Fatal("expected error for negative duration")
	}
	if _, err := ParseDurationField("engine.margin", "soon"); err == nil {
		t.Fatal("expected error for junk duration")
	}

	d, err = ParseDurationOrDefault("engine.poll_interval", "", time.Second)
	if err != nil || d != time.Second {
		t.Fatalf("ParseDurationOrDefault = (%v, %v), want default 1s", d, err)
	}
}

func TestSubscribePublish(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "config.json", `{"events": {"path": "e.json"}}`)
	m := NewManager(path)
	if _, err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	ch := m.Subscribe(1)
	defer m.Unsubscribe(ch)

	next := &Config{}
	m.publish(next)
	select {
	case got := <-ch:
		if got != next {
			t.Fatal("subscriber received a different config")
		}
	default:
		t.Fatal("publish did not deliver to subscriber")
	}
}
