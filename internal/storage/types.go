package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures the execution-history store.
//
// Driver values:
//   - "file": dependency-free jsonl backend
//   - "sqlite": SQLite database file
//
// If Driver is empty or "none", history is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// RunRecord captures one executed (or failed) scheduled action.
// Keep it compact and schema-stable.
type RunRecord struct {
	At          time.Time `json:"at"`
	Description string    `json:"description"`
	Action      string    `json:"action"`
	Pin         string    `json:"pin,omitempty"`
	Scheduled   time.Time `json:"scheduled"`
	TookMS      int64     `json:"took_ms"`
	Error       string    `json:"error,omitempty"`
}
