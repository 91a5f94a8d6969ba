// Package actuator maps logical pin names to stateful output handles.
package actuator

import (
	"fmt"
	"sync"

	"pinsched/pkg/logx"
)

// Pin is a binary output. On drives the logical active state, Off the
// inactive state; what "active" means electrically is the driver's
// business.
type Pin interface {
	Name() string
	On() error
	Off() error
}

// Driver opens a pin by logical name and applies its initial state.
type Driver interface {
	Open(name string, initialOn bool) (Pin, error)
}

// Binder owns the pin table. Handles are created on first reference and
// never removed for the process lifetime.
type Binder struct {
	driver Driver
	log    logx.Logger

	mu   sync.Mutex
	pins map[string]Pin
}

func NewBinder(driver Driver, log logx.Logger) *Binder {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Binder{driver: driver, log: log, pins: map[string]Pin{}}
}

// Bind opens the named pin with the given initial state. Idempotent:
// a pin that is already bound keeps its handle and its original initial
// state (first reference wins).
func (b *Binder) Bind(name string, initialOn bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.pins[name]; ok {
		return nil
	}
	p, err := b.driver.Open(name, initialOn)
	if err != nil {
		return fmt.Errorf("bind %s: %w", name, err)
	}
	b.pins[name] = p
	b.log.Debug("pin bound", logx.String("pin", name), logx.Bool("initial_on", initialOn))
	return nil
}

// Get returns the handle for a bound pin.
func (b *Binder) Get(name string) (Pin, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.pins[name]
	if !ok {
		return nil, fmt.Errorf("pin %s is not bound", name)
	}
	return p, nil
}
