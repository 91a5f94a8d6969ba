package actuator

import (
	"sync"
	"time"
)

// MemoryDriver is an in-process driver recording every state change with
// a timestamp. It backs tests and dry runs on machines without GPIO.
type MemoryDriver struct {
	mu   sync.Mutex
	pins map[string]*MemoryPin
}

func NewMemoryDriver() *MemoryDriver {
	return &MemoryDriver{pins: map[string]*MemoryPin{}}
}

func (d *MemoryDriver) Open(name string, initialOn bool) (Pin, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p := &MemoryPin{name: name}
	p.record(initialOn)
	d.pins[name] = p
	return p, nil
}

// Pin returns the opened pin, or nil when it was never opened.
func (d *MemoryDriver) Pin(name string) *MemoryPin {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pins[name]
}

// Transition is one recorded state change.
type Transition struct {
	On bool
	At time.Time
}

type MemoryPin struct {
	name string

	mu    sync.Mutex
	on    bool
	trace []Transition
}

func (p *MemoryPin) Name() string { return p.name }

func (p *MemoryPin) On() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record(true)
	return nil
}

func (p *MemoryPin) Off() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record(false)
	return nil
}

func (p *MemoryPin) record(on bool) {
	p.on = on
	p.trace = append(p.trace, Transition{On: on, At: time.Now()})
}

// IsOn reports the current state.
func (p *MemoryPin) IsOn() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.on
}

// Trace copies the recorded transitions, initial state included.
func (p *MemoryPin) Trace() []Transition {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Transition, len(p.trace))
	copy(out, p.trace)
	return out
}
