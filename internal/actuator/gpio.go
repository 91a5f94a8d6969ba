package actuator

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

var hostOnce sync.Once
var hostErr error

// GPIODriver opens real output pins through periph.io. Pin names follow
// the gpioreg registry ("GPIO17", "GPIO22", ...).
type GPIODriver struct{}

func (GPIODriver) Open(name string, initialOn bool) (Pin, error) {
	hostOnce.Do(func() { _, hostErr = host.Init() })
	if hostErr != nil {
		return nil, fmt.Errorf("gpio host init: %w", hostErr)
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("unknown gpio pin %q", name)
	}
	lvl := gpio.Low
	if initialOn {
		lvl = gpio.High
	}
	if err := p.Out(lvl); err != nil {
		return nil, fmt.Errorf("gpio %s initial state: %w", name, err)
	}
	return &gpioPin{pin: p}, nil
}

type gpioPin struct {
	pin gpio.PinIO
}

func (g *gpioPin) Name() string { return g.pin.Name() }
func (g *gpioPin) On() error    { return g.pin.Out(gpio.High) }
func (g *gpioPin) Off() error   { return g.pin.Out(gpio.Low) }
