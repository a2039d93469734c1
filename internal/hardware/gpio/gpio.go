// Package gpio drives the board's push buttons and turn lamps through periph.
package gpio

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

var ErrUnknownLine = errors.New("gpio line not found")

var initOnce = sync.OnceValue(func() error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("could not initialize periph host drivers: %w", err)
	}

	return nil
})

// InputLine is the part of gpio.PinIO a switch needs.
type InputLine interface {
	Name() string
	In(pull gpio.Pull, edge gpio.Edge) error
	WaitForEdge(timeout time.Duration) bool
	Read() gpio.Level
	Halt() error
}

// OutputLine is the part of gpio.PinIO a lamp needs.
type OutputLine interface {
	Name() string
	Out(level gpio.Level) error
	Halt() error
}

// LookupLine - resolves a BCM line number to a periph pin.
func LookupLine(bcm int) (gpio.PinIO, error) {
	if err := initOnce(); err != nil {
		return nil, err
	}

	name := fmt.Sprintf("GPIO%d", bcm)

	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLine, name)
	}

	return pin, nil
}
