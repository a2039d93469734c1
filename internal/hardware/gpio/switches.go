package gpio

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.uber.org/multierr"
	"periph.io/x/conn/v3/gpio"
)

// edgePollTimeout bounds how long a watcher blocks before checking for Close.
const edgePollTimeout = 100 * time.Millisecond

// Switches are momentary push buttons wired from a line to ground. The
// channel identifier of a switch is its BCM line number.
type Switches struct {
	logger *slog.Logger
	lines  map[int]InputLine

	stop      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// OpenSwitches - claims the given BCM lines on the host.
func OpenSwitches(logger *slog.Logger, pins []int) (*Switches, error) {
	lines := make(map[int]InputLine, len(pins))

	for _, pin := range pins {
		line, err := LookupLine(pin)
		if err != nil {
			return nil, err
		}

		lines[pin] = line
	}

	return NewSwitches(logger, lines), nil
}

func NewSwitches(logger *slog.Logger, lines map[int]InputLine) *Switches {
	return &Switches{
		logger: logger.With("component", "switches"),
		lines:  lines,
		stop:   make(chan struct{}),
	}
}

// Subscribe - configures every line as a pulled-up input with falling-edge
// detection and starts one watcher per line.
func (that *Switches) Subscribe(notify func(channel int)) error {
	for _, line := range that.lines {
		if err := line.In(gpio.PullUp, gpio.FallingEdge); err != nil {
			return fmt.Errorf("could not configure %s: %w", line.Name(), err)
		}
	}

	for channel, line := range that.lines {
		that.wg.Add(1)

		go that.watch(channel, line, notify)
	}

	that.logger.Info("watching switches", "count", len(that.lines))

	return nil
}

// IsActuated - a pressed switch pulls its line low.
func (that *Switches) IsActuated(channel int) bool {
	line, ok := that.lines[channel]
	if !ok {
		return false
	}

	return line.Read() == gpio.Low
}

// Close - stops the watchers and releases the lines.
func (that *Switches) Close() error {
	var err error

	that.closeOnce.Do(func() {
		close(that.stop)
		that.wg.Wait()

		for _, line := range that.lines {
			if haltErr := line.Halt(); haltErr != nil {
				err = multierr.Append(err, fmt.Errorf("could not halt %s: %w", line.Name(), haltErr))
			}
		}
	})

	return err
}

func (that *Switches) watch(channel int, line InputLine, notify func(channel int)) {
	defer that.wg.Done()

	for {
		select {
		case <-that.stop:
			return
		default:
		}

		if line.WaitForEdge(edgePollTimeout) {
			notify(channel)
		}
	}
}
