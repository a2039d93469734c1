package gpio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"periph.io/x/conn/v3/gpio"

	"github.com/rocketscienceinc/tictactoe-board/internal/entity"
)

const DefaultFlashPeriod = 200 * time.Millisecond

// Lamps are the two turn indicators: red for X, blue for O.
type Lamps struct {
	logger *slog.Logger
	clock  clock.Clock
	period time.Duration

	mu sync.Mutex
	x  OutputLine
	o  OutputLine
}

// OpenLamps - claims the X and O lamp lines on the host.
func OpenLamps(logger *slog.Logger, xPin, oPin int, period time.Duration) (*Lamps, error) {
	x, err := LookupLine(xPin)
	if err != nil {
		return nil, err
	}

	o, err := LookupLine(oPin)
	if err != nil {
		return nil, err
	}

	return NewLamps(logger, x, o, period, nil)
}

// NewLamps - both lamps start switched off.
func NewLamps(logger *slog.Logger, x, o OutputLine, period time.Duration, clk clock.Clock) (*Lamps, error) {
	if clk == nil {
		clk = clock.New()
	}

	if period <= 0 {
		period = DefaultFlashPeriod
	}

	that := &Lamps{
		logger: logger.With("component", "lamps"),
		clock:  clk,
		period: period,
		x:      x,
		o:      o,
	}

	if err := that.set(gpio.Low, gpio.Low); err != nil {
		return nil, err
	}

	return that, nil
}

// Indicate - lights the lamp of player and switches the other one off.
// EmptyCell switches both off.
func (that *Lamps) Indicate(_ context.Context, player entity.Mark) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	switch player {
	case entity.PlayerX:
		return that.set(gpio.High, gpio.Low)
	case entity.PlayerO:
		return that.set(gpio.Low, gpio.High)
	default:
		return that.set(gpio.Low, gpio.Low)
	}
}

// Flash - blinks the winner's lamp times on/off cycles. The other lamp stays
// off and the winner's lamp is off when Flash returns.
func (that *Lamps) Flash(ctx context.Context, player entity.Mark, times int) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	lamp := that.lamp(player)
	if lamp == nil {
		return nil
	}

	if err := that.set(gpio.Low, gpio.Low); err != nil {
		return err
	}

	for i := 0; i < times; i++ {
		if err := lamp.Out(gpio.High); err != nil {
			return fmt.Errorf("could not switch %s on: %w", lamp.Name(), err)
		}

		if err := that.sleep(ctx); err != nil {
			_ = lamp.Out(gpio.Low)
			return err
		}

		if err := lamp.Out(gpio.Low); err != nil {
			return fmt.Errorf("could not switch %s off: %w", lamp.Name(), err)
		}

		if err := that.sleep(ctx); err != nil {
			return err
		}
	}

	return nil
}

func (that *Lamps) AllOff(context.Context) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.set(gpio.Low, gpio.Low)
}

// Close - switches both lamps off and releases the lines.
func (that *Lamps) Close() error {
	that.mu.Lock()
	defer that.mu.Unlock()

	err := that.set(gpio.Low, gpio.Low)

	for _, line := range []OutputLine{that.x, that.o} {
		if haltErr := line.Halt(); haltErr != nil {
			err = multierr.Append(err, fmt.Errorf("could not halt %s: %w", line.Name(), haltErr))
		}
	}

	return err
}

func (that *Lamps) lamp(player entity.Mark) OutputLine {
	switch player {
	case entity.PlayerX:
		return that.x
	case entity.PlayerO:
		return that.o
	default:
		return nil
	}
}

func (that *Lamps) set(x, o gpio.Level) error {
	if err := that.x.Out(x); err != nil {
		return fmt.Errorf("could not drive %s: %w", that.x.Name(), err)
	}

	if err := that.o.Out(o); err != nil {
		return fmt.Errorf("could not drive %s: %w", that.o.Name(), err)
	}

	return nil
}

func (that *Lamps) sleep(ctx context.Context) error {
	timer := that.clock.Timer(that.period)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
