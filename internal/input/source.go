// Package input turns raw switch transitions into debounced cell presses.
package input

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/rocketscienceinc/tictactoe-board/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-board/internal/entity"
)

const DefaultDebounceInterval = 200 * time.Millisecond

var ErrChannelCount = errors.New("a channel is required for every cell")

// SwitchPanel is the physical (or simulated) switch interface. notify is
// called from the panel's own goroutines with the raw channel identifier.
type SwitchPanel interface {
	Subscribe(notify func(channel int)) error
	IsActuated(channel int) bool
	Close() error
}

// Handler receives one call per accepted press with the cell index.
type Handler func(cell int)

type channelState struct {
	cell int

	mu           sync.Mutex
	lastAccepted time.Time
	accepted     bool
}

// Source debounces raw transitions per channel. The channel table is fixed at
// construction; only the per-channel timestamps change afterwards.
type Source struct {
	logger   *slog.Logger
	panel    SwitchPanel
	clock    clock.Clock
	interval time.Duration

	channels map[int]*channelState
	pins     [entity.CellCount]int
	handler  atomic.Pointer[Handler]
}

// NewSource - maps pins[cell] to cell and subscribes to the panel.
func NewSource(logger *slog.Logger, panel SwitchPanel, pins []int, interval time.Duration, clk clock.Clock) (*Source, error) {
	if len(pins) != entity.CellCount {
		return nil, fmt.Errorf("%w: got %d", ErrChannelCount, len(pins))
	}

	if clk == nil {
		clk = clock.New()
	}

	if interval <= 0 {
		interval = DefaultDebounceInterval
	}

	that := &Source{
		logger:   logger.With("component", "input"),
		panel:    panel,
		clock:    clk,
		interval: interval,
		channels: make(map[int]*channelState, entity.CellCount),
	}

	for cell, pin := range pins {
		if _, ok := that.channels[pin]; ok {
			return nil, fmt.Errorf("%w: pin %d used twice", ErrChannelCount, pin)
		}

		that.channels[pin] = &channelState{cell: cell}
		that.pins[cell] = pin
	}

	if err := panel.Subscribe(that.onTransition); err != nil {
		return nil, fmt.Errorf("could not subscribe to switch panel: %w", err)
	}

	return that, nil
}

// SetHandler - installs h as the downstream target and returns the previous one.
func (that *Source) SetHandler(h Handler) Handler {
	var next *Handler
	if h != nil {
		next = &h
	}

	prev := that.handler.Swap(next)
	if prev == nil {
		return nil
	}

	return *prev
}

// IsPressed - reads the instantaneous switch state for a cell.
func (that *Source) IsPressed(cell int) bool {
	if !entity.IsValidCell(cell) {
		return false
	}

	return that.panel.IsActuated(that.pins[cell])
}

// WaitForPress - blocks until the next accepted press and returns its cell.
// The current handler is suspended for the duration of the wait.
func (that *Source) WaitForPress(ctx context.Context) (int, error) {
	pressed := make(chan int, 1)

	prev := that.SetHandler(func(cell int) {
		select {
		case pressed <- cell:
		default:
		}
	})
	defer that.SetHandler(prev)

	select {
	case cell := <-pressed:
		return cell, nil
	case <-ctx.Done():
		return 0, fmt.Errorf("wait for press: %w", ctx.Err())
	}
}

// Close - releases the switch panel.
func (that *Source) Close() error {
	if err := that.panel.Close(); err != nil {
		return fmt.Errorf("could not release switch panel: %w", err)
	}

	return nil
}

// onTransition runs on the panel's goroutine and must stay short.
func (that *Source) onTransition(channel int) {
	state, ok := that.channels[channel]
	if !ok {
		that.logger.Debug("transition ignored", "channel", channel, "error", apperror.ErrUnknownChannel)
		return
	}

	if !state.accept(that.clock.Now(), that.interval) {
		return
	}

	if h := that.handler.Load(); h != nil {
		(*h)(state.cell)
	}
}

func (that *channelState) accept(now time.Time, interval time.Duration) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.accepted && now.Sub(that.lastAccepted) < interval {
		return false
	}

	that.lastAccepted = now
	that.accepted = true

	return true
}
