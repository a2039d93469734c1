// Package matrix renders the board on nine 8x8 WS2812B panels, three per
// data line.
package matrix

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"

	"github.com/rocketscienceinc/tictactoe-board/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-board/internal/entity"
)

var ErrStripCount = errors.New("one strip per board row is required")

// Strip is one chain of three panels. Write takes RGB triplets for every
// pixel of the chain.
type Strip interface {
	Write(pixels []byte) (int, error)
	Halt() error
}

type Timings struct {
	StartupReveal time.Duration
	StartupHold   time.Duration
	FadeStep      time.Duration
	WinStep       time.Duration
	FlashPhase    time.Duration
	DrawStep      time.Duration
}

func DefaultTimings() Timings {
	return Timings{
		StartupReveal: 100 * time.Millisecond,
		StartupHold:   2500 * time.Millisecond,
		FadeStep:      100 * time.Millisecond,
		WinStep:       150 * time.Millisecond,
		FlashPhase:    200 * time.Millisecond,
		DrawStep:      50 * time.Millisecond,
	}
}

const (
	fadeSteps   = 10
	winCycles   = 3
	winFlashes  = 4
	drawPulses  = 3
	drawMaxStep = 10
)

// Display keeps a frame per strip and pushes the whole strip on each change.
type Display struct {
	logger  *slog.Logger
	clock   clock.Clock
	timings Timings

	mu         sync.Mutex
	strips     [entity.GridSize]Strip
	frames     [entity.GridSize][PixelsPerStrip]color.RGBA
	brightness float64
}

func NewDisplay(logger *slog.Logger, strips []Strip, brightness float64, timings Timings, clk clock.Clock) (*Display, error) {
	if len(strips) != entity.GridSize {
		return nil, fmt.Errorf("%w: got %d", ErrStripCount, len(strips))
	}

	if clk == nil {
		clk = clock.New()
	}

	if brightness <= 0 || brightness > 1 {
		brightness = 1
	}

	that := &Display{
		logger:     logger.With("component", "matrix"),
		clock:      clk,
		timings:    timings,
		brightness: brightness,
	}
	copy(that.strips[:], strips)

	if err := that.ClearAll(context.Background()); err != nil {
		return nil, err
	}

	return that, nil
}

func (that *Display) ShowMark(_ context.Context, cell int, mark entity.Mark) error {
	glyph, c, ok := GlyphFor(mark)
	if !ok {
		return that.ClearCell(context.Background(), cell)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.drawGlyph(cell, glyph, c); err != nil {
		return err
	}

	return that.flush(rowOf(cell), 1)
}

func (that *Display) ClearCell(_ context.Context, cell int) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.fillPanel(cell, ColorOff); err != nil {
		return err
	}

	return that.flush(rowOf(cell), 1)
}

func (that *Display) ClearAll(context.Context) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.frames = [entity.GridSize][PixelsPerStrip]color.RGBA{}

	return that.flushAll(1)
}

// RunStartup - reveals "TIC TAC TOE" one panel at a time, holds it, fades it
// out and clears the board.
func (that *Display) RunStartup(ctx context.Context) error {
	that.logger.Info("running startup sequence")

	for cell, glyph := range StartupLetters {
		if err := that.withLock(func() error {
			if err := that.drawGlyph(cell, glyph, ColorStartup); err != nil {
				return err
			}

			return that.flush(rowOf(cell), 1)
		}); err != nil {
			return err
		}

		if err := that.sleep(ctx, that.timings.StartupReveal); err != nil {
			return err
		}
	}

	if err := that.sleep(ctx, that.timings.StartupHold); err != nil {
		return err
	}

	for step := fadeSteps; step > 0; step-- {
		level := float64(step) / fadeSteps
		if err := that.withLock(func() error { return that.flushAll(level) }); err != nil {
			return err
		}

		if err := that.sleep(ctx, that.timings.FadeStep); err != nil {
			return err
		}
	}

	return that.ClearAll(ctx)
}

// AnimateWin - cycles the rainbow over the winning panels, then flashes them
// white and leaves them dark.
func (that *Display) AnimateWin(ctx context.Context, line entity.Line) error {
	for _, cell := range line {
		if !entity.IsValidCell(cell) {
			return fmt.Errorf("cell %d: %w", cell, apperror.ErrInvalidCell)
		}
	}

	for cycle := 0; cycle < winCycles; cycle++ {
		for _, c := range WinColors {
			if err := that.fillLine(line, c); err != nil {
				return err
			}

			if err := that.sleep(ctx, that.timings.WinStep); err != nil {
				return err
			}
		}
	}

	for flash := 0; flash < winFlashes; flash++ {
		if err := that.fillLine(line, ColorFlash); err != nil {
			return err
		}

		if err := that.sleep(ctx, that.timings.FlashPhase); err != nil {
			return err
		}

		if err := that.fillLine(line, ColorOff); err != nil {
			return err
		}

		if err := that.sleep(ctx, that.timings.FlashPhase); err != nil {
			return err
		}
	}

	return nil
}

// AnimateDraw - pulses every panel purple, ending dark.
func (that *Display) AnimateDraw(ctx context.Context) error {
	pulse := func(step int) error {
		c := scale(ColorDraw, float64(step)/drawMaxStep)

		if err := that.withLock(func() error {
			for cell := 0; cell < entity.CellCount; cell++ {
				if err := that.fillPanel(cell, c); err != nil {
					return err
				}
			}

			return that.flushAll(1)
		}); err != nil {
			return err
		}

		return that.sleep(ctx, that.timings.DrawStep)
	}

	for i := 0; i < drawPulses; i++ {
		for step := 0; step <= drawMaxStep; step++ {
			if err := pulse(step); err != nil {
				return err
			}
		}

		for step := drawMaxStep; step >= 0; step-- {
			if err := pulse(step); err != nil {
				return err
			}
		}
	}

	return nil
}

// Close - blanks every strip and halts it.
func (that *Display) Close() error {
	err := that.ClearAll(context.Background())

	that.mu.Lock()
	defer that.mu.Unlock()

	for row, strip := range that.strips {
		if haltErr := strip.Halt(); haltErr != nil {
			err = multierr.Append(err, fmt.Errorf("could not halt strip %d: %w", row, haltErr))
		}
	}

	return err
}

func (that *Display) fillLine(line entity.Line, c color.RGBA) error {
	return that.withLock(func() error {
		rows := map[int]struct{}{}

		for _, cell := range line {
			if err := that.fillPanel(cell, c); err != nil {
				return err
			}

			rows[rowOf(cell)] = struct{}{}
		}

		for row := range rows {
			if err := that.flush(row, 1); err != nil {
				return err
			}
		}

		return nil
	})
}

func (that *Display) drawGlyph(cell int, glyph Glyph, c color.RGBA) error {
	if err := that.fillPanel(cell, ColorOff); err != nil {
		return err
	}

	frame := &that.frames[rowOf(cell)]
	offset := colOf(cell) * PixelsPerPanel

	for _, pixel := range glyph.Pixels() {
		frame[offset+pixel] = c
	}

	return nil
}

func (that *Display) fillPanel(cell int, c color.RGBA) error {
	if !entity.IsValidCell(cell) {
		return fmt.Errorf("cell %d: %w", cell, apperror.ErrInvalidCell)
	}

	frame := &that.frames[rowOf(cell)]
	offset := colOf(cell) * PixelsPerPanel

	for i := 0; i < PixelsPerPanel; i++ {
		frame[offset+i] = c
	}

	return nil
}

func (that *Display) flushAll(level float64) error {
	for row := range that.strips {
		if err := that.flush(row, level); err != nil {
			return err
		}
	}

	return nil
}

// flush writes the row's frame scaled by the configured brightness and level.
func (that *Display) flush(row int, level float64) error {
	buf := make([]byte, 0, stripFrameBytes)
	factor := that.brightness * level

	for _, px := range that.frames[row] {
		c := scale(px, factor)
		buf = append(buf, c.R, c.G, c.B)
	}

	if _, err := that.strips[row].Write(buf); err != nil {
		return fmt.Errorf("could not write strip %d: %w", row, err)
	}

	return nil
}

func (that *Display) withLock(fn func() error) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	return fn()
}

func (that *Display) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := that.clock.Timer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func rowOf(cell int) int {
	return cell / entity.GridSize
}

func colOf(cell int) int {
	return cell % entity.GridSize
}
