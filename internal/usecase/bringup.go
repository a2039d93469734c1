package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/tictactoe-board/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-board/internal/entity"
)

type pressWaiter interface {
	WaitForPress(ctx context.Context) (int, error)
	IsPressed(cell int) bool
	Close() error
}

// BringUp is a wiring check for a freshly assembled board: every press
// toggles an X on its cell and lights the X lamp while any cell is marked.
type BringUp struct {
	logger  *slog.Logger
	input   pressWaiter
	display DisplayPanel
	lamps   TurnLamps

	marked [entity.CellCount]bool
}

func NewBringUp(logger *slog.Logger, source pressWaiter, display DisplayPanel, lamps TurnLamps) *BringUp {
	return &BringUp{
		logger:  logger.With("component", "bringup"),
		input:   source,
		display: display,
		lamps:   lamps,
	}
}

func (that *BringUp) Run(ctx context.Context) error {
	log := that.logger.With("method", "Run")

	if err := that.display.RunStartup(ctx); err != nil {
		if interrupted(ctx, err) {
			log.Info("stopped during startup", "error", err)
			return nil
		}

		return fmt.Errorf("startup failed: %w", err)
	}

	if err := that.lamps.AllOff(ctx); err != nil {
		return fmt.Errorf("could not switch lamps off: %w", err)
	}

	log.Info("bring-up ready, press any cell")

	for {
		cell, err := that.input.WaitForPress(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				log.Info("stopping bring-up")
				return nil
			}

			return fmt.Errorf("could not wait for press: %w", err)
		}

		log.Info("button pressed", "cell", cell, "held", that.input.IsPressed(cell))

		if err = that.toggle(ctx, cell); err != nil {
			log.Error("could not update cell", "cell", cell, "error", err)
		}
	}
}

func (that *BringUp) Shutdown() error {
	return release(that.display, that.lamps, that.input)
}

func (that *BringUp) toggle(ctx context.Context, cell int) error {
	if !entity.IsValidCell(cell) {
		return fmt.Errorf("cell %d: %w", cell, apperror.ErrInvalidCell)
	}

	that.marked[cell] = !that.marked[cell]

	var err error
	if that.marked[cell] {
		err = that.display.ShowMark(ctx, cell, entity.PlayerX)
	} else {
		err = that.display.ClearCell(ctx, cell)
	}

	if err != nil {
		return err
	}

	for _, marked := range that.marked {
		if marked {
			return that.lamps.Indicate(ctx, entity.PlayerX)
		}
	}

	return that.lamps.AllOff(ctx)
}
