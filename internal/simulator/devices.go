package simulator

import (
	"context"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-board/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-board/internal/entity"
)

// Switches are the virtual push buttons. The channel of a cell is the cell
// index itself.
type Switches struct {
	board *Board
}

func (that *Switches) Subscribe(notify func(channel int)) error {
	that.board.mu.Lock()
	defer that.board.mu.Unlock()

	that.board.notify = notify

	return nil
}

func (that *Switches) IsActuated(channel int) bool {
	if !entity.IsValidCell(channel) {
		return false
	}

	that.board.mu.Lock()
	defer that.board.mu.Unlock()

	return that.board.pressed[channel]
}

// Close - stops raising transitions.
func (that *Switches) Close() error {
	that.board.mu.Lock()
	defer that.board.mu.Unlock()

	that.board.notify = nil

	return nil
}

// Display shows marks and announces animations to clients.
type Display struct {
	board *Board
}

func (that *Display) ShowMark(_ context.Context, cell int, mark entity.Mark) error {
	return that.setCell(cell, mark.String())
}

func (that *Display) ClearCell(_ context.Context, cell int) error {
	return that.setCell(cell, "")
}

func (that *Display) ClearAll(context.Context) error {
	that.board.update(func() outbound {
		that.board.cells = [entity.CellCount]string{}
		return that.board.stateMessage()
	})

	return nil
}

func (that *Display) RunStartup(ctx context.Context) error {
	return that.board.play(ctx, outbound{Type: outboundAnimation, Animation: AnimationStartup})
}

func (that *Display) AnimateWin(ctx context.Context, line entity.Line) error {
	return that.board.play(ctx, outbound{Type: outboundAnimation, Animation: AnimationWin, Line: line[:]})
}

func (that *Display) AnimateDraw(ctx context.Context) error {
	return that.board.play(ctx, outbound{Type: outboundAnimation, Animation: AnimationDraw})
}

// Close - blanks the virtual display.
func (that *Display) Close() error {
	return that.ClearAll(context.Background())
}

func (that *Display) setCell(cell int, mark string) error {
	if !entity.IsValidCell(cell) {
		return fmt.Errorf("cell %d: %w", cell, apperror.ErrInvalidCell)
	}

	that.board.update(func() outbound {
		that.board.cells[cell] = mark
		return outbound{Type: outboundCell, Cell: &cell, Mark: &mark}
	})

	return nil
}

// Lamps are the virtual turn indicators.
type Lamps struct {
	board *Board
}

func (that *Lamps) Indicate(_ context.Context, player entity.Mark) error {
	that.set(lampState{X: player == entity.PlayerX, O: player == entity.PlayerO})

	return nil
}

func (that *Lamps) Flash(ctx context.Context, player entity.Mark, times int) error {
	that.set(lampState{})

	return that.board.play(ctx, outbound{
		Type:      outboundAnimation,
		Animation: AnimationFlash,
		Player:    player.String(),
		Times:     times,
	})
}

func (that *Lamps) AllOff(context.Context) error {
	that.set(lampState{})

	return nil
}

func (that *Lamps) Close() error {
	that.set(lampState{})

	return nil
}

func (that *Lamps) set(state lampState) {
	that.board.update(func() outbound {
		that.board.lamps = state
		return outbound{Type: outboundLamps, Lamps: &state}
	})
}
