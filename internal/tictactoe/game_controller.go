package tictactoe

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-board/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-board/internal/entity"
)

// GameController is the rule engine of the board. It owns a single session
// and mutates it in place; it is not safe for concurrent use.
type GameController struct {
	game *entity.Game
}

func NewGameController() *GameController {
	return &GameController{
		game: entity.NewGame(),
	}
}

// Validate - reports whether the cell can be played right now.
func (that *GameController) Validate(cell int) bool {
	return that.validateMove(cell) == nil
}

// Check - like Validate, but returns the reason the cell cannot be played.
func (that *GameController) Check(cell int) error {
	return that.validateMove(cell)
}

// Apply - places the active player's mark and resolves the result. An illegal
// move is refused with an error and leaves the session untouched.
func (that *GameController) Apply(cell int) (entity.Outcome, error) {
	if err := that.validateMove(cell); err != nil {
		return entity.Outcome{}, fmt.Errorf("invalid turn: %w", err)
	}

	player := that.game.Turn
	that.game.Board[cell] = player
	that.updateGameStatus(player)

	return that.outcome(), nil
}

// Reset - starts a new round on the same session.
func (that *GameController) Reset() {
	that.game.Board = entity.Board{}
	that.game.Turn = entity.PlayerX
	that.game.Status = entity.StatusInProgress
	that.game.Winner = entity.EmptyCell
	that.game.Line = entity.Line{}
}

func (that *GameController) Board() entity.Board {
	return that.game.Board
}

func (that *GameController) Turn() entity.Mark {
	return that.game.Turn
}

func (that *GameController) Status() entity.Status {
	return that.game.Status
}

func (that *GameController) IsFinished() bool {
	return that.game.IsFinished()
}

func (that *GameController) Winner() entity.Mark {
	return that.game.Winner
}

func (that *GameController) WinningLine() (entity.Line, bool) {
	if that.game.Status != entity.StatusWon {
		return entity.Line{}, false
	}

	return that.game.Line, true
}

// Game - returns a copy of the session.
func (that *GameController) Game() entity.Game {
	return *that.game
}

// validateMove - checks if the move is valid.
func (that *GameController) validateMove(cell int) error {
	if !entity.IsValidCell(cell) {
		return fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	if that.game.IsFinished() {
		return apperror.ErrGameFinished
	}

	if that.game.Board[cell] != entity.EmptyCell {
		return fmt.Errorf("%w: cell %d", apperror.ErrCellOccupied, cell)
	}

	return nil
}

// updateGameStatus - checks the game status after a move. A win is checked
// before a full board, so completing a line with the last cell is a win.
func (that *GameController) updateGameStatus(player entity.Mark) {
	if line, ok := findWinningLine(that.game.Board, player); ok {
		that.game.Status = entity.StatusWon
		that.game.Winner = player
		that.game.Line = line

		return
	}

	if that.game.Board.IsFull() {
		that.game.Status = entity.StatusDraw
		that.game.Winner = entity.EmptyCell

		return
	}

	that.game.Turn = player.Opponent()
}

func (that *GameController) outcome() entity.Outcome {
	line, _ := that.WinningLine()

	return entity.Outcome{
		Status: that.game.Status,
		Winner: that.game.Winner,
		Line:   line,
		Turn:   that.game.Turn,
	}
}

// findWinningLine - returns the first combo fully owned by player.
func findWinningLine(board entity.Board, player entity.Mark) (entity.Line, bool) {
	for _, combo := range entity.WinCombos {
		if board[combo[0]] == player && board[combo[1]] == player && board[combo[2]] == player {
			return combo, true
		}
	}

	return entity.Line{}, false
}
