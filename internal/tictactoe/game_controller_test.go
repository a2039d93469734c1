package tictactoe

import (
	"testing"

	"github.com/rocketscienceinc/tictactoe-board/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-board/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// play applies cells in order and fails the test on any refusal.
func play(t *testing.T, controller *GameController, cells ...int) entity.Outcome {
	t.Helper()

	var outcome entity.Outcome
	for _, cell := range cells {
		var err error
		outcome, err = controller.Apply(cell)
		require.NoError(t, err, "cell %d", cell)
	}

	return outcome
}

func TestNewGameController(t *testing.T) {
	// When: a controller is created
	controller := NewGameController()

	// Then: the session corresponds to the initial state
	require.Equal(t, *entity.NewGame(), controller.Game())
	assert.Equal(t, entity.PlayerX, controller.Turn())
	assert.Equal(t, entity.StatusInProgress, controller.Status())
	assert.False(t, controller.IsFinished())

	_, ok := controller.WinningLine()
	assert.False(t, ok)
}

func TestGameController_Validate(t *testing.T) {
	t.Run("Empty cell in progress", func(t *testing.T) {
		controller := NewGameController()

		assert.True(t, controller.Validate(4))
	})

	t.Run("Out of range", func(t *testing.T) {
		controller := NewGameController()

		assert.False(t, controller.Validate(-1))
		assert.False(t, controller.Validate(9))
	})

	t.Run("Occupied cell", func(t *testing.T) {
		// Given: X has played cell 0
		controller := NewGameController()
		play(t, controller, 0)

		// Then: cell 0 is no longer valid, and nothing changed by asking
		before := controller.Game()
		assert.False(t, controller.Validate(0))
		assert.Equal(t, before, controller.Game())
	})

	t.Run("Finished game", func(t *testing.T) {
		// Given: X has won the top row
		controller := NewGameController()
		play(t, controller, 0, 3, 1, 4, 2)

		// Then: no empty cell is valid any more
		assert.False(t, controller.Validate(5))
	})
}

func TestGameController_Check(t *testing.T) {
	// Given: X has played cell 0
	controller := NewGameController()
	play(t, controller, 0)

	// Then: each refusal carries its own reason
	require.NoError(t, controller.Check(4))
	require.ErrorIs(t, controller.Check(0), apperror.ErrCellOccupied)
	require.ErrorIs(t, controller.Check(12), apperror.ErrInvalidCell)
	assert.NotErrorIs(t, controller.Check(12), apperror.ErrCellOccupied)
}

func TestGameController_Apply(t *testing.T) {
	t.Run("Apply", func(t *testing.T) {
		// Given: a new game
		controller := NewGameController()

		// When: X plays the centre
		outcome, err := controller.Apply(4)
		require.NoError(t, err)

		// Then: the mark is placed and the turn passes to O
		expected := entity.Outcome{Status: entity.StatusInProgress, Turn: entity.PlayerO}
		assert.Equal(t, expected, outcome)
		assert.Equal(t, entity.PlayerX, controller.Board()[4])
		assert.Equal(t, entity.PlayerO, controller.Turn())
	})

	t.Run("Error on cell already occupied", func(t *testing.T) {
		// Given: X has played cell 0
		controller := NewGameController()
		play(t, controller, 0)
		before := controller.Game()

		// When: O presses the same cell
		_, err := controller.Apply(0)

		// Then: the move is refused and the session is unchanged
		require.ErrorIs(t, err, apperror.ErrCellOccupied)
		assert.Equal(t, before, controller.Game())
		assert.Equal(t, entity.PlayerO, controller.Turn())
	})

	t.Run("Invalid Cell", func(t *testing.T) {
		controller := NewGameController()

		_, err := controller.Apply(20)
		assert.ErrorIs(t, err, apperror.ErrInvalidCell)

		_, err = controller.Apply(-1)
		assert.ErrorIs(t, err, apperror.ErrInvalidCell)

		assert.Equal(t, *entity.NewGame(), controller.Game())
	})

	t.Run("Move After Game Finished", func(t *testing.T) {
		// Given: X has already won
		controller := NewGameController()
		play(t, controller, 0, 3, 1, 4, 2)
		before := controller.Game()

		// When: another cell is pressed
		_, err := controller.Apply(5)

		// Then: ErrGameFinished is returned and nothing changes
		require.ErrorIs(t, err, apperror.ErrGameFinished)
		assert.Equal(t, before, controller.Game())
	})

	t.Run("Every cell is accepted exactly once", func(t *testing.T) {
		// Given: a draw sequence that fills the board
		controller := NewGameController()
		order := []int{0, 1, 2, 4, 3, 5, 7, 6, 8}

		for i, cell := range order {
			// When: a cell is played for the first time it is accepted
			_, err := controller.Apply(cell)
			require.NoError(t, err)

			// Then: every earlier cell is refused on a repeat press
			for _, played := range order[:i+1] {
				assert.False(t, controller.Validate(played))
			}
		}

		assert.True(t, controller.Board().IsFull())
	})
}

func TestGameController_Win(t *testing.T) {
	// filler returns two cells outside the line for the opponent so that the
	// opponent never completes a line of its own before the winner does.
	filler := func(line entity.Line) []int {
		used := map[int]bool{line[0]: true, line[1]: true, line[2]: true}
		var cells []int
		for _, candidate := range []int{0, 1, 2, 3, 4, 5, 6, 7, 8} {
			if used[candidate] {
				continue
			}
			cells = append(cells, candidate)
			if len(cells) == 2 {
				break
			}
		}

		return cells
	}

	for _, line := range entity.WinCombos {
		t.Run("X wins "+formatLine(line), func(t *testing.T) {
			// Given: X plays the line, O plays elsewhere
			controller := NewGameController()
			other := filler(line)

			// When: the moves alternate X, O, X, O, X
			outcome := play(t, controller, line[0], other[0], line[1], other[1], line[2])

			// Then: X has won on exactly this line
			assert.Equal(t, entity.StatusWon, outcome.Status)
			assert.Equal(t, entity.PlayerX, outcome.Winner)
			assert.Equal(t, line, outcome.Line)
			assert.Equal(t, entity.PlayerX, controller.Winner())

			winning, ok := controller.WinningLine()
			require.True(t, ok)
			assert.Equal(t, line, winning)
		})

		t.Run("O wins "+formatLine(line), func(t *testing.T) {
			// Given: O plays the line, X plays three cells that never form a line
			controller := NewGameController()
			xCells := nonWinningCells(line)

			// When: the moves alternate X, O, X, O, X, O
			outcome := play(t, controller, xCells[0], line[0], xCells[1], line[1], xCells[2], line[2])

			// Then: O has won on exactly this line
			assert.Equal(t, entity.StatusWon, outcome.Status)
			assert.Equal(t, entity.PlayerO, outcome.Winner)
			assert.Equal(t, line, outcome.Line)
		})
	}

	t.Run("Earliest combo wins when two lines complete at once", func(t *testing.T) {
		// Given: X owns 1,2 (top row) and 3,6 (left column); O owns 4,5,7,8
		controller := NewGameController()
		play(t, controller, 1, 4, 2, 5, 3, 7, 6, 8)

		// When: X plays cell 0, completing the row and the column and filling the board
		outcome, err := controller.Apply(0)
		require.NoError(t, err)

		// Then: it is a win (not a draw) on the row, which comes first
		assert.Equal(t, entity.StatusWon, outcome.Status)
		assert.Equal(t, entity.PlayerX, outcome.Winner)
		assert.Equal(t, entity.Line{0, 1, 2}, outcome.Line)
		assert.True(t, controller.Board().IsFull())
	})
}

func TestGameController_Draw(t *testing.T) {
	t.Run("Draw", func(t *testing.T) {
		// Given: a sequence where nobody ever owns a full line
		controller := NewGameController()

		// When: all nine cells are filled
		outcome := play(t, controller, 0, 1, 2, 4, 3, 5, 7, 6, 8)

		// Then: the game is a draw without winner or line
		assert.Equal(t, entity.StatusDraw, outcome.Status)
		assert.Equal(t, entity.EmptyCell, outcome.Winner)
		assert.Equal(t, entity.Line{}, outcome.Line)
		assert.True(t, controller.IsFinished())

		_, ok := controller.WinningLine()
		assert.False(t, ok)
	})

	t.Run("Last cell completing a line is a win", func(t *testing.T) {
		// Given: the order 0,1,2,3,4,6,5,7 leaves X on 0,2,4,5
		controller := NewGameController()
		play(t, controller, 0, 1, 2, 3, 4, 6, 5, 7)

		// When: X fills the last cell 8
		outcome, err := controller.Apply(8)
		require.NoError(t, err)

		// Then: it is a win even though the board is full; 8 completes both the
		// right column and the diagonal, and the column comes first
		assert.Equal(t, entity.StatusWon, outcome.Status)
		assert.Equal(t, entity.PlayerX, outcome.Winner)
		assert.Equal(t, entity.Line{2, 5, 8}, outcome.Line)
		assert.True(t, controller.Board().IsFull())
	})
}

func TestGameController_Reset(t *testing.T) {
	t.Run("After a win", func(t *testing.T) {
		// Given: a won game
		controller := NewGameController()
		play(t, controller, 0, 3, 1, 4, 2)

		// When: resetting
		controller.Reset()

		// Then: the session equals the initial session
		assert.Equal(t, *entity.NewGame(), controller.Game())
	})

	t.Run("After a draw", func(t *testing.T) {
		controller := NewGameController()
		play(t, controller, 0, 1, 2, 4, 3, 5, 7, 6, 8)

		controller.Reset()

		assert.Equal(t, *entity.NewGame(), controller.Game())
	})

	t.Run("Idempotent", func(t *testing.T) {
		controller := NewGameController()

		controller.Reset()
		controller.Reset()

		assert.Equal(t, *entity.NewGame(), controller.Game())
		assert.True(t, controller.Validate(0))
	})

	t.Run("Same session instance is reused", func(t *testing.T) {
		controller := NewGameController()
		session := controller.game

		play(t, controller, 4)
		controller.Reset()

		assert.Same(t, session, controller.game)
	})
}

func TestFindWinningLine(t *testing.T) {
	t.Run("Winner X", func(t *testing.T) {
		board := entity.Board{
			entity.PlayerX, entity.PlayerO, entity.EmptyCell,
			entity.PlayerX, entity.PlayerO, entity.EmptyCell,
			entity.PlayerX, entity.EmptyCell, entity.EmptyCell,
		}

		line, ok := findWinningLine(board, entity.PlayerX)

		require.True(t, ok)
		assert.Equal(t, entity.Line{0, 3, 6}, line)
	})

	t.Run("Only the given player is checked", func(t *testing.T) {
		board := entity.Board{entity.PlayerO, entity.PlayerO, entity.PlayerO}

		_, ok := findWinningLine(board, entity.PlayerX)

		assert.False(t, ok)
	})
}

func formatLine(line entity.Line) string {
	return string(rune('0'+line[0])) + string(rune('0'+line[1])) + string(rune('0'+line[2]))
}

// nonWinningCells returns three cells outside line that contain no combo
// together.
func nonWinningCells(line entity.Line) []int {
	used := map[int]bool{line[0]: true, line[1]: true, line[2]: true}

	var free []int
	for cell := 0; cell < entity.CellCount; cell++ {
		if !used[cell] {
			free = append(free, cell)
		}
	}

	for i := 0; i < len(free); i++ {
		for j := i + 1; j < len(free); j++ {
			for k := j + 1; k < len(free); k++ {
				candidate := entity.Board{}
				candidate[free[i]] = entity.PlayerX
				candidate[free[j]] = entity.PlayerX
				candidate[free[k]] = entity.PlayerX

				if _, ok := findWinningLine(candidate, entity.PlayerX); !ok {
					return []int{free[i], free[j], free[k]}
				}
			}
		}
	}

	return nil
}
