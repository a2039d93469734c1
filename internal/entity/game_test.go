package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGame(t *testing.T) {
	// When: create a new game
	game := NewGame()

	// Then: the board is empty, X moves first and nothing is decided
	expectedGame := &Game{
		Board:  Board{},
		Turn:   PlayerX,
		Status: StatusInProgress,
		Winner: EmptyCell,
		Line:   Line{},
	}

	require.Equal(t, expectedGame, game)
	assert.False(t, game.IsFinished())
}

func TestMark(t *testing.T) {
	t.Run("String", func(t *testing.T) {
		assert.Equal(t, "X", PlayerX.String())
		assert.Equal(t, "O", PlayerO.String())
		assert.Equal(t, "", EmptyCell.String())
	})

	t.Run("Opponent", func(t *testing.T) {
		assert.Equal(t, PlayerO, PlayerX.Opponent())
		assert.Equal(t, PlayerX, PlayerO.Opponent())
		assert.Equal(t, EmptyCell, EmptyCell.Opponent())
	})
}

func TestStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusInProgress.IsTerminal())
	assert.True(t, StatusWon.IsTerminal())
	assert.True(t, StatusDraw.IsTerminal())
}

func TestWinCombos(t *testing.T) {
	// Then: every cell index is in range and rows come before columns and diagonals
	for _, combo := range WinCombos {
		for _, cell := range combo {
			assert.True(t, IsValidCell(cell))
		}
	}

	assert.Equal(t, Line{0, 1, 2}, WinCombos[0])
	assert.Equal(t, Line{0, 3, 6}, WinCombos[3])
	assert.Equal(t, Line{0, 4, 8}, WinCombos[6])
	assert.Equal(t, Line{2, 4, 6}, WinCombos[7])
}

func TestBoard(t *testing.T) {
	t.Run("IsFull", func(t *testing.T) {
		// Given: a board with one empty cell
		board := Board{
			PlayerX, PlayerO, PlayerX,
			PlayerO, PlayerX, PlayerO,
			PlayerO, PlayerX, EmptyCell,
		}

		// Then: it is not full until the last cell is taken
		assert.False(t, board.IsFull())

		board[8] = PlayerO
		assert.True(t, board.IsFull())
	})

	t.Run("String renders rows", func(t *testing.T) {
		board := Board{PlayerX, EmptyCell, PlayerO}

		expected := " X |   | O \n-----------\n   |   |   \n-----------\n   |   |   "
		assert.Equal(t, expected, board.String())
	})

	t.Run("Strings", func(t *testing.T) {
		board := Board{PlayerX, EmptyCell, PlayerO}

		assert.Equal(t, [CellCount]string{"X", "", "O", "", "", "", "", "", ""}, board.Strings())
	})
}

func TestIsValidCell(t *testing.T) {
	assert.True(t, IsValidCell(0))
	assert.True(t, IsValidCell(8))
	assert.False(t, IsValidCell(-1))
	assert.False(t, IsValidCell(9))
}

func TestNewSnapshot(t *testing.T) {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("Winning line is included only when won", func(t *testing.T) {
		// Given: a finished game won by X on the top row
		game := Game{
			Board:  Board{PlayerX, PlayerX, PlayerX, PlayerO, PlayerO},
			Turn:   PlayerX,
			Status: StatusWon,
			Winner: PlayerX,
			Line:   Line{0, 1, 2},
		}

		// When: taking a snapshot
		snapshot := NewSnapshot("round-1", game, false, at)

		// Then: it carries the winner and the line
		assert.Equal(t, "won", snapshot.Status)
		assert.Equal(t, "X", snapshot.Winner)
		assert.Equal(t, []int{0, 1, 2}, snapshot.WinningLine)
		assert.False(t, snapshot.Accepting)
	})

	t.Run("In progress has no line", func(t *testing.T) {
		snapshot := NewSnapshot("round-2", *NewGame(), true, at)

		assert.Equal(t, "in_progress", snapshot.Status)
		assert.Empty(t, snapshot.Winner)
		assert.Nil(t, snapshot.WinningLine)
		assert.Equal(t, "X", snapshot.Turn)
	})
}
