package entity

import (
	"strings"
)

const (
	CellCount = 9
	GridSize  = 3
)

// Mark is the content of a cell and doubles as the player identifier.
type Mark uint8

const (
	EmptyCell Mark = iota
	PlayerX
	PlayerO
)

func (that Mark) String() string {
	switch that {
	case PlayerX:
		return "X"
	case PlayerO:
		return "O"
	default:
		return ""
	}
}

// Opponent returns the other player. EmptyCell has no opponent.
func (that Mark) Opponent() Mark {
	switch that {
	case PlayerX:
		return PlayerO
	case PlayerO:
		return PlayerX
	default:
		return EmptyCell
	}
}

type Status uint8

const (
	StatusInProgress Status = iota
	StatusWon
	StatusDraw
)

func (that Status) String() string {
	switch that {
	case StatusWon:
		return "won"
	case StatusDraw:
		return "draw"
	default:
		return "in_progress"
	}
}

func (that Status) IsTerminal() bool {
	return that == StatusWon || that == StatusDraw
}

// Line is a winning triple of cell indices.
type Line [3]int

// WinCombos is scanned in order: rows, columns, then the two diagonals.
var WinCombos = [8]Line{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

type Board [CellCount]Mark

func (that Board) IsFull() bool {
	for _, cell := range that {
		if cell == EmptyCell {
			return false
		}
	}

	return true
}

// Strings returns the board as "X", "O" or "" per cell.
func (that Board) Strings() [CellCount]string {
	var out [CellCount]string
	for i, cell := range that {
		out[i] = cell.String()
	}

	return out
}

// String renders the board as a three line grid for debug output.
func (that Board) String() string {
	var sb strings.Builder

	for row := 0; row < GridSize; row++ {
		for col := 0; col < GridSize; col++ {
			symbol := that[row*GridSize+col].String()
			if symbol == "" {
				symbol = " "
			}

			sb.WriteString(" " + symbol + " ")
			if col < GridSize-1 {
				sb.WriteString("|")
			}
		}

		if row < GridSize-1 {
			sb.WriteString("\n-----------\n")
		}
	}

	return sb.String()
}

func IsValidCell(cell int) bool {
	return cell >= 0 && cell < CellCount
}

// Game is the single mutable session of the board. Line is meaningful only
// when Status is StatusWon.
type Game struct {
	Board  Board
	Turn   Mark
	Status Status
	Winner Mark
	Line   Line
}

func NewGame() *Game {
	return &Game{
		Turn:   PlayerX,
		Status: StatusInProgress,
	}
}

func (that *Game) IsFinished() bool {
	return that.Status.IsTerminal()
}

// Outcome is what a single accepted move produced.
type Outcome struct {
	Status Status
	Winner Mark
	Line   Line
	Turn   Mark
}

func (that Outcome) IsTerminal() bool {
	return that.Status.IsTerminal()
}

func (that Outcome) HasWinner() bool {
	return that.Status == StatusWon && that.Winner != EmptyCell
}
