package entity

import "time"

// Snapshot is a read-only copy of the board published for observers.
type Snapshot struct {
	RoundID     string            `json:"round_id"`
	Board       [CellCount]string `json:"board"`
	Turn        string            `json:"player_turn"`
	Status      string            `json:"status"`
	Winner      string            `json:"winner,omitempty"`
	WinningLine []int             `json:"winning_line,omitempty"`
	Accepting   bool              `json:"accepting"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func NewSnapshot(roundID string, game Game, accepting bool, at time.Time) *Snapshot {
	snapshot := &Snapshot{
		RoundID:   roundID,
		Board:     game.Board.Strings(),
		Turn:      game.Turn.String(),
		Status:    game.Status.String(),
		Winner:    game.Winner.String(),
		Accepting: accepting,
		UpdatedAt: at,
	}

	if game.Status == StatusWon {
		snapshot.WinningLine = game.Line[:]
	}

	return snapshot
}

const (
	EventRoundStarted = "round_started"
	EventMove         = "move"
	EventWon          = "won"
	EventDraw         = "draw"
	EventReset        = "reset"
)

// Event is published to external observers on every game transition.
type Event struct {
	Type    string    `json:"type"`
	RoundID string    `json:"round_id"`
	Cell    *int      `json:"cell,omitempty"`
	Mark    string    `json:"mark,omitempty"`
	Winner  string    `json:"winner,omitempty"`
	Line    []int     `json:"line,omitempty"`
	At      time.Time `json:"at"`
}
