package simulator

const (
	inboundDown = "down"
	inboundUp   = "up"

	outboundState     = "state"
	outboundCell      = "cell"
	outboundLamps     = "lamps"
	outboundAnimation = "animation"

	AnimationStartup = "startup"
	AnimationWin     = "win"
	AnimationDraw    = "draw"
	AnimationFlash   = "flash"
)

// inbound is a switch transition sent by a client.
type inbound struct {
	Type string `json:"type"`
	Cell int    `json:"cell"`
}

type lampState struct {
	X bool `json:"x"`
	O bool `json:"o"`
}

// outbound is what clients receive. Cell messages carry an empty mark when
// the cell is cleared.
type outbound struct {
	Type      string     `json:"type"`
	Cells     []string   `json:"cells,omitempty"`
	Cell      *int       `json:"cell,omitempty"`
	Mark      *string    `json:"mark,omitempty"`
	Lamps     *lampState `json:"lamps,omitempty"`
	Animation string     `json:"animation,omitempty"`
	Line      []int      `json:"line,omitempty"`
	Player    string     `json:"player,omitempty"`
	Times     int        `json:"times,omitempty"`
}
