// Package simulator is a virtual board for development machines: switches,
// cell display and turn lamps live in memory and are mirrored to browser
// clients over a websocket.
package simulator

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-board/internal/entity"
)

const (
	DefaultAnimationDuration = 1500 * time.Millisecond

	clientQueueSize = 64
	pingInterval    = 30 * time.Second
	readDeadline    = 60 * time.Second
	writeDeadline   = 10 * time.Second
)

// Board holds the virtual hardware state shared by the three facets.
type Board struct {
	logger    *slog.Logger
	clock     clock.Clock
	animation time.Duration
	upgrader  websocket.Upgrader

	mu      sync.Mutex
	cells   [entity.CellCount]string
	lamps   lampState
	pressed [entity.CellCount]bool
	notify  func(channel int)
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func New(logger *slog.Logger, animation time.Duration, clk clock.Clock) *Board {
	if clk == nil {
		clk = clock.New()
	}

	if animation < 0 {
		animation = DefaultAnimationDuration
	}

	return &Board{
		logger:    logger.With("component", "simulator"),
		clock:     clk,
		animation: animation,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Channels - the virtual channel of every cell, in cell order.
func Channels() []int {
	channels := make([]int, entity.CellCount)
	for cell := range channels {
		channels[cell] = cell
	}

	return channels
}

func (that *Board) Switches() *Switches {
	return &Switches{board: that}
}

func (that *Board) Display() *Display {
	return &Display{board: that}
}

func (that *Board) Lamps() *Lamps {
	return &Lamps{board: that}
}

// ServeHTTP - upgrades the request to a websocket, sends the full state and
// serves the client until it disconnects.
func (that *Board) ServeHTTP(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "ServeHTTP")

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Error("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, clientQueueSize),
	}

	that.mu.Lock()
	that.clients[c] = struct{}{}
	that.send(c, that.stateMessage())
	that.mu.Unlock()

	log.Info("client connected", "remote", req.RemoteAddr)

	go that.writePump(c)
	that.readPump(c)
}

// Close - disconnects every client.
func (that *Board) Close() error {
	that.mu.Lock()
	defer that.mu.Unlock()

	for c := range that.clients {
		delete(that.clients, c)
		close(c.send)
	}

	return nil
}

func (that *Board) readPump(c *client) {
	defer that.removeClient(c)

	_ = c.conn.SetReadDeadline(time.Now().Add(readDeadline))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(readDeadline))
	})

	for {
		var msg inbound
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				that.logger.Warn("websocket read failed", "error", err)
			}

			return
		}

		that.handleInbound(msg)
	}
}

func (that *Board) writePump(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))

			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (that *Board) removeClient(c *client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.clients[c]; ok {
		delete(that.clients, c)
		close(c.send)
	}
}

// handleInbound runs on the client's read goroutine, which plays the role of
// the switch panel's edge-detection thread.
func (that *Board) handleInbound(msg inbound) {
	if !entity.IsValidCell(msg.Cell) {
		that.logger.Debug("ignoring message for unknown cell", "cell", msg.Cell)
		return
	}

	that.mu.Lock()

	var notify func(channel int)

	switch msg.Type {
	case inboundDown:
		that.pressed[msg.Cell] = true
		notify = that.notify
	case inboundUp:
		that.pressed[msg.Cell] = false
	default:
		that.logger.Debug("ignoring unknown message", "type", msg.Type)
	}

	that.mu.Unlock()

	if notify != nil {
		notify(msg.Cell)
	}
}

// broadcast must be called with mu held.
func (that *Board) broadcast(msg outbound) {
	for c := range that.clients {
		that.send(c, msg)
	}
}

// send must be called with mu held. A slow client loses messages rather than
// stalling the game.
func (that *Board) send(c *client, msg outbound) {
	data, err := json.Marshal(msg)
	if err != nil {
		that.logger.Error("could not marshal message", "type", msg.Type, "error", err)
		return
	}

	select {
	case c.send <- data:
	default:
		that.logger.Warn("client queue full, message dropped", "type", msg.Type)
	}
}

func (that *Board) stateMessage() outbound {
	cells := that.cells
	lamps := that.lamps

	return outbound{Type: outboundState, Cells: cells[:], Lamps: &lamps}
}

func (that *Board) update(fn func() outbound) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.broadcast(fn())
}

// play announces an animation and blocks for its duration.
func (that *Board) play(ctx context.Context, msg outbound) error {
	that.update(func() outbound { return msg })

	if that.animation <= 0 {
		return ctx.Err()
	}

	timer := that.clock.Timer(that.animation)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
