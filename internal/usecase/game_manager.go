package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/rocketscienceinc/tictactoe-board/internal/entity"
	"github.com/rocketscienceinc/tictactoe-board/internal/input"
	"github.com/rocketscienceinc/tictactoe-board/internal/tictactoe"
)

const (
	DefaultResetDelay    = 2 * time.Second
	DefaultWinnerFlashes = 5
	DefaultQueueSize     = 16

	publishTimeout = 2 * time.Second
)

// DisplayPanel draws marks and presentations on the nine cells. The blocking
// presentations return when finished or when ctx is done.
type DisplayPanel interface {
	ShowMark(ctx context.Context, cell int, mark entity.Mark) error
	ClearCell(ctx context.Context, cell int) error
	ClearAll(ctx context.Context) error
	RunStartup(ctx context.Context) error
	AnimateWin(ctx context.Context, line entity.Line) error
	AnimateDraw(ctx context.Context) error
	Close() error
}

// TurnLamps are the two discrete turn indicators.
type TurnLamps interface {
	Indicate(ctx context.Context, player entity.Mark) error
	Flash(ctx context.Context, player entity.Mark, times int) error
	AllOff(ctx context.Context) error
	Close() error
}

type inputSource interface {
	SetHandler(h input.Handler) input.Handler
	Close() error
}

type eventPublisher interface {
	Publish(ctx context.Context, event entity.Event) error
}

type Options struct {
	ResetDelay    time.Duration
	WinnerFlashes int
	QueueSize     int
	Clock         clock.Clock
}

// GameManager sequences presses, rule transitions and display commands. All
// game state is touched from the Run goroutine only; the acceptance flag is
// the one value shared with the input path.
type GameManager struct {
	logger *slog.Logger

	controller *tictactoe.GameController
	input      inputSource
	display    DisplayPanel
	lamps      TurnLamps
	publisher  eventPublisher

	clock         clock.Clock
	resetDelay    time.Duration
	winnerFlashes int

	events    chan int
	accepting atomic.Bool
	snapshot  atomic.Pointer[entity.Snapshot]
	roundID   string
}

// NewGameManager - a nil publisher disables event publishing.
func NewGameManager(
	logger *slog.Logger,
	controller *tictactoe.GameController,
	source inputSource,
	display DisplayPanel,
	lamps TurnLamps,
	publisher eventPublisher,
	opts Options,
) *GameManager {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}

	if opts.WinnerFlashes <= 0 {
		opts.WinnerFlashes = DefaultWinnerFlashes
	}

	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}

	if opts.ResetDelay < 0 {
		opts.ResetDelay = DefaultResetDelay
	}

	if publisher == nil {
		publisher = discardPublisher{}
	}

	return &GameManager{
		logger: logger.With("component", "game_manager"),

		controller: controller,
		input:      source,
		display:    display,
		lamps:      lamps,
		publisher:  publisher,

		clock:         opts.Clock,
		resetDelay:    opts.ResetDelay,
		winnerFlashes: opts.WinnerFlashes,

		events: make(chan int, opts.QueueSize),
	}
}

// Run - performs the startup sequence and then processes presses one at a
// time until ctx is done. A startup failure is returned and no input is
// accepted.
func (that *GameManager) Run(ctx context.Context) error {
	log := that.logger.With("method", "Run")

	that.input.SetHandler(that.dispatch)

	if err := that.startup(ctx); err != nil {
		if interrupted(ctx, err) {
			log.Info("stopped during startup", "error", err)
			return nil
		}

		return fmt.Errorf("startup failed: %w", err)
	}

	log.Info("game ready, player X starts")

	for {
		select {
		case <-ctx.Done():
			log.Info("stopping game loop")
			return nil
		case cell := <-that.events:
			that.handlePress(ctx, cell)
		}
	}
}

// Shutdown - stops accepting input and releases the display, the lamps and
// the input source. Every release is attempted.
func (that *GameManager) Shutdown() error {
	that.accepting.Store(false)
	that.input.SetHandler(nil)

	return release(that.display, that.lamps, that.input)
}

// Accepting - reports whether presses are currently routed to the game.
func (that *GameManager) Accepting() bool {
	return that.accepting.Load()
}

// State - returns the latest published snapshot, nil before startup.
func (that *GameManager) State() *entity.Snapshot {
	return that.snapshot.Load()
}

// dispatch runs on the input goroutine. It never blocks.
func (that *GameManager) dispatch(cell int) {
	if !that.accepting.Load() {
		that.logger.Debug("press dropped, not accepting", "cell", cell)
		return
	}

	select {
	case that.events <- cell:
	default:
		that.logger.Warn("press dropped, queue full", "cell", cell)
	}
}

func (that *GameManager) startup(ctx context.Context) error {
	if err := that.display.RunStartup(ctx); err != nil {
		return fmt.Errorf("could not run startup presentation: %w", err)
	}

	if err := that.lamps.Indicate(ctx, entity.PlayerX); err != nil {
		return fmt.Errorf("could not set turn indicator: %w", err)
	}

	that.startRound(ctx)

	return nil
}

func (that *GameManager) handlePress(ctx context.Context, cell int) {
	log := that.logger.With("method", "handlePress", "cell", cell, "round", that.roundID)

	if !that.accepting.Load() || that.controller.IsFinished() {
		log.Debug("press ignored, game not accepting moves")
		return
	}

	if err := that.controller.Check(cell); err != nil {
		log.Warn("invalid move, press ignored", "reason", err)
		return
	}

	player := that.controller.Turn()

	outcome, err := that.controller.Apply(cell)
	if err != nil {
		log.Warn("move refused", "error", err)
		return
	}

	log.Info("move accepted", "player", player.String())
	log.Debug("board state", "board", "\n"+that.controller.Board().String())

	if err = that.display.ShowMark(ctx, cell, player); err != nil {
		log.Error("could not show mark, display out of sync", "error", err)
	}

	that.publish(ctx, entity.Event{Type: entity.EventMove, Cell: &cell, Mark: player.String()})

	if outcome.IsTerminal() {
		that.finishRound(ctx, outcome)
		return
	}

	that.storeSnapshot()

	if err = that.lamps.Indicate(ctx, outcome.Turn); err != nil {
		log.Error("could not set turn indicator", "error", err)
	}
}

// finishRound - presents the outcome, waits the reset delay and starts a new
// round. Presses are dropped until the new round is ready.
func (that *GameManager) finishRound(ctx context.Context, outcome entity.Outcome) {
	log := that.logger.With("method", "finishRound", "round", that.roundID)

	that.accepting.Store(false)
	that.storeSnapshot()

	if outcome.HasWinner() {
		log.Info("player wins", "winner", outcome.Winner.String(), "line", outcome.Line)
		that.publish(ctx, entity.Event{Type: entity.EventWon, Winner: outcome.Winner.String(), Line: outcome.Line[:]})

		that.logPresentation(ctx, log, "could not flash winner",
			that.lamps.Flash(ctx, outcome.Winner, that.winnerFlashes))
		that.logPresentation(ctx, log, "could not animate win",
			that.display.AnimateWin(ctx, outcome.Line))
	} else {
		log.Info("draw, no winner")
		that.publish(ctx, entity.Event{Type: entity.EventDraw})

		that.logPresentation(ctx, log, "could not animate draw", that.display.AnimateDraw(ctx))
	}

	if err := that.sleep(ctx, that.resetDelay); err != nil {
		log.Info("reset interrupted", "error", err)
		return
	}

	that.resetRound(ctx)
}

// logPresentation - a presentation cut short by shutdown is expected and
// logged at info level, anything else is an error.
func (that *GameManager) logPresentation(ctx context.Context, log *slog.Logger, msg string, err error) {
	switch {
	case err == nil:
	case interrupted(ctx, err):
		log.Info("presentation interrupted", "error", err)
	default:
		log.Error(msg, "error", err)
	}
}

func (that *GameManager) resetRound(ctx context.Context) {
	log := that.logger.With("method", "resetRound", "round", that.roundID)

	that.controller.Reset()
	that.publish(ctx, entity.Event{Type: entity.EventReset})

	if err := that.display.ClearAll(ctx); err != nil {
		log.Error("could not clear display", "error", err)
	}

	if err := that.lamps.Indicate(ctx, entity.PlayerX); err != nil {
		log.Error("could not set turn indicator", "error", err)
	}

	if dropped := that.drain(); dropped > 0 {
		log.Debug("dropped presses queued during the finished round", "count", dropped)
	}

	that.startRound(ctx)
}

func (that *GameManager) startRound(ctx context.Context) {
	that.roundID = uuid.NewString()
	that.publish(ctx, entity.Event{Type: entity.EventRoundStarted})

	that.accepting.Store(true)
	that.storeSnapshot()

	that.logger.Info("round started", "round", that.roundID)
}

// drain discards presses that were queued before the round finished.
func (that *GameManager) drain() int {
	dropped := 0

	for {
		select {
		case <-that.events:
			dropped++
		default:
			return dropped
		}
	}
}

func (that *GameManager) sleep(ctx context.Context, d time.Duration) error {
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

func (that *GameManager) storeSnapshot() {
	that.snapshot.Store(entity.NewSnapshot(that.roundID, that.controller.Game(), that.accepting.Load(), that.clock.Now()))
}

func (that *GameManager) publish(ctx context.Context, event entity.Event) {
	event.RoundID = that.roundID
	event.At = that.clock.Now()

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := that.publisher.Publish(ctx, event); err != nil {
		that.logger.Warn("could not publish event", "type", event.Type, "error", err)
	}
}

// interrupted reports whether err is the cancellation of ctx rather than a
// device failure.
func interrupted(ctx context.Context, err error) bool {
	return ctx.Err() != nil && errors.Is(err, context.Canceled)
}

type discardPublisher struct{}

func (discardPublisher) Publish(context.Context, entity.Event) error {
	return nil
}

type closer interface {
	Close() error
}

// release - closes the display, the lamps and the input source in that
// order. A failure does not prevent the remaining releases.
func release(display, lamps, source closer) error {
	var err error

	if closeErr := display.Close(); closeErr != nil {
		err = multierr.Append(err, fmt.Errorf("could not release display panel: %w", closeErr))
	}

	if closeErr := lamps.Close(); closeErr != nil {
		err = multierr.Append(err, fmt.Errorf("could not release turn lamps: %w", closeErr))
	}

	if closeErr := source.Close(); closeErr != nil {
		err = multierr.Append(err, fmt.Errorf("could not release input source: %w", closeErr))
	}

	return err
}
