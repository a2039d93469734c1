package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/rocketscienceinc/tictactoe-board/internal/config"
	"github.com/rocketscienceinc/tictactoe-board/internal/entity"
	"github.com/rocketscienceinc/tictactoe-board/internal/input"
	"github.com/rocketscienceinc/tictactoe-board/internal/repository"
	"github.com/rocketscienceinc/tictactoe-board/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-board/internal/tictactoe"
	"github.com/rocketscienceinc/tictactoe-board/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-board/transport/rest"
)

type runner interface {
	Run(ctx context.Context) error
	Shutdown() error
}

type publisher interface {
	Publish(ctx context.Context, event entity.Event) error
}

// RunApp - runs the board until SIGINT/SIGTERM or a fatal error.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	go func() {
		select {
		case sig := <-sigs:
			log.Info("Received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	var events publisher

	if conf.Redis.Enabled {
		redisStorage, err := storage.NewRedisStorage(ctx, conf.Redis.GetRedisAddr())
		if err != nil {
			return fmt.Errorf("could not connect to redis storage: %w", err)
		}

		defer func() {
			if closeErr := redisStorage.Close(); closeErr != nil {
				log.Error("could not close redis storage", "error", closeErr)
			}
		}()

		events = repository.NewEventRepository(redisStorage.Connection, conf.Redis.Channel)
		log.Info("publishing board events", "channel", conf.Redis.Channel)
	}

	hw, err := openHardware(logger, conf)
	if err != nil {
		return fmt.Errorf("could not open %s hardware: %w", conf.Hardware, err)
	}

	defer func() {
		if closeErr := hw.close(); closeErr != nil {
			log.Error("could not close hardware", "error", closeErr)
		}
	}()

	source, err := input.NewSource(logger, hw.panel, hw.channels, conf.Game.DebounceInterval, nil)
	if err != nil {
		hw.release(logger)
		return fmt.Errorf("could not start input source: %w", err)
	}

	var (
		board runner
		state rest.StateProvider = noState{}
	)

	switch conf.Mode {
	case config.ModeBringUp:
		board = usecase.NewBringUp(logger, source, hw.display, hw.lamps)
	default:
		manager := usecase.NewGameManager(logger, tictactoe.NewGameController(), source, hw.display, hw.lamps, events, usecase.Options{
			ResetDelay:    conf.Game.ResetDelay,
			WinnerFlashes: conf.Game.WinnerFlashes,
			QueueSize:     conf.Game.EventQueue,
		})
		board = manager
		state = manager
	}

	httpServer := rest.NewServer(logger, conf.HTTPPort, rest.NewHandlers(state), hw.routes)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("Starting board", "mode", conf.Mode, "hardware", conf.Hardware)

		if runErr := board.Run(groupCtx); runErr != nil {
			return fmt.Errorf("board stopped: %w", runErr)
		}

		cancel()

		return nil
	})

	group.Go(func() error {
		if httpErr := httpServer.Start(groupCtx); httpErr != nil {
			return fmt.Errorf("HTTP server error: %w", httpErr)
		}

		return nil
	})

	err = group.Wait()

	if shutdownErr := board.Shutdown(); shutdownErr != nil {
		log.Error("could not release hardware cleanly", "error", shutdownErr)
	}

	log.Info("board stopped")

	return err
}

type noState struct{}

func (noState) State() *entity.Snapshot {
	return nil
}
