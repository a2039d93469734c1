package application

import (
	"fmt"
	"log/slog"
	"net/http"

	"go.uber.org/multierr"

	"github.com/rocketscienceinc/tictactoe-board/internal/config"
	"github.com/rocketscienceinc/tictactoe-board/internal/hardware/gpio"
	"github.com/rocketscienceinc/tictactoe-board/internal/hardware/matrix"
	"github.com/rocketscienceinc/tictactoe-board/internal/input"
	"github.com/rocketscienceinc/tictactoe-board/internal/simulator"
	"github.com/rocketscienceinc/tictactoe-board/internal/usecase"
)

// hardware is the set of devices the board runs on.
type hardware struct {
	panel    input.SwitchPanel
	channels []int
	display  usecase.DisplayPanel
	lamps    usecase.TurnLamps

	routes map[string]http.Handler
	close  func() error
}

func openHardware(logger *slog.Logger, conf *config.Config) (*hardware, error) {
	switch conf.Hardware {
	case config.HardwareGPIO:
		return openGPIO(logger, conf)
	case config.HardwareSimulator:
		return openSimulator(logger, conf), nil
	default:
		return nil, fmt.Errorf("%w: hardware %q", config.ErrUnknownValue, conf.Hardware)
	}
}

func openGPIO(logger *slog.Logger, conf *config.Config) (*hardware, error) {
	switches, err := gpio.OpenSwitches(logger, conf.Buttons.Pins)
	if err != nil {
		return nil, fmt.Errorf("could not open switches: %w", err)
	}

	lamps, err := gpio.OpenLamps(logger, conf.Lamps.XPin, conf.Lamps.OPin, conf.Lamps.FlashPeriod)
	if err != nil {
		_ = switches.Close()
		return nil, fmt.Errorf("could not open lamps: %w", err)
	}

	strips, err := matrix.OpenStrips(logger, conf.Matrix.SPIPorts)
	if err != nil {
		_ = multierr.Combine(lamps.Close(), switches.Close())
		return nil, fmt.Errorf("could not open led strips: %w", err)
	}

	display, err := matrix.NewDisplay(logger, strips, conf.Matrix.Brightness, matrix.DefaultTimings(), nil)
	if err != nil {
		for _, strip := range strips {
			_ = strip.Halt()
		}

		_ = multierr.Combine(lamps.Close(), switches.Close())

		return nil, fmt.Errorf("could not start display: %w", err)
	}

	return &hardware{
		panel:    switches,
		channels: conf.Buttons.Pins,
		display:  display,
		lamps:    lamps,
		close:    func() error { return nil },
	}, nil
}

func openSimulator(logger *slog.Logger, conf *config.Config) *hardware {
	board := simulator.New(logger, conf.Simulator.AnimationDuration, nil)

	logger.Info("simulated board ready", "endpoint", "/ws", "port", conf.HTTPPort)

	return &hardware{
		panel:    board.Switches(),
		channels: simulator.Channels(),
		display:  board.Display(),
		lamps:    board.Lamps(),
		routes:   map[string]http.Handler{"/ws": board},
		close:    board.Close,
	}
}

// release - frees the devices when the board never got to run.
func (that *hardware) release(logger *slog.Logger) {
	err := multierr.Combine(that.display.Close(), that.lamps.Close(), that.panel.Close())
	if err != nil {
		logger.Error("could not release hardware", "error", err)
	}
}
