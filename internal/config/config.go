package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	HardwareGPIO      = "gpio"
	HardwareSimulator = "simulator"

	ModePlay    = "play"
	ModeBringUp = "bringup"

	cellCount = 9
)

var (
	ErrButtonPins   = errors.New("exactly 9 distinct button pins are required")
	ErrUnknownValue = errors.New("unknown configuration value")
)

type Config struct {
	LogLevel  string    `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort  string    `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	Mode      string    `yaml:"mode" env:"MODE" env-default:"play"`
	Hardware  string    `yaml:"hardware" env:"HARDWARE" env-default:"simulator"`
	Game      Game      `yaml:"game"`
	Buttons   Buttons   `yaml:"buttons"`
	Lamps     Lamps     `yaml:"lamps"`
	Matrix    Matrix    `yaml:"matrix"`
	Simulator Simulator `yaml:"simulator"`
	Redis     Redis     `yaml:"redis"`
}

type Game struct {
	DebounceInterval time.Duration `yaml:"debounce-interval" env:"GAME_DEBOUNCE_INTERVAL" env-default:"200ms"`
	ResetDelay       time.Duration `yaml:"reset-delay" env:"GAME_RESET_DELAY" env-default:"2s"`
	WinnerFlashes    int           `yaml:"winner-flashes" env:"GAME_WINNER_FLASHES" env-default:"5"`
	EventQueue       int           `yaml:"event-queue" env:"GAME_EVENT_QUEUE" env-default:"16"`
}

// Buttons maps cells 0..8 (row-major) to BCM line numbers.
type Buttons struct {
	Pins []int `yaml:"pins" env:"BUTTON_PINS" env-default:"17,27,22,23,24,25,5,6,13"`
}

type Lamps struct {
	XPin        int           `yaml:"x-pin" env:"LAMP_X_PIN" env-default:"16"`
	OPin        int           `yaml:"o-pin" env:"LAMP_O_PIN" env-default:"20"`
	FlashPeriod time.Duration `yaml:"flash-period" env:"LAMP_FLASH_PERIOD" env-default:"200ms"`
}

// Matrix describes the three WS2812B strips, one per row of panels.
type Matrix struct {
	SPIPorts   []string `yaml:"spi-ports" env:"MATRIX_SPI_PORTS" env-default:"/dev/spidev0.0,/dev/spidev0.1,/dev/spidev1.0"`
	Brightness float64  `yaml:"brightness" env:"MATRIX_BRIGHTNESS" env-default:"0.3"`
}

type Simulator struct {
	AnimationDuration time.Duration `yaml:"animation-duration" env:"SIMULATOR_ANIMATION_DURATION" env-default:"1500ms"`
}

type Redis struct {
	Enabled bool   `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Host    string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port    string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Channel string `yaml:"channel" env:"REDIS_CHANNEL" env-default:"tictactoe:events"`
}

// MustLoad - load all configurations from the config.yml file, or from the
// environment alone when the file does not exist.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func Load(path string) (*Config, error) {
	config := &Config{}

	if _, err := os.Stat(path); err == nil {
		if err = cleanenv.ReadConfig(path, config); err != nil {
			return nil, fmt.Errorf("could not read config %s: %w", path, err)
		}
	} else {
		if err = cleanenv.ReadEnv(config); err != nil {
			return nil, fmt.Errorf("could not read environment: %w", err)
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (that *Config) Validate() error {
	if len(that.Buttons.Pins) != cellCount {
		return fmt.Errorf("%w: got %d", ErrButtonPins, len(that.Buttons.Pins))
	}

	seen := make(map[int]bool, cellCount)
	for _, pin := range that.Buttons.Pins {
		if seen[pin] {
			return fmt.Errorf("%w: pin %d repeated", ErrButtonPins, pin)
		}
		seen[pin] = true
	}

	switch that.Hardware {
	case HardwareGPIO, HardwareSimulator:
	default:
		return fmt.Errorf("%w: hardware %q", ErrUnknownValue, that.Hardware)
	}

	switch that.Mode {
	case ModePlay, ModeBringUp:
	default:
		return fmt.Errorf("%w: mode %q", ErrUnknownValue, that.Mode)
	}

	return nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
