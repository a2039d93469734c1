package application

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-board/internal/config"
)

func TestOpenHardware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("Simulator", func(t *testing.T) {
		// Given: a config selecting the simulated board
		conf := &config.Config{Hardware: config.HardwareSimulator, HTTPPort: "9090"}

		// When: the hardware is opened
		hw, err := openHardware(logger, conf)

		// Then: cells map to channels 0..8 and the websocket route is exposed
		require.NoError(t, err)
		assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8}, hw.channels)
		assert.Contains(t, hw.routes, "/ws")
		assert.NotNil(t, hw.display)
		assert.NotNil(t, hw.lamps)
		assert.NotNil(t, hw.panel)

		hw.release(logger)
		require.NoError(t, hw.close())
	})

	t.Run("Unknown hardware", func(t *testing.T) {
		_, err := openHardware(logger, &config.Config{Hardware: "abacus"})

		require.ErrorIs(t, err, config.ErrUnknownValue)
	})
}
