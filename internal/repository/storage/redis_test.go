package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-board/testing/suite"
)

func TestNewRedisStorage(t *testing.T) {
	t.Run("Connects to a running server", func(t *testing.T) {
		ctx, st := suite.New(t)

		// When: connecting to the container address
		redisStorage, err := NewRedisStorage(ctx, st.Addr)

		// Then: the connection is usable and closes cleanly
		require.NoError(t, err)
		assert.NoError(t, redisStorage.Connection.Ping(ctx).Err())
		assert.NoError(t, redisStorage.Close())
	})

	t.Run("Unreachable server", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		// When: connecting to a port nobody listens on
		redisStorage, err := NewRedisStorage(ctx, "127.0.0.1:1")

		// Then: an error is returned
		require.Error(t, err)
		assert.Nil(t, redisStorage)
	})
}
