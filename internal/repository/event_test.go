package repository

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-board/internal/entity"
	"github.com/rocketscienceinc/tictactoe-board/testing/suite"
)

const testChannel = "tictactoe:events"

func TestEventRepository_Publish(t *testing.T) {
	t.Run("Subscribers receive the event", func(t *testing.T) {
		ctx, st := suite.New(t)

		eventRepo := NewEventRepository(st.Storage, testChannel)

		// Given: a subscriber on the events channel
		pubsub := st.Subscribe(ctx, testChannel)

		cell := 4
		event := entity.Event{
			Type:    entity.EventMove,
			RoundID: "round-1",
			Cell:    &cell,
			Mark:    "X",
			At:      time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		}

		// When: the event is published
		err := eventRepo.Publish(ctx, event)
		require.NoError(t, err)

		// Then: the subscriber gets the same event as JSON
		msg, err := pubsub.ReceiveMessage(ctx)
		require.NoError(t, err)
		assert.Equal(t, testChannel, msg.Channel)

		var got entity.Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, event.Type, got.Type)
		assert.Equal(t, event.RoundID, got.RoundID)
		require.NotNil(t, got.Cell)
		assert.Equal(t, 4, *got.Cell)
		assert.Equal(t, "X", got.Mark)
		assert.True(t, event.At.Equal(got.At))
	})

	t.Run("Publishing without subscribers succeeds", func(t *testing.T) {
		ctx, st := suite.New(t)

		eventRepo := NewEventRepository(st.Storage, testChannel)

		// When: a won event is published with nobody listening
		err := eventRepo.Publish(ctx, entity.Event{Type: entity.EventWon, Winner: "O", Line: []int{2, 4, 6}})

		// Then: no error is returned
		require.NoError(t, err)
	})

	t.Run("Closed client returns an error", func(t *testing.T) {
		ctx, st := suite.New(t)

		eventRepo := NewEventRepository(st.Storage, testChannel)
		require.NoError(t, st.Storage.Close())

		err := eventRepo.Publish(ctx, entity.Event{Type: entity.EventReset})

		require.Error(t, err)
	})
}
