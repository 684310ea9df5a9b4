package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/layer-3/dapptober/adapters/events"
	"github.com/layer-3/dapptober/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan *message.Message) *message.Message {
	t.Helper()
	select {
	case msg := <-ch:
		msg.Ack()
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestWatermillPublisher(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	logins, err := pubSub.Subscribe(ctx, events.TopicLogin)
	require.NoError(t, err)
	logouts, err := pubSub.Subscribe(ctx, events.TopicLogout)
	require.NoError(t, err)
	activity, err := pubSub.Subscribe(ctx, events.TopicActivity)
	require.NoError(t, err)

	pub := events.NewWatermillPublisher(pubSub)

	t.Run("login", func(t *testing.T) {
		require.NoError(t, pub.PublishLogin(ctx, "0xabc", "session-1"))

		var event events.LoginEvent
		require.NoError(t, json.Unmarshal(receive(t, logins).Payload, &event))
		assert.Equal(t, "0xabc", event.Address)
		assert.Equal(t, "session-1", event.SessionID)
	})

	t.Run("logout", func(t *testing.T) {
		require.NoError(t, pub.PublishLogout(ctx, "0xabc", "rid-1"))

		var event events.LogoutEvent
		require.NoError(t, json.Unmarshal(receive(t, logouts).Payload, &event))
		assert.Equal(t, "rid-1", event.TokenID)
	})

	t.Run("activity", func(t *testing.T) {
		require.NoError(t, pub.PublishActivity(ctx, core.Activity{Kind: core.ActivityLiked, WalletAddress: "0xabc", Day: 7}))

		var event core.Activity
		require.NoError(t, json.Unmarshal(receive(t, activity).Payload, &event))
		assert.Equal(t, core.ActivityLiked, event.Kind)
		assert.Equal(t, 7, event.Day)
	})
}

type failingPublisher struct{}

func (failingPublisher) Publish(string, ...*message.Message) error { return errors.New("broker down") }
func (failingPublisher) Close() error                              { return nil }

func TestWatermillPublisherError(t *testing.T) {
	pub := events.NewWatermillPublisher(failingPublisher{})
	err := pub.PublishLogout(context.Background(), "0xabc", "rid-1")
	assert.ErrorContains(t, err, "broker down")
}
