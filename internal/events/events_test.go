package events_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/ghostlink/internal/events"
	"github.com/serroba/ghostlink/internal/messaging"
	"github.com/serroba/ghostlink/internal/shortener"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type channelSink struct {
	created chan *events.LinkCreatedEvent
	expired chan *events.LinkExpiredEvent
}

func newChannelSink() *channelSink {
	return &channelSink{
		created: make(chan *events.LinkCreatedEvent, 1),
		expired: make(chan *events.LinkExpiredEvent, 1),
	}
}

func (s *channelSink) LinkCreated(_ context.Context, e *events.LinkCreatedEvent) error {
	s.created <- e

	return nil
}

func (s *channelSink) LinkExpired(_ context.Context, e *events.LinkExpiredEvent) error {
	s.expired <- e

	return nil
}

type failingPublisher struct{}

func (failingPublisher) Publish(string, ...*message.Message) error { return errors.New("stream down") }
func (failingPublisher) Close() error                              { return nil }

func testLink() *shortener.Link {
	deadline := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	return &shortener.Link{
		ID:          "link-1",
		Code:        "abc123",
		OriginalURL: "https://example.com",
		Rule:        shortener.HybridRule(3, deadline, "3 clicks or a day", "3 clicks or a day"),
		Clicks:      3,
		Status:      shortener.StatusExpired,
		CreatedAt:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestNotifier_RoundTrip(t *testing.T) {
	pubsub := messaging.NewInMemoryPubSub(messaging.NewZapLogger(zap.NewNop()))
	sink := newChannelSink()

	group := messaging.NewConsumerGroup(pubsub, zap.NewNop())
	group.Add(events.NewConsumers(pubsub, sink, zap.NewNop())...)
	require.NoError(t, group.Start(context.Background()))
	t.Cleanup(func() { _ = group.Shutdown() })

	notifier := events.NewNotifier(pubsub, zap.NewNop())
	link := testLink()

	notifier.LinkCreated(context.Background(), link)
	notifier.LinkExpired(context.Background(), link, shortener.TriggerClick)

	select {
	case e := <-sink.created:
		assert.Equal(t, "abc123", e.Code)
		assert.Equal(t, "hybrid", e.RuleType)
		require.NotNil(t, e.ClickLimit)
		assert.Equal(t, int64(3), *e.ClickLimit)
		require.NotNil(t, e.TimeLimit)
		assert.True(t, link.Rule.TimeLimit.Equal(*e.TimeLimit))
	case <-time.After(2 * time.Second):
		t.Fatal("created event not delivered")
	}

	select {
	case e := <-sink.expired:
		assert.Equal(t, "abc123", e.Code)
		assert.Equal(t, int64(3), e.Clicks)
		assert.Equal(t, shortener.TriggerClick, e.Trigger)
	case <-time.After(2 * time.Second):
		t.Fatal("expired event not delivered")
	}
}

func TestNotifier_LogsPublishFailures(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	notifier := events.NewNotifier(failingPublisher{}, zap.New(core))

	assert.NotPanics(t, func() {
		notifier.LinkCreated(context.Background(), testLink())
		notifier.LinkExpired(context.Background(), testLink(), shortener.TriggerRead)
	})

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "failed to publish link created event", logs.All()[0].Message)
	assert.Equal(t, "read", logs.All()[1].ContextMap()["trigger"])
}

func TestLogSink(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	sink := events.NewLogSink(zap.New(core))

	limit := int64(5)
	require.NoError(t, sink.LinkCreated(context.Background(), &events.LinkCreatedEvent{
		Code: "abc123", RuleType: "clicks", ClickLimit: &limit,
	}))
	require.NoError(t, sink.LinkExpired(context.Background(), &events.LinkExpiredEvent{
		Code: "abc123", Clicks: 5, Trigger: "click",
	}))

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, int64(5), logs.All()[0].ContextMap()["clickLimit"])
	assert.NotContains(t, logs.All()[0].ContextMap(), "timeLimit")
	assert.Equal(t, "click", logs.All()[1].ContextMap()["trigger"])
}
