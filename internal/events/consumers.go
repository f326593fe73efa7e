package events

import (
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/ghostlink/internal/messaging"
	"go.uber.org/zap"
)

// NewConsumers returns one consumer per lifecycle topic, all feeding sink.
func NewConsumers(subscriber message.Subscriber, sink Sink, logger *zap.Logger) []messaging.Runnable {
	return []messaging.Runnable{
		messaging.NewConsumer(subscriber, TopicLinkCreated, sink.LinkCreated, logger),
		messaging.NewConsumer(subscriber, TopicLinkExpired, sink.LinkExpired, logger),
	}
}
