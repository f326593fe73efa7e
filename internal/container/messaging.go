package container

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/samber/do"
	"github.com/serroba/ghostlink/internal/events"
	"github.com/serroba/ghostlink/internal/messaging"
	"go.uber.org/zap"
)

const eventsConsumerGroup = "ghostlink-events"

// PublisherGroupPackage provides the lifecycle event publisher and notifier.
func PublisherGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		opts := do.MustInvoke[*Options](i)

		switch opts.Events {
		case EventsRedis:
			conn := do.MustInvoke[*RedisConn](i)

			pub, err := messaging.NewRedisPublisher(conn.Client, do.MustInvoke[watermill.LoggerAdapter](i))
			if err != nil {
				return nil, err
			}

			return messaging.NewPublisherGroup(pub), nil
		case EventsMemory:
			return messaging.NewPublisherGroup(do.MustInvoke[*gochannel.GoChannel](i)), nil
		default:
			return nil, fmt.Errorf("no publisher for events transport %q", opts.Events)
		}
	})

	do.Provide(i, func(i *do.Injector) (*events.Notifier, error) {
		group := do.MustInvoke[*messaging.PublisherGroup](i)

		return events.NewNotifier(group.Publisher(), do.MustInvoke[*zap.Logger](i)), nil
	})
}

// ConsumerGroupPackage provides the consumers that record lifecycle events.
func ConsumerGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		var subscriber message.Subscriber

		switch opts.Events {
		case EventsRedis:
			conn := do.MustInvoke[*RedisConn](i)

			sub, err := messaging.NewRedisSubscriber(
				conn.Client, eventsConsumerGroup, do.MustInvoke[watermill.LoggerAdapter](i),
			)
			if err != nil {
				return nil, err
			}

			subscriber = sub
		case EventsMemory:
			subscriber = do.MustInvoke[*gochannel.GoChannel](i)
		default:
			return nil, fmt.Errorf("no subscriber for events transport %q", opts.Events)
		}

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(events.NewConsumers(subscriber, events.NewLogSink(logger), logger)...)

		return group, nil
	})
}

// WatermillPackage provides the watermill logger and the in-process
// transport shared by publishers and consumers.
func WatermillPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (watermill.LoggerAdapter, error) {
		return messaging.NewZapLogger(do.MustInvoke[*zap.Logger](i)), nil
	})

	do.Provide(i, func(i *do.Injector) (*gochannel.GoChannel, error) {
		return messaging.NewInMemoryPubSub(do.MustInvoke[watermill.LoggerAdapter](i)), nil
	})
}
