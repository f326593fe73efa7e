package events

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/serroba/ghostlink/internal/messaging"
	"github.com/serroba/ghostlink/internal/shortener"
	"go.uber.org/zap"
)

// Notifier publishes lifecycle events. Publish failures are logged and
// swallowed; the state change they describe has already been stored.
type Notifier struct {
	publishCreated messaging.Publish[LinkCreatedEvent]
	publishExpired messaging.Publish[LinkExpiredEvent]
	logger         *zap.Logger
	now            func() time.Time
}

// NewNotifier creates a notifier publishing on publisher.
func NewNotifier(publisher message.Publisher, logger *zap.Logger) *Notifier {
	return &Notifier{
		publishCreated: messaging.NewPublishFunc[LinkCreatedEvent](publisher, TopicLinkCreated),
		publishExpired: messaging.NewPublishFunc[LinkExpiredEvent](publisher, TopicLinkExpired),
		logger:         logger,
		now:            time.Now,
	}
}

func (n *Notifier) LinkCreated(ctx context.Context, link *shortener.Link) {
	if err := n.publishCreated(context.WithoutCancel(ctx), newLinkCreatedEvent(link)); err != nil {
		n.logger.Error("failed to publish link created event",
			zap.String("code", string(link.Code)),
			zap.Error(err),
		)
	}
}

func (n *Notifier) LinkExpired(ctx context.Context, link *shortener.Link, trigger string) {
	event := newLinkExpiredEvent(link, trigger, n.now())

	if err := n.publishExpired(context.WithoutCancel(ctx), event); err != nil {
		n.logger.Error("failed to publish link expired event",
			zap.String("code", string(link.Code)),
			zap.String("trigger", trigger),
			zap.Error(err),
		)
	}
}

var _ shortener.Notifier = (*Notifier)(nil)
