package events

import (
	"context"

	"go.uber.org/zap"
)

// Sink receives decoded lifecycle events on the consumer side.
type Sink interface {
	LinkCreated(ctx context.Context, event *LinkCreatedEvent) error
	LinkExpired(ctx context.Context, event *LinkExpiredEvent) error
}

// LogSink writes every event to the log.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a sink that logs events.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) LinkCreated(_ context.Context, event *LinkCreatedEvent) error {
	fields := []zap.Field{
		zap.String("id", event.ID),
		zap.String("code", event.Code),
		zap.String("originalUrl", event.OriginalURL),
		zap.String("ruleType", event.RuleType),
		zap.String("summary", event.Summary),
		zap.Time("createdAt", event.CreatedAt),
	}

	if event.ClickLimit != nil {
		fields = append(fields, zap.Int64("clickLimit", *event.ClickLimit))
	}

	if event.TimeLimit != nil {
		fields = append(fields, zap.Time("timeLimit", *event.TimeLimit))
	}

	s.logger.Info("link created event received", fields...)

	return nil
}

func (s *LogSink) LinkExpired(_ context.Context, event *LinkExpiredEvent) error {
	s.logger.Info("link expired event received",
		zap.String("id", event.ID),
		zap.String("code", event.Code),
		zap.Int64("clicks", event.Clicks),
		zap.String("trigger", event.Trigger),
		zap.Time("expiredAt", event.ExpiredAt),
	)

	return nil
}
