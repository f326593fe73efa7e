package shortener

import (
	"time"

	"github.com/google/uuid"
)

type config struct {
	now      func() time.Time
	newID    func() string
	notifier Notifier
}

// Option customizes a Service or Tracker.
type Option func(*config)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *config) { c.now = now }
}

// WithNotifier registers a receiver for created and expired events.
func WithNotifier(n Notifier) Option {
	return func(c *config) { c.notifier = n }
}

// WithIDGenerator replaces the UUID generator used for link IDs.
func WithIDGenerator(newID func() string) Option {
	return func(c *config) { c.newID = newID }
}

func newConfig(opts []Option) config {
	c := config{
		now:      time.Now,
		newID:    uuid.NewString,
		notifier: nopNotifier{},
	}

	for _, opt := range opts {
		opt(&c)
	}

	return c
}
