package shortener

import "context"

// Expiry triggers reported to a Notifier.
const (
	TriggerClick = "click"
	TriggerRead  = "read"
)

// Notifier is told about lifecycle changes after they are stored.
// It must not fail the caller; implementations log their own errors.
type Notifier interface {
	LinkCreated(ctx context.Context, link *Link)
	LinkExpired(ctx context.Context, link *Link, trigger string)
}

type nopNotifier struct{}

func (nopNotifier) LinkCreated(context.Context, *Link)         {}
func (nopNotifier) LinkExpired(context.Context, *Link, string) {}
