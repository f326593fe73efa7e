package shortener

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Outcome tags the result of a click.
type Outcome string

const (
	OutcomeNotFound Outcome = "not_found"
	OutcomeExpired  Outcome = "expired"
	OutcomeActive   Outcome = "active"
)

// ClickOutcome is the result of tracking one click.
type ClickOutcome struct {
	Outcome       Outcome
	Link          *Link // nil when Outcome is OutcomeNotFound
	CurrentClicks int64
	// Transitioned is true only for the click that expired the link.
	Transitioned bool
}

// Success is false only for unknown codes.
func (o *ClickOutcome) Success() bool {
	return o.Outcome != OutcomeNotFound
}

// ShouldRedirect reports whether the visitor may be sent to the destination.
func (o *ClickOutcome) ShouldRedirect() bool {
	return o.Outcome == OutcomeActive
}

// RedirectURL returns the destination, or nil unless ShouldRedirect.
func (o *ClickOutcome) RedirectURL() *string {
	if !o.ShouldRedirect() || o.Link == nil {
		return nil
	}

	u := o.Link.OriginalURL

	return &u
}

// Inspection is a link as seen by the read path.
type Inspection struct {
	Link *Link
	// Transitioned is true when this read persisted the flip to expired.
	Transitioned bool
}

// Tracker advances links on clicks and serves the read paths.
type Tracker struct {
	store  Repository
	logger *zap.Logger
	cfg    config
}

// NewTracker creates a click tracker.
func NewTracker(store Repository, logger *zap.Logger, opts ...Option) *Tracker {
	return &Tracker{
		store:  store,
		logger: logger,
		cfg:    newConfig(opts),
	}
}

// Track records one click on code.
func (t *Tracker) Track(ctx context.Context, code Code) (*ClickOutcome, error) {
	res, err := t.store.RecordClick(ctx, code, t.cfg.now().UTC())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return &ClickOutcome{Outcome: OutcomeNotFound}, nil
		}

		return nil, err
	}

	out := &ClickOutcome{
		Outcome:       OutcomeActive,
		Link:          res.Link,
		CurrentClicks: res.Link.Clicks,
		Transitioned:  res.Transitioned,
	}

	if res.Link.Expired() {
		out.Outcome = OutcomeExpired
	}

	if res.Transitioned {
		t.logger.Info("link expired on click",
			zap.String("code", string(code)),
			zap.Int64("clicks", res.Link.Clicks),
		)

		t.cfg.notifier.LinkExpired(ctx, res.Link.Clone(), TriggerClick)
	}

	return out, nil
}

// Inspect loads a link by code and re-evaluates its rule against the stored
// click count. A link found to be expired is persisted as such; clicks are
// never incremented here.
func (t *Tracker) Inspect(ctx context.Context, code Code) (*Inspection, error) {
	link, err := t.store.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if link.Expired() || !IsExpired(link.Rule, link.Clicks, t.cfg.now().UTC()) {
		return &Inspection{Link: link}, nil
	}

	flipped, err := t.store.MarkExpired(ctx, code)
	if err != nil {
		return nil, err
	}

	link.Status = StatusExpired

	if flipped {
		t.logger.Info("link expired on read",
			zap.String("code", string(code)),
			zap.Int64("clicks", link.Clicks),
		)

		t.cfg.notifier.LinkExpired(ctx, link.Clone(), TriggerRead)
	}

	return &Inspection{Link: link, Transitioned: flipped}, nil
}

// Stats returns the stored state of a link by ID without re-evaluating it.
func (t *Tracker) Stats(ctx context.Context, id string) (*Link, error) {
	return t.store.GetByID(ctx, id)
}
