package shortener

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("link not found")
	ErrCodeTaken = errors.New("short code already exists")
)

// ClickResult is the state of a link right after RecordClick.
type ClickResult struct {
	Link *Link
	// Counted is false when the link was already expired and nothing changed.
	Counted bool
	// Transitioned is true only for the click that moved the link to expired.
	Transitioned bool
}

// Repository persists links. Implementations must make RecordClick and
// MarkExpired atomic per code without relying on callers for locking.
type Repository interface {
	// Create inserts link, failing with ErrCodeTaken if its code is in use.
	Create(ctx context.Context, link *Link) error
	GetByCode(ctx context.Context, code Code) (*Link, error)
	GetByID(ctx context.Context, id string) (*Link, error)
	Exists(ctx context.Context, code Code) (bool, error)

	// RecordClick increments the click count and, in the same indivisible
	// step, expires the link if its rule is met at now (see Advance).
	RecordClick(ctx context.Context, code Code, now time.Time) (*ClickResult, error)

	// MarkExpired flips an active link to expired. It reports false when the
	// link was already expired.
	MarkExpired(ctx context.Context, code Code) (bool, error)

	Ping(ctx context.Context) error
}
