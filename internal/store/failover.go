package store

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/serroba/ghostlink/internal/shortener"
	"go.uber.org/zap"
)

// FailoverRepository sends every call to a primary store until the primary
// fails with an infrastructure error. From then on, for the lifetime of the
// process, all calls go to the secondary.
type FailoverRepository struct {
	primary   shortener.Repository
	secondary shortener.Repository
	logger    *zap.Logger
	tripped   atomic.Bool
}

// NewFailoverRepository creates a failover decorator.
func NewFailoverRepository(
	primary, secondary shortener.Repository, logger *zap.Logger,
) *FailoverRepository {
	return &FailoverRepository{
		primary:   primary,
		secondary: secondary,
		logger:    logger,
	}
}

// Degraded reports whether the secondary store is in use.
func (f *FailoverRepository) Degraded() bool {
	return f.tripped.Load()
}

func (f *FailoverRepository) Create(ctx context.Context, link *shortener.Link) error {
	return run(f, "create", func(r shortener.Repository) error {
		return r.Create(ctx, link)
	})
}

func (f *FailoverRepository) GetByCode(ctx context.Context, code shortener.Code) (*shortener.Link, error) {
	var link *shortener.Link

	err := run(f, "get_by_code", func(r shortener.Repository) (err error) {
		link, err = r.GetByCode(ctx, code)

		return err
	})

	return link, err
}

func (f *FailoverRepository) GetByID(ctx context.Context, id string) (*shortener.Link, error) {
	var link *shortener.Link

	err := run(f, "get_by_id", func(r shortener.Repository) (err error) {
		link, err = r.GetByID(ctx, id)

		return err
	})

	return link, err
}

func (f *FailoverRepository) Exists(ctx context.Context, code shortener.Code) (bool, error) {
	var exists bool

	err := run(f, "exists", func(r shortener.Repository) (err error) {
		exists, err = r.Exists(ctx, code)

		return err
	})

	return exists, err
}

func (f *FailoverRepository) RecordClick(
	ctx context.Context, code shortener.Code, now time.Time,
) (*shortener.ClickResult, error) {
	var res *shortener.ClickResult

	err := run(f, "record_click", func(r shortener.Repository) (err error) {
		res, err = r.RecordClick(ctx, code, now)

		return err
	})

	return res, err
}

func (f *FailoverRepository) MarkExpired(ctx context.Context, code shortener.Code) (bool, error) {
	var flipped bool

	err := run(f, "mark_expired", func(r shortener.Repository) (err error) {
		flipped, err = r.MarkExpired(ctx, code)

		return err
	})

	return flipped, err
}

// Ping reports the health of the store currently serving requests.
func (f *FailoverRepository) Ping(ctx context.Context) error {
	if f.Degraded() {
		return f.secondary.Ping(ctx)
	}

	return f.primary.Ping(ctx)
}

// run calls op on the active store. A primary failure that is not a domain
// sentinel trips the failover and op is retried once on the secondary.
func run(f *FailoverRepository, name string, op func(shortener.Repository) error) error {
	if f.Degraded() {
		return op(f.secondary)
	}

	err := op(f.primary)
	if err == nil || isDomainError(err) {
		return err
	}

	if f.tripped.CompareAndSwap(false, true) {
		f.logger.Error("primary store failed, switching to in-memory store",
			zap.String("op", name),
			zap.Error(err),
		)
	}

	return op(f.secondary)
}

func isDomainError(err error) bool {
	return errors.Is(err, shortener.ErrNotFound) ||
		errors.Is(err, shortener.ErrCodeTaken) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

var _ shortener.Repository = (*FailoverRepository)(nil)
