package store

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/serroba/ghostlink/internal/shortener"
)

// TerminalCacheRepository wraps a Repository and caches links once they are
// expired. Expired is a terminal state, so a cached copy can never go stale;
// active links are always read from the underlying store.
type TerminalCacheRepository struct {
	store shortener.Repository
	cache *cache.Cache
}

// NewTerminalCacheRepository creates a caching decorator. Entries live for ttl.
func NewTerminalCacheRepository(store shortener.Repository, ttl time.Duration) *TerminalCacheRepository {
	return &TerminalCacheRepository{
		store: store,
		cache: cache.New(ttl, 2*ttl),
	}
}

func (r *TerminalCacheRepository) Create(ctx context.Context, link *shortener.Link) error {
	return r.store.Create(ctx, link)
}

func (r *TerminalCacheRepository) GetByCode(ctx context.Context, code shortener.Code) (*shortener.Link, error) {
	if link, ok := r.cached(code); ok {
		return link, nil
	}

	link, err := r.store.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	r.remember(link)

	return link, nil
}

func (r *TerminalCacheRepository) GetByID(ctx context.Context, id string) (*shortener.Link, error) {
	link, err := r.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	r.remember(link)

	return link, nil
}

func (r *TerminalCacheRepository) Exists(ctx context.Context, code shortener.Code) (bool, error) {
	if _, ok := r.cache.Get(string(code)); ok {
		return true, nil
	}

	return r.store.Exists(ctx, code)
}

// RecordClick short-circuits clicks on cached expired links, which would not
// be counted by the store anyway.
func (r *TerminalCacheRepository) RecordClick(
	ctx context.Context, code shortener.Code, now time.Time,
) (*shortener.ClickResult, error) {
	if link, ok := r.cached(code); ok {
		return &shortener.ClickResult{Link: link}, nil
	}

	res, err := r.store.RecordClick(ctx, code, now)
	if err != nil {
		return nil, err
	}

	r.remember(res.Link)

	return res, nil
}

func (r *TerminalCacheRepository) MarkExpired(ctx context.Context, code shortener.Code) (bool, error) {
	if _, ok := r.cache.Get(string(code)); ok {
		return false, nil
	}

	return r.store.MarkExpired(ctx, code)
}

func (r *TerminalCacheRepository) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}

// Shutdown flushes the cache.
func (r *TerminalCacheRepository) Shutdown() error {
	r.cache.Flush()

	return nil
}

func (r *TerminalCacheRepository) cached(code shortener.Code) (*shortener.Link, bool) {
	v, ok := r.cache.Get(string(code))
	if !ok {
		return nil, false
	}

	link, ok := v.(*shortener.Link)
	if !ok {
		return nil, false
	}

	return link.Clone(), true
}

func (r *TerminalCacheRepository) remember(link *shortener.Link) {
	if link == nil || !link.Expired() {
		return
	}

	r.cache.SetDefault(string(link.Code), link.Clone())
}

var _ shortener.Repository = (*TerminalCacheRepository)(nil)
