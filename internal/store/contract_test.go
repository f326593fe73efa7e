package store_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/serroba/ghostlink/internal/shortener"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestLink(rule shortener.ExpiryRule) *shortener.Link {
	id := uuid.NewString()

	return &shortener.Link{
		ID:          id,
		Code:        shortener.Code("t" + id[:8]),
		OriginalURL: "https://example.com/" + id[:4],
		Rule:        rule,
		Status:      shortener.StatusActive,
		CreatedAt:   baseTime,
	}
}

// testRepositoryContract runs the behaviour every Repository must share.
func testRepositoryContract(t *testing.T, repo shortener.Repository) {
	t.Helper()

	ctx := context.Background()

	t.Run("create and get by code and id", func(t *testing.T) {
		link := newTestLink(shortener.HybridRule(3, baseTime.Add(time.Hour), "3 clicks or 1 hour", "3 clicks or 1h"))

		require.NoError(t, repo.Create(ctx, link))

		got, err := repo.GetByCode(ctx, link.Code)
		require.NoError(t, err)
		assert.Equal(t, link.ID, got.ID)
		assert.Equal(t, link.OriginalURL, got.OriginalURL)
		assert.Equal(t, shortener.RuleHybrid, got.Rule.Type)
		require.NotNil(t, got.Rule.ClickLimit)
		assert.Equal(t, int64(3), *got.Rule.ClickLimit)
		require.NotNil(t, got.Rule.TimeLimit)
		assert.True(t, baseTime.Add(time.Hour).Equal(*got.Rule.TimeLimit))
		assert.Equal(t, "3 clicks or 1 hour", got.Rule.Summary)
		assert.Equal(t, "3 clicks or 1h", got.Rule.RawInput)
		assert.Equal(t, shortener.StatusActive, got.Status)
		assert.True(t, baseTime.Equal(got.CreatedAt))

		byID, err := repo.GetByID(ctx, link.ID)
		require.NoError(t, err)
		assert.Equal(t, link.Code, byID.Code)
	})

	t.Run("duplicate code returns ErrCodeTaken", func(t *testing.T) {
		link := newTestLink(shortener.ClickRule(1, "1 click", "1 click"))
		require.NoError(t, repo.Create(ctx, link))

		dup := newTestLink(shortener.ClickRule(1, "1 click", "1 click"))
		dup.Code = link.Code

		assert.ErrorIs(t, repo.Create(ctx, dup), shortener.ErrCodeTaken)
	})

	t.Run("unknown code and id return ErrNotFound", func(t *testing.T) {
		_, err := repo.GetByCode(ctx, "missing-code")
		assert.ErrorIs(t, err, shortener.ErrNotFound)

		_, err = repo.GetByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, shortener.ErrNotFound)

		_, err = repo.RecordClick(ctx, "missing-code", baseTime)
		assert.ErrorIs(t, err, shortener.ErrNotFound)

		_, err = repo.MarkExpired(ctx, "missing-code")
		assert.ErrorIs(t, err, shortener.ErrNotFound)
	})

	t.Run("exists", func(t *testing.T) {
		link := newTestLink(shortener.TimeRule(baseTime.Add(time.Hour), "1 hour", "1h"))
		require.NoError(t, repo.Create(ctx, link))

		ok, err := repo.Exists(ctx, link.Code)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.Exists(ctx, "missing-code")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("click limit expires on the limit-th click", func(t *testing.T) {
		link := newTestLink(shortener.ClickRule(2, "2 clicks", "2 clicks"))
		require.NoError(t, repo.Create(ctx, link))

		first, err := repo.RecordClick(ctx, link.Code, baseTime)
		require.NoError(t, err)
		assert.True(t, first.Counted)
		assert.False(t, first.Transitioned)
		assert.Equal(t, int64(1), first.Link.Clicks)
		assert.Equal(t, shortener.StatusActive, first.Link.Status)

		second, err := repo.RecordClick(ctx, link.Code, baseTime)
		require.NoError(t, err)
		assert.True(t, second.Counted)
		assert.True(t, second.Transitioned)
		assert.Equal(t, int64(2), second.Link.Clicks)
		assert.Equal(t, shortener.StatusExpired, second.Link.Status)

		third, err := repo.RecordClick(ctx, link.Code, baseTime)
		require.NoError(t, err)
		assert.False(t, third.Counted)
		assert.False(t, third.Transitioned)
		assert.Equal(t, int64(2), third.Link.Clicks, "expired links are not counted")

		stored, err := repo.GetByCode(ctx, link.Code)
		require.NoError(t, err)
		assert.Equal(t, int64(2), stored.Clicks)
		assert.Equal(t, shortener.StatusExpired, stored.Status)
	})

	t.Run("time limit expires the first click past the deadline", func(t *testing.T) {
		link := newTestLink(shortener.TimeRule(baseTime.Add(time.Minute), "1 minute", "1m"))
		require.NoError(t, repo.Create(ctx, link))

		res, err := repo.RecordClick(ctx, link.Code, baseTime.Add(time.Minute))
		require.NoError(t, err)
		assert.True(t, res.Transitioned)
		assert.Equal(t, int64(1), res.Link.Clicks)
		assert.Equal(t, shortener.StatusExpired, res.Link.Status)
	})

	t.Run("far-future deadline survives a round trip", func(t *testing.T) {
		deadline := time.Date(2300, 1, 1, 0, 0, 0, 0, time.UTC)
		link := newTestLink(shortener.TimeRule(deadline, "Expires in 2300", "in 300 years"))
		require.NoError(t, repo.Create(ctx, link))

		got, err := repo.GetByCode(ctx, link.Code)
		require.NoError(t, err)
		require.NotNil(t, got.Rule.TimeLimit)
		assert.True(t, deadline.Equal(*got.Rule.TimeLimit), "got %s", got.Rule.TimeLimit)

		res, err := repo.RecordClick(ctx, link.Code, baseTime)
		require.NoError(t, err)
		assert.True(t, res.Counted)
		assert.False(t, res.Transitioned)
		assert.Equal(t, shortener.StatusActive, res.Link.Status)
	})

	t.Run("mark expired is idempotent", func(t *testing.T) {
		link := newTestLink(shortener.TimeRule(baseTime.Add(time.Minute), "1 minute", "1m"))
		require.NoError(t, repo.Create(ctx, link))

		flipped, err := repo.MarkExpired(ctx, link.Code)
		require.NoError(t, err)
		assert.True(t, flipped)

		flipped, err = repo.MarkExpired(ctx, link.Code)
		require.NoError(t, err)
		assert.False(t, flipped)

		stored, err := repo.GetByCode(ctx, link.Code)
		require.NoError(t, err)
		assert.Equal(t, shortener.StatusExpired, stored.Status)
		assert.Equal(t, int64(0), stored.Clicks)
	})

	t.Run("concurrent clicks are not lost", func(t *testing.T) {
		const clicks = 20

		link := newTestLink(shortener.ClickRule(1000, "1000 clicks", "1000 clicks"))
		require.NoError(t, repo.Create(ctx, link))

		var wg sync.WaitGroup

		for range clicks {
			wg.Add(1)

			go func() {
				defer wg.Done()

				_, err := repo.RecordClick(ctx, link.Code, baseTime)
				assert.NoError(t, err)
			}()
		}

		wg.Wait()

		stored, err := repo.GetByCode(ctx, link.Code)
		require.NoError(t, err)
		assert.Equal(t, int64(clicks), stored.Clicks)
	})

	t.Run("exactly one concurrent click transitions", func(t *testing.T) {
		const (
			clicks = 20
			limit  = 5
		)

		link := newTestLink(shortener.ClickRule(limit, "5 clicks", "5 clicks"))
		require.NoError(t, repo.Create(ctx, link))

		var (
			wg           sync.WaitGroup
			counted      atomic.Int64
			transitioned atomic.Int64
		)

		for range clicks {
			wg.Add(1)

			go func() {
				defer wg.Done()

				res, err := repo.RecordClick(ctx, link.Code, baseTime)
				if !assert.NoError(t, err) {
					return
				}

				if res.Counted {
					counted.Add(1)
				}

				if res.Transitioned {
					transitioned.Add(1)
				}
			}()
		}

		wg.Wait()

		assert.Equal(t, int64(limit), counted.Load())
		assert.Equal(t, int64(1), transitioned.Load())

		stored, err := repo.GetByCode(ctx, link.Code)
		require.NoError(t, err)
		assert.Equal(t, int64(limit), stored.Clicks)
		assert.Equal(t, shortener.StatusExpired, stored.Status)
	})

	t.Run("returned links are copies", func(t *testing.T) {
		link := newTestLink(shortener.ClickRule(5, "5 clicks", "5 clicks"))
		require.NoError(t, repo.Create(ctx, link))

		got, err := repo.GetByCode(ctx, link.Code)
		require.NoError(t, err)

		got.Clicks = 99
		*got.Rule.ClickLimit = 1

		again, err := repo.GetByCode(ctx, link.Code)
		require.NoError(t, err)
		assert.Equal(t, int64(0), again.Clicks)
		assert.Equal(t, int64(5), *again.Rule.ClickLimit)
	})
}
