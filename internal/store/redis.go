package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/ghostlink/internal/shortener"
)

const maxTxRetries = 100

var errTxContention = errors.New("redis transaction retries exhausted")

// RedisStore is a Redis implementation of shortener.Repository.
// Each link is a hash under "link:<code>"; clicks use WATCH/MULTI/EXEC.
type RedisStore struct {
	client *redis.Client
	prefix string // "link:" for code -> link hash
	idKey  string // "link_ids" for id -> code (hash map)
}

// NewRedisStore creates a new Redis-backed link store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "link:",
		idKey:  "link_ids",
	}
}

func (r *RedisStore) Create(ctx context.Context, link *shortener.Link) error {
	key := r.key(link.Code)

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}

		if n > 0 {
			return shortener.ErrCodeTaken
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, encodeRedisLink(link))
			pipe.HSet(ctx, r.idKey, link.ID, string(link.Code))

			return nil
		})

		return err
	}, key)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, shortener.ErrCodeTaken), errors.Is(err, redis.TxFailedErr):
		return shortener.ErrCodeTaken
	default:
		return fmt.Errorf("insert link: %w", err)
	}
}

func (r *RedisStore) GetByCode(ctx context.Context, code shortener.Code) (*shortener.Link, error) {
	return r.load(ctx, r.client, r.key(code))
}

func (r *RedisStore) GetByID(ctx context.Context, id string) (*shortener.Link, error) {
	code, err := r.client.HGet(ctx, r.idKey, id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, shortener.ErrNotFound
		}

		return nil, fmt.Errorf("lookup id: %w", err)
	}

	return r.GetByCode(ctx, shortener.Code(code))
}

func (r *RedisStore) Exists(ctx context.Context, code shortener.Code) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(code)).Result()
	if err != nil {
		return false, fmt.Errorf("check code: %w", err)
	}

	return n > 0, nil
}

func (r *RedisStore) RecordClick(
	ctx context.Context, code shortener.Code, now time.Time,
) (*shortener.ClickResult, error) {
	key := r.key(code)

	var result *shortener.ClickResult

	err := r.atomically(ctx, key, func(tx *redis.Tx) error {
		link, err := r.load(ctx, tx, key)
		if err != nil {
			return err
		}

		counted, transitioned := shortener.Advance(link, now)
		if !counted {
			result = &shortener.ClickResult{Link: link}

			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, "clicks", link.Clicks, "status", string(link.Status))

			return nil
		})
		if err != nil {
			return err
		}

		result = &shortener.ClickResult{Link: link, Counted: true, Transitioned: transitioned}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *RedisStore) MarkExpired(ctx context.Context, code shortener.Code) (bool, error) {
	key := r.key(code)

	var flipped bool

	err := r.atomically(ctx, key, func(tx *redis.Tx) error {
		status, err := tx.HGet(ctx, key, "status").Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return shortener.ErrNotFound
			}

			return err
		}

		if shortener.Status(status) == shortener.StatusExpired {
			flipped = false

			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, "status", string(shortener.StatusExpired))

			return nil
		})
		flipped = err == nil

		return err
	})

	return flipped, err
}

// Ping checks Redis connectivity.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) key(code shortener.Code) string {
	return r.prefix + string(code)
}

// atomically runs fn under WATCH on key, retrying when another client
// modified the key before EXEC.
func (r *RedisStore) atomically(ctx context.Context, key string, fn func(tx *redis.Tx) error) error {
	for range maxTxRetries {
		err := r.client.Watch(ctx, fn, key)
		if err == nil {
			return nil
		}

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}

		if errors.Is(err, shortener.ErrNotFound) {
			return err
		}

		return fmt.Errorf("redis tx on %s: %w", key, err)
	}

	return errTxContention
}

func (r *RedisStore) load(ctx context.Context, c redis.Cmdable, key string) (*shortener.Link, error) {
	fields, err := c.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("load link: %w", err)
	}

	if len(fields) == 0 {
		return nil, shortener.ErrNotFound
	}

	return decodeRedisLink(fields)
}

func encodeRedisLink(link *shortener.Link) map[string]interface{} {
	fields := map[string]interface{}{
		"id":           link.ID,
		"code":         string(link.Code),
		"original_url": link.OriginalURL,
		"rule_type":    string(link.Rule.Type),
		"click_limit":  "",
		"time_limit":   "",
		"summary":      link.Rule.Summary,
		"raw_input":    link.Rule.RawInput,
		"clicks":       link.Clicks,
		"status":       string(link.Status),
		"created_at":   formatRedisTime(link.CreatedAt),
	}

	if link.Rule.ClickLimit != nil {
		fields["click_limit"] = *link.Rule.ClickLimit
	}

	if link.Rule.TimeLimit != nil {
		fields["time_limit"] = formatRedisTime(*link.Rule.TimeLimit)
	}

	return fields
}

// formatRedisTime stores instants as RFC 3339 text; UnixNano cannot represent
// deadlines after 2262.
func formatRedisTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func decodeRedisLink(fields map[string]string) (*shortener.Link, error) {
	clicks, err := strconv.ParseInt(fields["clicks"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("decode clicks: %w", err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, fields["created_at"])
	if err != nil {
		return nil, fmt.Errorf("decode created_at: %w", err)
	}

	link := &shortener.Link{
		ID:          fields["id"],
		Code:        shortener.Code(fields["code"]),
		OriginalURL: fields["original_url"],
		Rule: shortener.ExpiryRule{
			Type:     shortener.RuleType(fields["rule_type"]),
			Summary:  fields["summary"],
			RawInput: fields["raw_input"],
		},
		Clicks:    clicks,
		Status:    shortener.Status(fields["status"]),
		CreatedAt: createdAt.UTC(),
	}

	if v := fields["click_limit"]; v != "" {
		limit, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decode click_limit: %w", err)
		}

		link.Rule.ClickLimit = &limit
	}

	if v := fields["time_limit"]; v != "" {
		parsed, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, fmt.Errorf("decode time_limit: %w", err)
		}

		deadline := parsed.UTC()
		link.Rule.TimeLimit = &deadline
	}

	return link, nil
}

var _ shortener.Repository = (*RedisStore)(nil)
