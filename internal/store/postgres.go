package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/ghostlink/internal/shortener"
)

const pgUniqueViolation = "23505"

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS links (
		id           TEXT PRIMARY KEY,
		short_code   TEXT NOT NULL UNIQUE,
		original_url TEXT NOT NULL,
		rule_type    TEXT NOT NULL,
		click_limit  BIGINT,
		time_limit   TIMESTAMPTZ,
		summary      TEXT NOT NULL,
		raw_input    TEXT NOT NULL,
		clicks       BIGINT NOT NULL DEFAULT 0 CHECK (clicks >= 0),
		status       TEXT NOT NULL DEFAULT 'active',
		created_at   TIMESTAMPTZ NOT NULL
	)
`

const postgresSelectLink = `
	SELECT id, short_code, original_url, rule_type, click_limit, time_limit,
	       summary, raw_input, clicks, status, created_at
	FROM links
`

// PostgresStore is a PostgreSQL implementation of shortener.Repository.
// Clicks are serialized per row with SELECT ... FOR UPDATE.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed link store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the links table if it does not exist.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("migrate links table: %w", err)
	}

	return nil
}

func (p *PostgresStore) Create(ctx context.Context, link *shortener.Link) error {
	query := `
		INSERT INTO links (id, short_code, original_url, rule_type, click_limit, time_limit,
		                   summary, raw_input, clicks, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := p.pool.Exec(ctx, query,
		link.ID,
		string(link.Code),
		link.OriginalURL,
		string(link.Rule.Type),
		link.Rule.ClickLimit,
		link.Rule.TimeLimit,
		link.Rule.Summary,
		link.Rule.RawInput,
		link.Clicks,
		string(link.Status),
		link.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return shortener.ErrCodeTaken
		}

		return fmt.Errorf("insert link: %w", err)
	}

	return nil
}

func (p *PostgresStore) GetByCode(ctx context.Context, code shortener.Code) (*shortener.Link, error) {
	return scanPostgresLink(p.pool.QueryRow(ctx, postgresSelectLink+" WHERE short_code = $1", string(code)))
}

func (p *PostgresStore) GetByID(ctx context.Context, id string) (*shortener.Link, error) {
	return scanPostgresLink(p.pool.QueryRow(ctx, postgresSelectLink+" WHERE id = $1", id))
}

func (p *PostgresStore) Exists(ctx context.Context, code shortener.Code) (bool, error) {
	var exists bool

	err := p.pool.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM links WHERE short_code = $1)", string(code),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check code: %w", err)
	}

	return exists, nil
}

func (p *PostgresStore) RecordClick(
	ctx context.Context, code shortener.Code, now time.Time,
) (*shortener.ClickResult, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin click tx: %w", err)
	}

	// Rollback after Commit is a no-op.
	defer func() { _ = tx.Rollback(ctx) }()

	link, err := scanPostgresLink(tx.QueryRow(ctx,
		postgresSelectLink+" WHERE short_code = $1 FOR UPDATE", string(code)))
	if err != nil {
		return nil, err
	}

	counted, transitioned := shortener.Advance(link, now)
	if !counted {
		return &shortener.ClickResult{Link: link}, nil
	}

	_, err = tx.Exec(ctx,
		"UPDATE links SET clicks = $2, status = $3 WHERE short_code = $1",
		string(code), link.Clicks, string(link.Status),
	)
	if err != nil {
		return nil, fmt.Errorf("update clicks: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit click tx: %w", err)
	}

	return &shortener.ClickResult{Link: link, Counted: true, Transitioned: transitioned}, nil
}

func (p *PostgresStore) MarkExpired(ctx context.Context, code shortener.Code) (bool, error) {
	tag, err := p.pool.Exec(ctx,
		"UPDATE links SET status = 'expired' WHERE short_code = $1 AND status = 'active'",
		string(code),
	)
	if err != nil {
		return false, fmt.Errorf("mark expired: %w", err)
	}

	if tag.RowsAffected() == 1 {
		return true, nil
	}

	exists, err := p.Exists(ctx, code)
	if err != nil {
		return false, err
	}

	if !exists {
		return false, shortener.ErrNotFound
	}

	return false, nil
}

// Ping checks database connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Shutdown closes the connection pool.
func (p *PostgresStore) Shutdown() error {
	p.pool.Close()

	return nil
}

func scanPostgresLink(row pgx.Row) (*shortener.Link, error) {
	var (
		link      shortener.Link
		code      string
		ruleType  string
		status    string
		timeLimit *time.Time
	)

	err := row.Scan(
		&link.ID,
		&code,
		&link.OriginalURL,
		&ruleType,
		&link.Rule.ClickLimit,
		&timeLimit,
		&link.Rule.Summary,
		&link.Rule.RawInput,
		&link.Clicks,
		&status,
		&link.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shortener.ErrNotFound
		}

		return nil, fmt.Errorf("scan link: %w", err)
	}

	link.Code = shortener.Code(code)
	link.Rule.Type = shortener.RuleType(ruleType)
	link.Status = shortener.Status(status)
	link.CreatedAt = link.CreatedAt.UTC()

	if timeLimit != nil {
		t := timeLimit.UTC()
		link.Rule.TimeLimit = &t
	}

	return &link, nil
}

var _ shortener.Repository = (*PostgresStore)(nil)
