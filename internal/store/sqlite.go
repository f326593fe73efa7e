package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/serroba/ghostlink/internal/shortener"
	_ "github.com/tursodatabase/libsql-client-go/libsql" // remote libSQL / Turso
	_ "modernc.org/sqlite"                               // pure-Go SQLite
)

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS links (
		id           TEXT PRIMARY KEY,
		short_code   TEXT NOT NULL UNIQUE,
		original_url TEXT NOT NULL,
		rule_type    TEXT NOT NULL,
		click_limit  INTEGER,
		time_limit   TEXT,
		summary      TEXT NOT NULL,
		raw_input    TEXT NOT NULL,
		clicks       INTEGER NOT NULL DEFAULT 0,
		status       TEXT NOT NULL DEFAULT 'active',
		created_at   TEXT NOT NULL
	);
`

const sqliteSelectLink = `
	SELECT id, short_code, original_url, rule_type, click_limit, time_limit,
	       summary, raw_input, clicks, status, created_at
	FROM links
`

// SQLiteStore is a SQLite (or libSQL) implementation of shortener.Repository.
// The pool holds a single connection, so transactions are serialized.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens dsn and applies the schema. DSNs starting with libsql://
// or wss:// use the libSQL client; anything else is a local SQLite file.
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteStore, error) {
	driver := "sqlite"
	if strings.HasPrefix(dsn, "libsql://") || strings.HasPrefix(dsn, "wss://") {
		driver = "libsql"
	} else {
		dsn = localSQLiteDSN(dsn)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err = db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("migrate links table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Create(ctx context.Context, link *shortener.Link) error {
	const q = `
		INSERT INTO links (id, short_code, original_url, rule_type, click_limit, time_limit,
		                   summary, raw_input, clicks, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var clickLimit, timeLimit any
	if link.Rule.ClickLimit != nil {
		clickLimit = *link.Rule.ClickLimit
	}

	if link.Rule.TimeLimit != nil {
		timeLimit = formatSQLiteTime(*link.Rule.TimeLimit)
	}

	_, err := s.db.ExecContext(ctx, q,
		link.ID,
		string(link.Code),
		link.OriginalURL,
		string(link.Rule.Type),
		clickLimit,
		timeLimit,
		link.Rule.Summary,
		link.Rule.RawInput,
		link.Clicks,
		string(link.Status),
		formatSQLiteTime(link.CreatedAt),
	)
	if err != nil {
		// Driver error codes differ between modernc and libSQL.
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return shortener.ErrCodeTaken
		}

		return fmt.Errorf("insert link: %w", err)
	}

	return nil
}

func (s *SQLiteStore) GetByCode(ctx context.Context, code shortener.Code) (*shortener.Link, error) {
	return scanSQLiteLink(s.db.QueryRowContext(ctx, sqliteSelectLink+" WHERE short_code = ?", string(code)))
}

func (s *SQLiteStore) GetByID(ctx context.Context, id string) (*shortener.Link, error) {
	return scanSQLiteLink(s.db.QueryRowContext(ctx, sqliteSelectLink+" WHERE id = ?", id))
}

func (s *SQLiteStore) Exists(ctx context.Context, code shortener.Code) (bool, error) {
	var n int

	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM links WHERE short_code = ?", string(code),
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check code: %w", err)
	}

	return n > 0, nil
}

func (s *SQLiteStore) RecordClick(
	ctx context.Context, code shortener.Code, now time.Time,
) (*shortener.ClickResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin click tx: %w", err)
	}

	defer func() { _ = tx.Rollback() }()

	link, err := scanSQLiteLink(tx.QueryRowContext(ctx, sqliteSelectLink+" WHERE short_code = ?", string(code)))
	if err != nil {
		return nil, err
	}

	counted, transitioned := shortener.Advance(link, now)
	if !counted {
		return &shortener.ClickResult{Link: link}, nil
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE links SET clicks = ?, status = ? WHERE short_code = ?",
		link.Clicks, string(link.Status), string(code),
	)
	if err != nil {
		return nil, fmt.Errorf("update clicks: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit click tx: %w", err)
	}

	return &shortener.ClickResult{Link: link, Counted: true, Transitioned: transitioned}, nil
}

func (s *SQLiteStore) MarkExpired(ctx context.Context, code shortener.Code) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE links SET status = 'expired' WHERE short_code = ? AND status = 'active'",
		string(code),
	)
	if err != nil {
		return false, fmt.Errorf("mark expired: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark expired: %w", err)
	}

	if n == 1 {
		return true, nil
	}

	exists, err := s.Exists(ctx, code)
	if err != nil {
		return false, err
	}

	if !exists {
		return false, shortener.ErrNotFound
	}

	return false, nil
}

// Ping checks database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Shutdown closes the database.
func (s *SQLiteStore) Shutdown() error {
	return s.db.Close()
}

// localSQLiteDSN makes every transaction BEGIN IMMEDIATE, so a click takes
// the write lock before reading and other processes sharing the file wait on
// busy_timeout instead of failing with SQLITE_BUSY_SNAPSHOT.
func localSQLiteDSN(dsn string) string {
	params := "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"

	if strings.Contains(dsn, "?") {
		return dsn + "&" + params
	}

	return dsn + "?" + params
}

func formatSQLiteTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func scanSQLiteLink(row *sql.Row) (*shortener.Link, error) {
	var (
		link       shortener.Link
		code       string
		ruleType   string
		status     string
		clickLimit sql.NullInt64
		timeLimit  sql.NullString
		createdAt  string
	)

	err := row.Scan(
		&link.ID,
		&code,
		&link.OriginalURL,
		&ruleType,
		&clickLimit,
		&timeLimit,
		&link.Rule.Summary,
		&link.Rule.RawInput,
		&link.Clicks,
		&status,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, shortener.ErrNotFound
		}

		return nil, fmt.Errorf("scan link: %w", err)
	}

	link.Code = shortener.Code(code)
	link.Rule.Type = shortener.RuleType(ruleType)
	link.Status = shortener.Status(status)

	if link.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("decode created_at: %w", err)
	}

	if clickLimit.Valid {
		limit := clickLimit.Int64
		link.Rule.ClickLimit = &limit
	}

	if timeLimit.Valid {
		deadline, err := time.Parse(time.RFC3339Nano, timeLimit.String)
		if err != nil {
			return nil, fmt.Errorf("decode time_limit: %w", err)
		}

		link.Rule.TimeLimit = &deadline
	}

	return &link, nil
}

var _ shortener.Repository = (*SQLiteStore)(nil)
