package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite" // registers the sqlite driver

	"github.com/theopenlane/eushield/internal/types"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS cache_entries (
	domain TEXT PRIMARY KEY,
	payload TEXT NOT NULL,
	stored_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cache_entries_stored_at ON cache_entries(stored_at);
`

// SQLiteStore persists entries in a SQLite database
type SQLiteStore struct {
	conn    *sql.DB
	options *Options
}

// NewSQLiteStore opens (creating when needed) the database at path
func NewSQLiteStore(path string, opts ...Option) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// a single writer avoids SQLITE_BUSY under concurrent analyses
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(sqliteSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &SQLiteStore{conn: conn, options: newOptions(opts)}, nil
}

// Get returns the fresh entry for domain or ErrNotFound
func (s *SQLiteStore) Get(ctx context.Context, domain string) (*types.CachedResult, error) {
	domain, err := normalizeDomain(domain)
	if err != nil {
		return nil, err
	}

	var payload string

	err = s.conn.QueryRowContext(ctx, `SELECT payload FROM cache_entries WHERE domain = ?`, domain).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, &Error{Reason: ReasonReadFailed, Domain: domain, Err: err}
	}

	entry, err := s.options.decode(domain, []byte(payload))
	if err != nil {
		if !errors.Is(err, errExpired) {
			log.Warn().Err(err).Str("domain", domain).Msg("purging invalid cache entry")
		}

		if clearErr := s.Clear(ctx, domain); clearErr != nil {
			log.Warn().Err(clearErr).Str("domain", domain).Msg("failed to purge cache entry")
		}

		return nil, ErrNotFound
	}

	return entry, nil
}

// Put upserts result for domain, stamped with the current time
func (s *SQLiteStore) Put(ctx context.Context, domain, analyzedURL string, result types.ScoringResult) error {
	domain, err := normalizeDomain(domain)
	if err != nil {
		return err
	}

	data, err := s.options.encode(domain, analyzedURL, result)
	if err != nil {
		return err
	}

	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO cache_entries (domain, payload, stored_at) VALUES (?, ?, ?)
		ON CONFLICT(domain) DO UPDATE SET payload = excluded.payload, stored_at = excluded.stored_at`,
		domain, string(data), s.options.now().UnixMilli())
	if err != nil {
		return &Error{Reason: ReasonWriteFailed, Domain: domain, Err: err}
	}

	return nil
}

// Clear removes the entry for domain
func (s *SQLiteStore) Clear(ctx context.Context, domain string) error {
	domain, err := normalizeDomain(domain)
	if err != nil {
		return err
	}

	if _, err := s.conn.ExecContext(ctx, `DELETE FROM cache_entries WHERE domain = ?`, domain); err != nil {
		return &Error{Reason: ReasonWriteFailed, Domain: domain, Err: err}
	}

	return nil
}

// PurgeExpired deletes every entry older than the TTL and returns how many were removed
func (s *SQLiteStore) PurgeExpired(ctx context.Context) (int64, error) {
	cutoff := s.options.now().Add(-s.options.ttl).UnixMilli()

	res, err := s.conn.ExecContext(ctx, `DELETE FROM cache_entries WHERE stored_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge expired entries: %w", err)
	}

	return res.RowsAffected()
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}
