package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mfujita47/pmidcite/internal/reference"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps entries in a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens or creates the database at path (see ResolvePath).
func OpenSQLite(path string) (*SQLiteStore, error) {
	path = ResolvePath(path, DefaultSQLiteName)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// createSchema creates the cache table if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS pubmed_cache (
			pmid TEXT PRIMARY KEY,
			record_json TEXT,
			error TEXT NOT NULL DEFAULT '',
			fetched_at INTEGER NOT NULL
		);
	`
	_, err := db.Exec(schema)
	return err
}

// Get returns the entry for pmid.
func (s *SQLiteStore) Get(ctx context.Context, pmid string) (Entry, bool, error) {
	var (
		recordJSON sql.NullString
		entry      Entry
		fetchedAt  int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT record_json, error, fetched_at FROM pubmed_cache WHERE pmid = ?`, pmid,
	).Scan(&recordJSON, &entry.Error, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("querying cache: %w", err)
	}

	if recordJSON.Valid && recordJSON.String != "" {
		var ref reference.Reference
		if err := json.Unmarshal([]byte(recordJSON.String), &ref); err != nil {
			return Entry{}, false, fmt.Errorf("unmarshaling record for %s: %w", pmid, err)
		}
		entry.Record = &ref
	}
	entry.FetchedAt = time.Unix(fetchedAt, 0).UTC()
	return entry, true, nil
}

// Put inserts or replaces entries in one transaction.
func (s *SQLiteStore) Put(ctx context.Context, entries map[string]Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO pubmed_cache (pmid, record_json, error, fetched_at)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for pmid, e := range entries {
		var recordJSON sql.NullString
		if e.Record != nil {
			data, err := json.Marshal(e.Record)
			if err != nil {
				return fmt.Errorf("marshaling record for %s: %w", pmid, err)
			}
			recordJSON = sql.NullString{String: string(data), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, pmid, recordJSON, e.Error, e.FetchedAt.Unix()); err != nil {
			return fmt.Errorf("inserting %s: %w", pmid, err)
		}
	}

	return tx.Commit()
}

// Len returns the number of cached entries.
func (s *SQLiteStore) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pubmed_cache`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting cache entries: %w", err)
	}
	return n, nil
}

// Clear deletes all entries.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM pubmed_cache`); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	return nil
}

// Location returns the database path.
func (s *SQLiteStore) Location() string {
	return s.path
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
