// Package store keeps corpus word counts in SQLite so that several ingest
// runs can accumulate into one table before a model is built.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for word counts.
type Store struct {
	db *sql.DB
}

// Ingest records one batch of counts added to the store.
type Ingest struct {
	ID         int64
	Source     string
	Tokens     int
	Words      int
	IngestedAt time.Time
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one writer at a time
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate %s: %w", path, err)
	}
	log.Debugf("Opened count store at %s", path)
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS word_counts (
			word TEXT PRIMARY KEY,
			count INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS ingests (
			id INTEGER PRIMARY KEY,
			source TEXT NOT NULL,
			tokens INTEGER NOT NULL,
			words INTEGER NOT NULL,
			ingested_at TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// AddCounts adds counts onto the stored totals and records the batch.
func (s *Store) AddCounts(ctx context.Context, source string, counts map[string]int, tokens int) (id int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO word_counts (word, count) VALUES (?, ?)
		 ON CONFLICT(word) DO UPDATE SET count = count + excluded.count`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for word, n := range counts {
		if _, err = stmt.ExecContext(ctx, word, n); err != nil {
			return 0, fmt.Errorf("failed to add %q: %w", word, err)
		}
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO ingests (source, tokens, words, ingested_at) VALUES (?, ?, ?, ?)`,
		source, tokens, len(counts), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, err
	}
	if id, err = res.LastInsertId(); err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	log.Debugf("Stored %d words from %s", len(counts), source)
	return id, nil
}

// Counts returns every stored word with its total.
func (s *Store) Counts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT word, count FROM word_counts`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var word string
		var n int
		if err := rows.Scan(&word, &n); err != nil {
			return nil, err
		}
		counts[word] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

// Ingests lists recorded batches, oldest first.
func (s *Store) Ingests(ctx context.Context) ([]Ingest, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, tokens, words, ingested_at FROM ingests ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Ingest
	for rows.Next() {
		var in Ingest
		var at string
		if err := rows.Scan(&in.ID, &in.Source, &in.Tokens, &in.Words, &at); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, err
		}
		in.IngestedAt = parsed
		result = append(result, in)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Reset deletes all counts and ingest records.
func (s *Store) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, stmt := range []string{`DELETE FROM word_counts`, `DELETE FROM ingests`} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
