package dictionary

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Schema for the word frequency store.
const freqSchema = `
CREATE TABLE IF NOT EXISTS word_freq (
    word          TEXT PRIMARY KEY,
    count         INTEGER NOT NULL DEFAULT 0,
    last_used_ns  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_word_freq_count ON word_freq(count DESC);
`

// FrequencyStore persists per-word usage counts in SQLite.
type FrequencyStore struct {
	db *sql.DB
}

// OpenFrequencyStore opens or creates the frequency database at path.
func OpenFrequencyStore(path string) (*FrequencyStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(freqSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &FrequencyStore{db: db}, nil
}

// Close closes the database connection.
func (s *FrequencyStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Bump increments the usage count for word.
func (s *FrequencyStore) Bump(word string) error {
	_, err := s.db.Exec(`
		INSERT INTO word_freq (word, count, last_used_ns) VALUES (?, 1, ?)
		ON CONFLICT(word) DO UPDATE SET count = count + 1, last_used_ns = excluded.last_used_ns`,
		word, time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("bump word count: %w", err)
	}
	return nil
}

// Count returns the usage count for word, zero when never used.
func (s *FrequencyStore) Count(word string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT count FROM word_freq WHERE word = ?`, word).Scan(&n)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get word count: %w", err)
	}
	return n, nil
}

// All returns every stored word with its count.
func (s *FrequencyStore) All() (map[string]int, error) {
	rows, err := s.db.Query(`SELECT word, count FROM word_freq`)
	if err != nil {
		return nil, fmt.Errorf("query word counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var word string
		var count int
		if err := rows.Scan(&word, &count); err != nil {
			return nil, fmt.Errorf("scan word count: %w", err)
		}
		counts[word] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate word counts: %w", err)
	}
	return counts, nil
}

// Prune removes words not used since cutoff, keeping the database from
// accumulating one-off typos forever.
func (s *FrequencyStore) Prune(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM word_freq WHERE last_used_ns < ? AND count < 3`, cutoff.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("prune word counts: %w", err)
	}
	return res.RowsAffected()
}
