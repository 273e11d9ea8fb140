// Package snapshot persists the last successfully fetched upstream
// payload per layer, so a refresh can fall back to known-good data when
// the GIS service is unreachable.
package snapshot

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// Store is a sqlite-backed payload cache keyed by layer path.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the cache database at path and applies the
// schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "snapshot: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "snapshot: exec %s", pragma)
		}
	}

	const migration = `
CREATE TABLE IF NOT EXISTS layer_snapshots (
	layer      TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	fetched_at DATETIME NOT NULL
);`
	if _, err := db.Exec(migration); err != nil {
		db.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "snapshot: migrate")
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores the payload for a layer, replacing any previous snapshot.
func (s *Store) Put(ctx context.Context, layer string, payload []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO layer_snapshots (layer, payload, fetched_at) VALUES (?, ?, ?)
		 ON CONFLICT (layer) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at`,
		layer, payload, time.Now().UTC(),
	)
	return eris.Wrap(err, "snapshot: put")
}

// Get returns the stored payload and fetch time for a layer. A missing
// snapshot returns ok=false, not an error.
func (s *Store) Get(ctx context.Context, layer string) ([]byte, time.Time, bool, error) {
	var payload []byte
	var fetchedAt time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, fetched_at FROM layer_snapshots WHERE layer = ?`, layer,
	).Scan(&payload, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, eris.Wrap(err, "snapshot: get")
	}
	return payload, fetchedAt, true, nil
}
