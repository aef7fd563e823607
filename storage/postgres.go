package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

type PSQLStorage struct {
	db *sql.DB
}

// Creates a new Postgres Storage using the provided connection string.
//
// If clearDB is true, the database will be cleared on startup. You
// probably only want this for testing.
func NewPSQLStorage(connStr string, clearDB bool) (*PSQLStorage, error) {

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	err = db.Ping()
	if err != nil {
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	if clearDB {
		_, err = db.Exec(`
DROP TABLE IF EXISTS receipt;
DROP TABLE IF EXISTS source;
`)
		if err != nil {
			return nil, fmt.Errorf("clearing db: %w", err)
		}
	}

	_, err = db.Exec(`
CREATE TABLE IF NOT EXISTS receipt (
    name TEXT NOT NULL,
    content TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (name)
);

CREATE TABLE IF NOT EXISTS source (
    sha256 TEXT NOT NULL,
    url TEXT NOT NULL,
    retrieved_at TIMESTAMPTZ NOT NULL,
    cities INTEGER NOT NULL,
    departures INTEGER NOT NULL,
    PRIMARY KEY (sha256, url)
);`)
	if err != nil {
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	return &PSQLStorage{
		db: db,
	}, nil
}

func (s *PSQLStorage) Close() error {
	err := s.db.Close()
	if err != nil {
		return fmt.Errorf("failed to close db: %w", err)
	}
	return nil
}

func (s *PSQLStorage) WriteReceipt(name string, content string, createdAt time.Time) (string, error) {
	return writeUnique(name, func(candidate string) (bool, error) {
		_, err := s.db.Exec(`
INSERT INTO receipt (name, content, created_at)
VALUES ($1, $2, $3)`,
			candidate,
			content,
			createdAt,
		)
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("inserting receipt: %w", err)
		}
		return true, nil
	})
}

func (s *PSQLStorage) ListReceipts() ([]*Receipt, error) {
	rows, err := s.db.Query(`
SELECT name, content, created_at
FROM receipt
ORDER BY created_at ASC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}
	defer rows.Close()

	receipts := []*Receipt{}
	for rows.Next() {
		r := &Receipt{}
		err := rows.Scan(&r.Name, &r.Content, &r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning receipt: %w", err)
		}
		receipts = append(receipts, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating receipts: %w", err)
	}

	return receipts, nil
}

func (s *PSQLStorage) WriteSource(src *SourceMetadata) error {
	_, err := s.db.Exec(`
INSERT INTO source (
    sha256,
    url,
    retrieved_at,
    cities,
    departures
)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (sha256, url) DO UPDATE SET
    retrieved_at = EXCLUDED.retrieved_at,
    cities = EXCLUDED.cities,
    departures = EXCLUDED.departures
`,
		src.SHA256,
		src.URL,
		src.RetrievedAt,
		src.Cities,
		src.Departures,
	)
	if err != nil {
		return fmt.Errorf("writing source: %w", err)
	}
	return nil
}

func (s *PSQLStorage) ListSources(url string) ([]*SourceMetadata, error) {
	query := `
SELECT
    sha256,
    url,
    retrieved_at,
    cities,
    departures
FROM source`

	params := []interface{}{}
	if url != "" {
		query += " WHERE url = $1"
		params = append(params, url)
	}

	query += " ORDER BY retrieved_at DESC"

	rows, err := s.db.Query(query, params...)
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	defer rows.Close()

	sources := []*SourceMetadata{}
	for rows.Next() {
		var src SourceMetadata
		err := rows.Scan(
			&src.SHA256,
			&src.URL,
			&src.RetrievedAt,
			&src.Cities,
			&src.Departures,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning source: %w", err)
		}
		sources = append(sources, &src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sources: %w", err)
	}

	return sources, nil
}
