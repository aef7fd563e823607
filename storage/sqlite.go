package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteConfig struct {
	OnDisk    bool
	Directory string
}

type SQLiteStorage struct {
	SQLiteConfig

	db *sql.DB
}

func NewSQLiteStorage(cfg ...SQLiteConfig) (*SQLiteStorage, error) {
	onDisk := false
	directory := ""
	if len(cfg) > 0 {
		onDisk = cfg[0].OnDisk
		directory = cfg[0].Directory
	}

	sourceName := ":memory:"
	if onDisk {
		sourceName = directory + "/transit.db"
	}

	db, err := sql.Open("sqlite3", sourceName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Each connection to :memory: gets its own database.
	if !onDisk {
		db.SetMaxOpenConns(1)
	}

	_, err = db.Exec(`
CREATE TABLE IF NOT EXISTS receipt (
    name TEXT NOT NULL,
    content TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
PRIMARY KEY (name)
);

CREATE TABLE IF NOT EXISTS source (
    sha256 TEXT NOT NULL,
    url TEXT NOT NULL,
    retrieved_at TIMESTAMP NOT NULL,
    cities INTEGER NOT NULL,
    departures INTEGER NOT NULL,
PRIMARY KEY (sha256, url)
);
`)
	if err != nil {
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	return &SQLiteStorage{
		SQLiteConfig: SQLiteConfig{
			OnDisk:    onDisk,
			Directory: directory,
		},
		db: db,
	}, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) WriteReceipt(name string, content string, createdAt time.Time) (string, error) {
	return writeUnique(name, func(candidate string) (bool, error) {
		res, err := s.db.Exec(`
INSERT INTO receipt (name, content, created_at)
VALUES (?, ?, ?)
ON CONFLICT (name) DO NOTHING
`,
			candidate,
			content,
			createdAt.UTC(),
		)
		if err != nil {
			return false, fmt.Errorf("inserting receipt: %w", err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return false, fmt.Errorf("inserting receipt: %w", err)
		}

		return n == 1, nil
	})
}

func (s *SQLiteStorage) ListReceipts() ([]*Receipt, error) {
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

func (s *SQLiteStorage) WriteSource(src *SourceMetadata) error {
	_, err := s.db.Exec(`
INSERT INTO source (
    sha256,
    url,
    retrieved_at,
    cities,
    departures
)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (sha256, url) DO UPDATE SET
    retrieved_at = excluded.retrieved_at,
    cities = excluded.cities,
    departures = excluded.departures
`,
		src.SHA256,
		src.URL,
		src.RetrievedAt.UTC(),
		src.Cities,
		src.Departures,
	)
	if err != nil {
		return fmt.Errorf("writing source: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) ListSources(url string) ([]*SourceMetadata, error) {
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
		query += " WHERE url = ?"
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
