package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/AnatoleLucet/signet/netfile"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB

	now func() time.Time
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path, now: time.Now}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("open store: sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("open store %s: %w", s.path, err)
	}

	// sql.Open is lazy, the file is only touched here
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("open store %s: %w", s.path, err)
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return fmt.Errorf("open store %s: create tables: %w", s.path, err)
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) Put(ctx context.Context, rec Record) (Record, error) {
	db, err := s.getDB()
	if err != nil {
		return Record{}, err
	}

	rec, err = stamp(rec, s.now)
	if err != nil {
		return Record{}, err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO models (name, revision, encoding, payload, stored_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			revision = excluded.revision,
			encoding = excluded.encoding,
			payload = excluded.payload,
			stored_at = excluded.stored_at
	`, rec.Name, rec.Revision, string(rec.Encoding), rec.Payload, rec.StoredAt.UnixNano())
	if err != nil {
		return Record{}, fmt.Errorf("put model %s: %w", rec.Name, err)
	}
	return rec, nil
}

func (s *SQLiteStore) Get(ctx context.Context, name string) (Record, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return Record{}, false, err
	}

	row := db.QueryRowContext(ctx, `
		SELECT name, revision, encoding, payload, stored_at FROM models WHERE name = ?
	`, name)

	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, false, nil
		}
		return Record{}, false, fmt.Errorf("get model %s: %w", name, err)
	}
	return rec, true, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Record, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT name, revision, encoding, payload, stored_at FROM models ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) Delete(ctx context.Context, name string) (bool, error) {
	db, err := s.getDB()
	if err != nil {
		return false, err
	}

	res, err := db.ExecContext(ctx, `DELETE FROM models WHERE name = ?`, name)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, ErrNotInitialized
	}
	return s.db, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		rec      Record
		encoding string
		storedAt int64
	)
	if err := row.Scan(&rec.Name, &rec.Revision, &encoding, &rec.Payload, &storedAt); err != nil {
		return Record{}, err
	}

	rec.Encoding = netfile.Encoding(encoding)
	rec.StoredAt = time.Unix(0, storedAt).UTC()
	return rec, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS models (
			name TEXT PRIMARY KEY,
			revision TEXT NOT NULL,
			encoding TEXT NOT NULL,
			payload BLOB NOT NULL,
			stored_at INTEGER NOT NULL
		);
	`)
	return err
}
