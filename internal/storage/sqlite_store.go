package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/samvad-hq/samvad-report-harvester/internal/domain"
)

// sqliteStore implements a Store backed by a single-connection SQLite database.
type sqliteStore struct {
	db *sql.DB
}

func openSQLite(path string) (*sqliteStore, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	const schema = `
	CREATE TABLE IF NOT EXISTS processed_ids (
		id TEXT PRIMARY KEY,
		committed_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create processed_ids table: %w", err)
	}
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) Load() (domain.ProcessedIDSet, error) {
	rows, err := s.db.QueryContext(context.Background(), `SELECT id FROM processed_ids`)
	if err != nil {
		return nil, fmt.Errorf("load processed ids: %w", err)
	}
	defer rows.Close()

	set := make(domain.ProcessedIDSet)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan processed id: %w", err)
		}
		set.Insert(id)
	}
	return set, rows.Err()
}

func (s *sqliteStore) Contains(id string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(context.Background(),
		`SELECT COUNT(1) FROM processed_ids WHERE id = ?`, id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("lookup processed id: %w", err)
	}
	return n > 0, nil
}

func (s *sqliteStore) Add(id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	_, err := s.db.ExecContext(context.Background(),
		`INSERT INTO processed_ids (id) VALUES (?) ON CONFLICT(id) DO NOTHING`, id)
	if err != nil {
		return fmt.Errorf("insert processed id: %w", err)
	}
	return nil
}

func (s *sqliteStore) IsFirstRun() (bool, error) {
	var n int
	if err := s.db.QueryRowContext(context.Background(),
		`SELECT COUNT(1) FROM processed_ids`).Scan(&n); err != nil {
		return false, fmt.Errorf("count processed ids: %w", err)
	}
	return n == 0, nil
}
