package sinks

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/samvad-hq/samvad-report-harvester/internal/domain"
)

// sqliteSink writes metadata rows into a local SQLite table.
type sqliteSink struct {
	id    string
	table string
	db    *sql.DB
	log   Logger
}

func newSQLiteSink(ctx context.Context, cfg SinkConfig, log Logger) (Sink, error) {
	if cfg.SQLite == nil {
		return nil, fmt.Errorf("sink %q missing sqlite configuration", cfg.ID)
	}
	table := tableOrDefault(cfg.SQLite.Table)
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	dir := filepath.Dir(cfg.SQLite.Path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.SQLite.Path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		record_id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		title TEXT NOT NULL,
		company TEXT,
		normalized_date TEXT,
		artifact_url TEXT NOT NULL,
		stored_path TEXT NOT NULL,
		size_bytes INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		run_id TEXT
	);`, table)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create %s table: %w", table, err)
	}

	return &sqliteSink{id: cfg.ID, table: table, db: db, log: ensureLogger(log)}, nil
}

func (s *sqliteSink) ID() string   { return s.id }
func (s *sqliteSink) Type() string { return TypeSQLite }

func (s *sqliteSink) Save(ctx context.Context, md domain.ArtifactMetadata) error {
	query, args, err := upsertMetadata(s.table, sq.Question, md, md.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert metadata: %w", err)
	}
	s.log.DebugObj("sqlite sink stored metadata", "sink_sqlite_write", map[string]any{
		"sink_id":   s.id,
		"record_id": md.RecordID,
	})
	return nil
}

func (s *sqliteSink) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
