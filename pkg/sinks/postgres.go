package sinks

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samvad-hq/samvad-report-harvester/internal/domain"
)

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// PostgresSink upserts metadata rows into Postgres.
type PostgresSink struct {
	id    string
	table string
	pool  execCloser
	log   Logger
}

func newPostgresSink(ctx context.Context, cfg SinkConfig, log Logger) (Sink, error) {
	if cfg.Postgres == nil {
		return nil, fmt.Errorf("sink %q missing postgres configuration", cfg.ID)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.Postgres.MaxConns > 0 {
		poolCfg.MaxConns = cfg.Postgres.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	sink, err := NewPostgresSinkWithPool(cfg.ID, pool, cfg.Postgres.Table, log)
	if err != nil {
		pool.Close()
		return nil, err
	}
	if cfg.Postgres.CreateTable {
		if err := sink.ensureTable(ctx); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return sink, nil
}

// NewPostgresSinkWithPool constructs a sink from an existing pool (primarily for testing).
func NewPostgresSinkWithPool(id string, pool execCloser, table string, log Logger) (*PostgresSink, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	table = tableOrDefault(table)
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &PostgresSink{id: id, table: table, pool: pool, log: ensureLogger(log)}, nil
}

func (p *PostgresSink) ensureTable(ctx context.Context) error {
	schema := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	record_id TEXT PRIMARY KEY,
	source TEXT NOT NULL,
	title TEXT NOT NULL,
	company TEXT,
	normalized_date DATE,
	artifact_url TEXT NOT NULL,
	stored_path TEXT NOT NULL,
	size_bytes BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	run_id TEXT
)`, p.table)
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create %s table: %w", p.table, err)
	}
	return nil
}

func (p *PostgresSink) ID() string   { return p.id }
func (p *PostgresSink) Type() string { return TypePostgres }

func (p *PostgresSink) Save(ctx context.Context, md domain.ArtifactMetadata) error {
	if md.RecordID == "" {
		return fmt.Errorf("record id is required")
	}
	query, args, err := upsertMetadata(p.table, sq.Dollar, md, md.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}
	if _, err := p.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert metadata: %w", err)
	}
	p.log.DebugObj("postgres sink stored metadata", "sink_postgres_write", map[string]any{
		"sink_id":   p.id,
		"record_id": md.RecordID,
	})
	return nil
}

func (p *PostgresSink) Close() error {
	if p == nil || p.pool == nil {
		return nil
	}
	p.pool.Close()
	return nil
}
