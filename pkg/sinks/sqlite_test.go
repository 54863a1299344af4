package sinks

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSQLiteSinkUpsertsByRecordID(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "meta", "metadata.db")

	built, err := newSQLiteSink(ctx, SinkConfig{
		ID:     "local",
		Type:   TypeSQLite,
		SQLite: &SQLiteConfig{Path: path, Table: "report_metadata"},
	}, nil)
	require.NoError(t, err)
	defer built.Close()

	sink := built.(*sqliteSink)
	md := sampleMetadata()
	require.NoError(t, sink.Save(ctx, md))

	md.Title = "Solar outlook (revised)"
	md.NormalizedDate = ""
	require.NoError(t, sink.Save(ctx, md))

	var (
		count int
		title string
		date  sql.NullString
		size  int64
	)
	require.NoError(t, sink.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM report_metadata`).Scan(&count))
	require.Equal(t, 1, count)

	require.NoError(t, sink.db.QueryRowContext(ctx,
		`SELECT title, normalized_date, size_bytes FROM report_metadata WHERE record_id = ?`, md.RecordID).
		Scan(&title, &date, &size))
	require.Equal(t, "Solar outlook (revised)", title)
	require.False(t, date.Valid)
	require.EqualValues(t, 2048, size)
}

func TestSQLiteSinkRequiresConfig(t *testing.T) {
	_, err := newSQLiteSink(context.Background(), SinkConfig{ID: "x", Type: TypeSQLite}, nil)
	require.Error(t, err)
}
