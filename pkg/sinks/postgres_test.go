package sinks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/samvad-hq/samvad-report-harvester/internal/domain"
)

func sampleMetadata() domain.ArtifactMetadata {
	return domain.ArtifactMetadata{
		Source:         "naver-research",
		RecordID:       "73012",
		Title:          "Solar outlook",
		Company:        "Alpha Securities",
		NormalizedDate: "2024-03-15",
		ArtifactURL:    "https://files.example.com/73012.pdf",
		StoredPath:     "/data/Solar_outlook.pdf",
		SizeBytes:      2048,
		CreatedAt:      time.Unix(1710489600, 0).UTC(),
		RunID:          "run-1",
	}
}

func TestPostgresSinkUpsertsRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	sink, err := NewPostgresSinkWithPool("pg", mock, "report_metadata", nil)
	require.NoError(t, err)

	md := sampleMetadata()
	mock.ExpectExec(`INSERT INTO report_metadata .* ON CONFLICT \(record_id\) DO UPDATE SET source = EXCLUDED.source`).
		WithArgs(
			md.RecordID,
			md.Source,
			md.Title,
			md.Company,
			md.NormalizedDate,
			md.ArtifactURL,
			md.StoredPath,
			md.SizeBytes,
			md.CreatedAt,
			md.RunID,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, sink.Save(context.Background(), md))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSinkWritesNullForMissingDate(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	sink, err := NewPostgresSinkWithPool("pg", mock, "", nil)
	require.NoError(t, err)

	md := sampleMetadata()
	md.NormalizedDate = ""
	mock.ExpectExec(`INSERT INTO report_metadata`).
		WithArgs(
			md.RecordID,
			md.Source,
			md.Title,
			md.Company,
			nil,
			md.ArtifactURL,
			md.StoredPath,
			md.SizeBytes,
			md.CreatedAt,
			md.RunID,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, sink.Save(context.Background(), md))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSinkPropagatesExecError(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	sink, err := NewPostgresSinkWithPool("pg", mock, "report_metadata", nil)
	require.NoError(t, err)

	mock.ExpectExec(`INSERT INTO report_metadata`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))

	require.Error(t, sink.Save(context.Background(), sampleMetadata()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewPostgresSinkWithPoolValidation(t *testing.T) {
	t.Parallel()

	_, err := NewPostgresSinkWithPool("pg", nil, "report_metadata", nil)
	require.Error(t, err)

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewPostgresSinkWithPool("pg", mock, "bad-name;", nil)
	require.Error(t, err)
}
