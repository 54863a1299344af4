package sinks

import (
	"fmt"
	"regexp"

	sq "github.com/Masterminds/squirrel"

	"github.com/samvad-hq/samvad-report-harvester/internal/domain"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

var metadataColumns = []string{
	"record_id",
	"source",
	"title",
	"company",
	"normalized_date",
	"artifact_url",
	"stored_path",
	"size_bytes",
	"created_at",
	"run_id",
}

// upsertMetadata builds an insert keyed by record_id; a retried write replaces the row.
func upsertMetadata(table string, ph sq.PlaceholderFormat, md domain.ArtifactMetadata, createdAt any) (string, []any, error) {
	var date any
	if md.HasDate() {
		date = md.NormalizedDate
	}

	return sq.Insert(table).
		Columns(metadataColumns...).
		Values(
			md.RecordID,
			md.Source,
			md.Title,
			md.Company,
			date,
			md.ArtifactURL,
			md.StoredPath,
			md.SizeBytes,
			createdAt,
			md.RunID,
		).
		Suffix(conflictClause()).
		PlaceholderFormat(ph).
		ToSql()
}

func conflictClause() string {
	clause := "ON CONFLICT (record_id) DO UPDATE SET "
	for i, col := range metadataColumns[1:] {
		if i > 0 {
			clause += ", "
		}
		clause += fmt.Sprintf("%s = EXCLUDED.%s", col, col)
	}
	return clause
}
