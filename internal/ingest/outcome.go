package ingest

import (
	"time"

	"github.com/samvad-hq/samvad-report-harvester/internal/domain"
)

// Stage names a per-record step that can fail.
type Stage string

const (
	StageDownload Stage = "download"
	StageUpload   Stage = "upload"
	StageMetadata Stage = "metadata"
	StageCommit   Stage = "commit"
)

// Kind tags an Outcome.
type Kind int

const (
	Committed Kind = iota
	Deduped
	Failed
)

func (k Kind) String() string {
	switch k {
	case Committed:
		return "committed"
	case Deduped:
		return "deduped"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the result of processing one record. Stage and Err are set only
// when Kind is Failed.
type Outcome struct {
	RecordID string
	Title    string
	Kind     Kind
	Stage    Stage
	Err      error
	Artifact domain.StoredArtifact
}

func committed(rec domain.ListingRecord, art domain.StoredArtifact) Outcome {
	return Outcome{RecordID: rec.ID, Title: rec.Title, Kind: Committed, Artifact: art}
}

func deduped(rec domain.ListingRecord) Outcome {
	return Outcome{RecordID: rec.ID, Title: rec.Title, Kind: Deduped}
}

func failed(rec domain.ListingRecord, stage Stage, err error) Outcome {
	return Outcome{RecordID: rec.ID, Title: rec.Title, Kind: Failed, Stage: stage, Err: err}
}

// Summary describes one run.
type Summary struct {
	RunID      string
	Full       bool
	Discovered int
	Committed  int
	Deduped    int
	Failed     int
	Outcomes   []Outcome
	StartedAt  time.Time
	FinishedAt time.Time
}

func (s *Summary) add(o Outcome) {
	s.Outcomes = append(s.Outcomes, o)
	switch o.Kind {
	case Committed:
		s.Committed++
	case Deduped:
		s.Deduped++
	case Failed:
		s.Failed++
	}
}
