package domain

import "time"

// Domain contains core models and interfaces.

// ListingRecord is one report reference discovered on a listing page.
type ListingRecord struct {
	ID          string
	Title       string
	Company     string
	RawDate     string
	ArtifactURL string
	DetailURL   string
}

// StoredArtifact describes a downloaded artifact on local storage.
type StoredArtifact struct {
	Path  string
	Bytes int64
}

// ArtifactMetadata is the document handed to metadata sinks once an artifact
// has been downloaded and relayed.
type ArtifactMetadata struct {
	Source         string    `json:"source"`
	RecordID       string    `json:"record_id"`
	Title          string    `json:"title"`
	Company        string    `json:"company,omitempty"`
	NormalizedDate string    `json:"normalized_date,omitempty"`
	ArtifactURL    string    `json:"artifact_url"`
	StoredPath     string    `json:"stored_path"`
	SizeBytes      int64     `json:"size_bytes"`
	CreatedAt      time.Time `json:"created_at"`
	RunID          string    `json:"run_id,omitempty"`
}

// HasDate reports whether the source date could be normalized.
func (m ArtifactMetadata) HasDate() bool {
	return m.NormalizedDate != ""
}

// ProcessedIDSet is the in-memory view of ids that completed every stage.
type ProcessedIDSet map[string]struct{}

// Has reports whether id is in the set.
func (s ProcessedIDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Insert adds id to the set.
func (s ProcessedIDSet) Insert(id string) {
	s[id] = struct{}{}
}
