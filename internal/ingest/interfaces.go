package ingest

import (
	"context"

	"github.com/samvad-hq/samvad-report-harvester/internal/domain"
	"github.com/samvad-hq/samvad-report-harvester/pkg/notify"
)

// Lister discovers listing records.
type Lister interface {
	CrawlAll(ctx context.Context) ([]domain.ListingRecord, error)
	CrawlPage(ctx context.Context, n int) ([]domain.ListingRecord, error)
}

// Store persists committed record ids.
type Store interface {
	Load() (domain.ProcessedIDSet, error)
	Add(id string) error
	IsFirstRun() (bool, error)
}

// Downloader fetches a record's artifact to local storage.
type Downloader interface {
	Download(ctx context.Context, rec domain.ListingRecord) (domain.StoredArtifact, error)
}

// Uploader relays a stored artifact to the remote endpoint.
type Uploader interface {
	Upload(ctx context.Context, localPath string) error
}

// MetadataSink persists artifact metadata.
type MetadataSink interface {
	Save(ctx context.Context, md domain.ArtifactMetadata) error
}

// Notifier delivers operator alerts.
type Notifier interface {
	Notify(ctx context.Context, msg notify.Message) error
}

// Logger is the subset of the application logger used by the orchestrator.
type Logger interface {
	InfoObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

type noopLogger struct{}

func (noopLogger) InfoObj(string, string, interface{})  {}
func (noopLogger) WarnObj(string, string, interface{})  {}
func (noopLogger) ErrorObj(string, string, interface{}) {}
