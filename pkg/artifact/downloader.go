package artifact

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/samvad-hq/samvad-report-harvester/internal/domain"
	"github.com/samvad-hq/samvad-report-harvester/pkg/httpclient"
	"github.com/samvad-hq/samvad-report-harvester/pkg/listing"
)

// Config controls artifact fetching.
type Config struct {
	BaseURL   string // relative artifact links resolve against this
	UserAgent string
	Ext       string
}

// Logger is the subset of the application logger used by the downloader.
type Logger interface {
	DebugObj(msg, key string, obj interface{})
}

type noopLogger struct{}

func (noopLogger) DebugObj(string, string, interface{}) {}

// Downloader fetches a record's artifact and stores it locally.
type Downloader struct {
	cfg    Config
	base   *url.URL
	client httpclient.Client
	store  *LocalStore
	log    Logger
}

// NewDownloader wires a downloader writing into store.
func NewDownloader(cfg Config, client httpclient.Client, store *LocalStore, log Logger) (*Downloader, error) {
	if store == nil {
		return nil, fmt.Errorf("artifact store is nil")
	}
	var base *url.URL
	if strings.TrimSpace(cfg.BaseURL) != "" {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("parse base url: %w", err)
		}
		base = u
	}
	if client == nil {
		client = listing.DefaultHTTPClient()
	}
	if log == nil {
		log = noopLogger{}
	}
	if cfg.Ext == "" {
		cfg.Ext = ".pdf"
	}
	return &Downloader{cfg: cfg, base: base, client: client, store: store, log: log}, nil
}

// Download fetches rec's artifact and writes it under the storage root.
// Transport errors, non-2xx statuses and empty bodies wrap domain.ErrFetchFailed.
func (d *Downloader) Download(ctx context.Context, rec domain.ListingRecord) (domain.StoredArtifact, error) {
	target, err := listing.ResolveURL(d.base, rec.ArtifactURL)
	if err != nil {
		return domain.StoredArtifact{}, fmt.Errorf("%w: record %s: %v", domain.ErrFetchFailed, rec.ID, err)
	}

	resp, err := d.client.Get(ctx, target, listing.Headers(d.cfg.UserAgent))
	if err != nil {
		return domain.StoredArtifact{}, fmt.Errorf("%w: GET %s: %v", domain.ErrFetchFailed, target, err)
	}
	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return domain.StoredArtifact{}, fmt.Errorf("%w: GET %s returned status %d", domain.ErrFetchFailed, target, resp.StatusCode())
	}
	body := resp.Body()
	if len(body) == 0 {
		return domain.StoredArtifact{}, fmt.Errorf("%w: GET %s returned an empty body", domain.ErrFetchFailed, target)
	}

	name := SanitizeFilename(rec.Title, rec.ID, d.cfg.Ext)
	stored, err := d.store.Put(name, bytes.NewReader(body))
	if err != nil {
		return domain.StoredArtifact{}, fmt.Errorf("store artifact for record %s: %w", rec.ID, err)
	}

	d.log.DebugObj("artifact stored", "artifact", map[string]any{
		"record_id": rec.ID,
		"url":       target,
		"path":      stored.Path,
		"bytes":     stored.Bytes,
	})
	return stored, nil
}
