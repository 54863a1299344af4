package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/samvad-hq/samvad-report-harvester/internal/config"
	"github.com/samvad-hq/samvad-report-harvester/internal/ingest"
	"github.com/samvad-hq/samvad-report-harvester/internal/logger"
	"github.com/samvad-hq/samvad-report-harvester/internal/metrics"
	"github.com/samvad-hq/samvad-report-harvester/internal/storage"
	"github.com/samvad-hq/samvad-report-harvester/pkg/artifact"
	"github.com/samvad-hq/samvad-report-harvester/pkg/httpclient"
	"github.com/samvad-hq/samvad-report-harvester/pkg/listing"
	"github.com/samvad-hq/samvad-report-harvester/pkg/notify"
	"github.com/samvad-hq/samvad-report-harvester/pkg/sinks"
	"github.com/samvad-hq/samvad-report-harvester/pkg/upload"
)

// Harvester represents the report harvester runtime. It owns the dedup store
// and the metadata sinks, and drives the ingestion orchestrator either once or
// on a fixed interval.
type Harvester struct {
	cfg           *config.Config
	orchestrator  *ingest.Orchestrator
	store         storage.Store
	fanout        *sinks.Fanout
	metrics       *metrics.Recorder
	crawlInterval time.Duration
	log           logger.Logger
}

// NewHarvester builds a harvester runtime from config.
func NewHarvester(ctx context.Context, cfg *config.Config, log logger.Logger) (*Harvester, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	client := httpclient.New(httpclient.Options{Timeout: cfg.HTTPTimeout, UserAgent: cfg.UserAgent})

	extractor, err := listing.NewExtractor(cfg.ListingURL, cfg.ListingIDParam, listing.DefaultLayout())
	if err != nil {
		return nil, fmt.Errorf("init extractor: %w", err)
	}
	crawler, err := listing.NewCrawler(listing.Config{
		ListingURL: cfg.ListingURL,
		PageParam:  cfg.ListingPageParam,
		MaxPages:   cfg.MaxPages,
		UserAgent:  cfg.UserAgent,
	}, extractor, client, log)
	if err != nil {
		return nil, fmt.Errorf("init crawler: %w", err)
	}

	artifacts, err := artifact.NewLocalStore(cfg.StorageDir)
	if err != nil {
		return nil, fmt.Errorf("init artifact storage: %w", err)
	}
	downloader, err := artifact.NewDownloader(artifact.Config{
		BaseURL:   cfg.ListingURL,
		UserAgent: cfg.UserAgent,
		Ext:       cfg.ArtifactExt,
	}, client, artifacts, log)
	if err != nil {
		return nil, fmt.Errorf("init downloader: %w", err)
	}

	uploader, err := buildUploader(cfg, log)
	if err != nil {
		return nil, err
	}

	notifier, err := notify.New(ctx, notify.Config{
		SlackWebhookURL:  cfg.SlackWebhookURL,
		SlackIconEmoji:   cfg.SlackIconEmoji,
		TelegramBotToken: cfg.TelegramBotToken,
		TelegramChatID:   cfg.TelegramChatID,
		SNS: notify.SNSConfig{
			TopicARN:        cfg.SNSTopicARN,
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretKey,
		},
		Timeout: cfg.HTTPTimeout,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("init notifier: %w", err)
	}
	log.InfoObj("notifier initialized", "notify_config", map[string]any{
		"channels": notifier.Size(),
		"slack":    cfg.SlackWebhookURL != "",
		"telegram": cfg.TelegramBotToken != "",
		"sns":      cfg.SNSTopicARN != "",
	})

	fanout, err := buildSinks(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewStore(cfg.StateType, cfg.StatePath)
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type": cfg.StateType,
		"path": cfg.StatePath,
	})

	recorder := metrics.New()
	orchestrator, err := ingest.New(crawler, store, downloader, uploader, fanout, notifier, ingest.Options{
		Source:      cfg.SourceTag,
		DateLayouts: dateLayouts(cfg.DateLayout),
		Username:    cfg.NotifyUsername,
		Metrics:     recorder,
	}, log)
	if err != nil {
		_ = fanout.Close()
		_ = store.Close()
		return nil, fmt.Errorf("init orchestrator: %w", err)
	}

	return &Harvester{
		cfg:           cfg,
		orchestrator:  orchestrator,
		store:         store,
		fanout:        fanout,
		metrics:       recorder,
		crawlInterval: cfg.CrawlInterval,
		log:           log,
	}, nil
}

func buildUploader(cfg *config.Config, log logger.Logger) (ingest.Uploader, error) {
	if !cfg.FTPEnabled {
		log.WarnObj("ftp upload disabled; artifacts stay local", "storage_dir", cfg.StorageDir)
		return upload.NoopUploader{}, nil
	}
	up, err := upload.NewFTPUploader(upload.Config{
		Host:     cfg.FTPHost,
		Port:     cfg.FTPPort,
		Username: cfg.FTPUsername,
		Password: cfg.FTPPassword,
		Dir:      cfg.FTPDir,
		Timeout:  cfg.FTPTimeout,
	}, nil, log)
	if err != nil {
		return nil, fmt.Errorf("init ftp uploader: %w", err)
	}
	log.InfoObj("ftp uploader initialized", "ftp_config", map[string]any{
		"addr": up.Addr(),
		"dir":  cfg.FTPDir,
	})
	return up, nil
}

// buildSinks loads the sinks file. A missing file falls back to a local
// sqlite table next to the dedup state.
func buildSinks(ctx context.Context, cfg *config.Config, log logger.Logger) (*sinks.Fanout, error) {
	reg, err := sinks.LoadRegistry(cfg.SinksFile)
	if errors.Is(err, os.ErrNotExist) {
		fallback := defaultSinkConfig(cfg)
		log.WarnObj("sinks file not found; using local sqlite sink", "sinks_fallback", map[string]any{
			"sinks_file": cfg.SinksFile,
			"path":       fallback.SQLite.Path,
		})
		reg, err = sinks.NewConfigRegistry([]sinks.SinkConfig{fallback})
	}
	if err != nil {
		return nil, fmt.Errorf("load sinks registry: %w", err)
	}

	enabled := reg.Enabled()
	if len(enabled) == 0 {
		return nil, fmt.Errorf("no metadata sinks enabled")
	}
	built, err := sinks.BuildAll(ctx, sinks.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build sinks: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, sc := range enabled {
		summaries = append(summaries, map[string]string{"id": sc.ID, "type": sc.Type})
	}
	log.InfoObj("sinks registry loaded", "sinks_meta", map[string]any{
		"count": len(summaries),
		"sinks": summaries,
	})
	return sinks.NewFanout(built), nil
}

func defaultSinkConfig(cfg *config.Config) sinks.SinkConfig {
	dir := filepath.Dir(cfg.StatePath)
	if cfg.StatePath == "" {
		dir = "."
	}
	return sinks.SinkConfig{
		ID:     "local-metadata",
		Type:   sinks.TypeSQLite,
		SQLite: &sinks.SQLiteConfig{Path: filepath.Join(dir, "metadata.db")},
	}
}

func dateLayouts(configured string) []string {
	if configured == "" {
		return listing.DefaultDateLayouts
	}
	layouts := []string{configured}
	for _, l := range listing.DefaultDateLayouts {
		if l != configured {
			layouts = append(layouts, l)
		}
	}
	return layouts
}

// RunOnce performs a single harvest pass and exports run metrics when configured.
func (h *Harvester) RunOnce(ctx context.Context, full bool) (ingest.Summary, error) {
	if h == nil || h.orchestrator == nil {
		return ingest.Summary{}, fmt.Errorf("harvester is not initialized")
	}
	h.log.InfoObj("harvest started", "harvest_meta", map[string]any{
		"full_requested": full,
		"listing_url":    h.cfg.ListingURL,
	})

	summary, err := h.orchestrator.Run(ctx, ingest.RunOptions{Full: full})
	h.exportMetrics()
	if err != nil {
		return summary, err
	}

	h.log.InfoObj("harvest completed", "harvest_meta", map[string]any{
		"run_id":     summary.RunID,
		"full":       summary.Full,
		"committed":  summary.Committed,
		"failed":     summary.Failed,
		"elapsed_ms": summary.FinishedAt.Sub(summary.StartedAt).Milliseconds(),
	})
	return summary, nil
}

// Watch runs immediately, then every crawl interval until the context is cancelled.
// Only the first pass honours full; later passes decide from the dedup state.
func (h *Harvester) Watch(ctx context.Context, full bool) error {
	if h == nil || h.orchestrator == nil {
		return fmt.Errorf("harvester is not initialized")
	}
	if h.crawlInterval <= 0 {
		return fmt.Errorf("crawl interval must be positive")
	}

	h.log.InfoObj("harvester loop starting", "harvester_state", map[string]any{
		"sinks_count":    h.fanout.Size(),
		"crawl_interval": h.crawlInterval.String(),
	})

	if _, err := h.RunOnce(ctx, full); err != nil {
		h.log.ErrorObj("initial harvest failed", "error", err)
	}

	ticker := time.NewTicker(h.crawlInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.InfoObj("harvester loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if _, err := h.RunOnce(ctx, false); err != nil {
				h.log.ErrorObj("scheduled harvest failed", "error", err)
			}
		}
	}
}

func (h *Harvester) exportMetrics() {
	if h.cfg.MetricsTextfile == "" {
		return
	}
	if err := h.metrics.WriteTextfile(h.cfg.MetricsTextfile); err != nil {
		h.log.WarnObj("metrics export failed", "error", err)
	}
}

// Close releases the dedup store and the metadata sinks.
func (h *Harvester) Close() error {
	if h == nil {
		return nil
	}
	var errs []error
	if h.fanout != nil {
		if err := h.fanout.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close sinks: %w", err))
		}
	}
	if h.store != nil {
		if err := h.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close storage: %w", err))
		}
	}
	return errors.Join(errs...)
}
