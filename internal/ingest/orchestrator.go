package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/samvad-hq/samvad-report-harvester/internal/domain"
	"github.com/samvad-hq/samvad-report-harvester/internal/metrics"
	"github.com/samvad-hq/samvad-report-harvester/pkg/listing"
	"github.com/samvad-hq/samvad-report-harvester/pkg/notify"
)

// Options tunes the orchestrator. Zero values get defaults.
type Options struct {
	Source      string
	DateLayouts []string
	Username    string
	Metrics     *metrics.Recorder

	Now   func() time.Time
	NewID func() (string, error)
}

// RunOptions controls a single run.
type RunOptions struct {
	Full bool
}

// Orchestrator drives discovery and the per-record pipeline:
// download, upload, metadata, commit. Records are processed one at a time in
// discovery order; a record's id is committed only after every stage succeeded.
type Orchestrator struct {
	lister     Lister
	store      Store
	downloader Downloader
	uploader   Uploader
	sink       MetadataSink
	notifier   Notifier
	opts       Options
	log        Logger
}

// New wires an orchestrator. Every collaborator is required.
func New(lister Lister, store Store, downloader Downloader, uploader Uploader, sink MetadataSink, notifier Notifier, opts Options, log Logger) (*Orchestrator, error) {
	switch {
	case lister == nil:
		return nil, fmt.Errorf("lister is required")
	case store == nil:
		return nil, fmt.Errorf("store is required")
	case downloader == nil:
		return nil, fmt.Errorf("downloader is required")
	case uploader == nil:
		return nil, fmt.Errorf("uploader is required")
	case sink == nil:
		return nil, fmt.Errorf("metadata sink is required")
	case notifier == nil:
		return nil, fmt.Errorf("notifier is required")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = newRunID
	}
	if log == nil {
		log = noopLogger{}
	}
	return &Orchestrator{
		lister:     lister,
		store:      store,
		downloader: downloader,
		uploader:   uploader,
		sink:       sink,
		notifier:   notifier,
		opts:       opts,
		log:        log,
	}, nil
}

func newRunID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate uuid7: %w", err)
	}
	return id.String(), nil
}

// Run performs one harvest pass. A discovery failure is returned as an error;
// per-record failures are reported through the notifier and the Summary only.
func (o *Orchestrator) Run(ctx context.Context, opts RunOptions) (Summary, error) {
	summary := Summary{StartedAt: o.opts.Now().UTC()}
	runID, err := o.opts.NewID()
	if err != nil {
		return summary, err
	}
	summary.RunID = runID

	err = o.run(ctx, opts, &summary)
	summary.FinishedAt = o.opts.Now().UTC()
	o.opts.Metrics.ObserveRun(summary.Full, err, summary.StartedAt, summary.FinishedAt)
	return summary, err
}

func (o *Orchestrator) run(ctx context.Context, opts RunOptions, summary *Summary) error {
	processed, err := o.store.Load()
	if err != nil {
		return fmt.Errorf("load processed ids: %w", err)
	}
	first, err := o.store.IsFirstRun()
	if err != nil {
		return fmt.Errorf("check first run: %w", err)
	}
	summary.Full = opts.Full || first

	records, err := o.discover(ctx, summary.Full)
	if err != nil {
		o.log.ErrorObj("discovery failed", "run_error", map[string]any{
			"run_id": summary.RunID,
			"full":   summary.Full,
			"error":  err.Error(),
		})
		o.notify(ctx, summary.RunID, fmt.Sprintf("crawl failed: %v", err))
		return fmt.Errorf("discover records: %w", err)
	}
	summary.Discovered = len(records)
	o.log.InfoObj("discovery completed", "run_discovery", map[string]any{
		"run_id":     summary.RunID,
		"full":       summary.Full,
		"first_run":  first,
		"discovered": len(records),
		"known_ids":  len(processed),
	})

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}

		outcome := o.process(ctx, rec, processed, summary.RunID)
		summary.add(outcome)
		o.opts.Metrics.ObserveRecord(outcome.Kind.String(), string(outcome.Stage))

		if outcome.Kind == Failed {
			o.log.WarnObj("record failed", "record_error", map[string]any{
				"run_id":    summary.RunID,
				"record_id": rec.ID,
				"title":     rec.Title,
				"stage":     string(outcome.Stage),
				"error":     outcome.Err.Error(),
			})
			o.notify(ctx, summary.RunID, fmt.Sprintf("%s failed for %q: %v", outcome.Stage, rec.Title, outcome.Err))
		}
	}

	if summary.Committed > 0 {
		o.notify(ctx, summary.RunID, fmt.Sprintf("ingested %d new report(s)", summary.Committed))
	} else {
		o.notify(ctx, summary.RunID, "nothing new")
	}

	o.log.InfoObj("run completed", "run_summary", map[string]any{
		"run_id":     summary.RunID,
		"full":       summary.Full,
		"discovered": summary.Discovered,
		"committed":  summary.Committed,
		"deduped":    summary.Deduped,
		"failed":     summary.Failed,
	})
	return nil
}

func (o *Orchestrator) discover(ctx context.Context, full bool) ([]domain.ListingRecord, error) {
	if full {
		return o.lister.CrawlAll(ctx)
	}
	return o.lister.CrawlPage(ctx, 1)
}

func (o *Orchestrator) process(ctx context.Context, rec domain.ListingRecord, processed domain.ProcessedIDSet, runID string) Outcome {
	if processed.Has(rec.ID) {
		return deduped(rec)
	}

	art, err := o.downloader.Download(ctx, rec)
	if err != nil {
		return failed(rec, StageDownload, err)
	}
	o.opts.Metrics.AddArtifactBytes(art.Bytes)

	if err := o.uploader.Upload(ctx, art.Path); err != nil {
		return failed(rec, StageUpload, err)
	}

	md := o.buildMetadata(rec, art, runID)
	if err := o.sink.Save(ctx, md); err != nil {
		return failed(rec, StageMetadata, err)
	}

	if err := o.store.Add(rec.ID); err != nil {
		return failed(rec, StageCommit, err)
	}
	processed.Insert(rec.ID)
	return committed(rec, art)
}

func (o *Orchestrator) buildMetadata(rec domain.ListingRecord, art domain.StoredArtifact, runID string) domain.ArtifactMetadata {
	return domain.ArtifactMetadata{
		Source:         o.opts.Source,
		RecordID:       rec.ID,
		Title:          rec.Title,
		Company:        rec.Company,
		NormalizedDate: listing.NormalizeDate(rec.RawDate, o.opts.DateLayouts...),
		ArtifactURL:    rec.ArtifactURL,
		StoredPath:     art.Path,
		SizeBytes:      art.Bytes,
		CreatedAt:      o.opts.Now().UTC(),
		RunID:          runID,
	}
}

// notify is best-effort: failures are logged and never change the run result.
func (o *Orchestrator) notify(ctx context.Context, runID, text string) {
	err := o.notifier.Notify(ctx, notify.Message{Text: text, Username: o.opts.Username})
	if err != nil {
		o.log.WarnObj("notification failed", "notify_error", map[string]any{
			"run_id": runID,
			"error":  err.Error(),
		})
	}
}
