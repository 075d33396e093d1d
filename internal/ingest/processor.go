// Package ingest drives one archive ingestion job end to end: download,
// extraction, asset upload, catalog record creation, and source cleanup.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"tracklift/internal/archive"
	"tracklift/internal/catalog"
	"tracklift/internal/config"
	"tracklift/internal/logging"
	"tracklift/internal/manifest"
	"tracklift/internal/queue"
	"tracklift/internal/storage"
)

// TrackStore is the catalog surface the processor needs.
type TrackStore interface {
	Create(ctx context.Context, track *catalog.Track) (*catalog.Track, error)
	ExistingISRCs(ctx context.Context) (map[string]struct{}, error)
}

// ObjectStore is the object storage surface the processor needs.
type ObjectStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, storage.Transfer, error)
	Delete(ctx context.Context, key string) error
	ObjectKeyFromURL(rawURL string) string
}

// Notifier receives terminal job events. Implementations must tolerate
// being called with a nil context deadline.
type Notifier interface {
	JobCompleted(ctx context.Context, job *queue.Job)
	JobFailed(ctx context.Context, job *queue.Job, message string)
}

// Processor executes ingest jobs against the queue, catalog, and object
// store. One Processor serves the whole daemon; Process itself is safe
// for concurrent calls because the claim transition admits only one.
type Processor struct {
	jobs         *queue.Store
	tracks       TrackStore
	objects      ObjectStore
	httpClient   storage.HTTPDoer
	notifier     Notifier
	logger       *slog.Logger
	fetchTimeout time.Duration
}

// NewProcessor wires a processor from configuration and its collaborators.
// A nil doer falls back to a plain http.Client; a nil notifier disables
// notifications.
func NewProcessor(
	cfg *config.Config,
	jobs *queue.Store,
	tracks TrackStore,
	objects ObjectStore,
	doer storage.HTTPDoer,
	notifier Notifier,
	logger *slog.Logger,
) *Processor {
	if doer == nil {
		doer = &http.Client{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Processor{
		jobs:         jobs,
		tracks:       tracks,
		objects:      objects,
		httpClient:   doer,
		notifier:     notifier,
		logger:       logging.NewComponentLogger(logger, "ingest"),
		fetchTimeout: time.Duration(cfg.Ingest.FetchTimeoutSeconds) * time.Second,
	}
}

type runResult struct {
	created    int
	skipped    int
	uploadMbps *float64
}

// Process runs one job to a terminal state. A job that is already
// processing or done is skipped without error; any failure lands the job
// in the error state with the failure message recorded.
func (p *Processor) Process(ctx context.Context, jobID int64) error {
	job, err := p.jobs.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("load job %d: %w", jobID, err)
	}
	if job == nil {
		return fmt.Errorf("job %d not found", jobID)
	}

	claimed, err := p.jobs.ClaimProcessing(ctx, jobID, PhaseDownloading)
	if err != nil {
		return fmt.Errorf("claim job %d: %w", jobID, err)
	}
	if !claimed {
		p.logger.InfoContext(ctx, "job not claimable, skipping",
			logging.Int64(logging.FieldJobID, jobID),
			logging.String("status", string(job.Status)))
		return nil
	}

	ctx = logging.WithJobID(ctx, jobID)
	p.logger.InfoContext(ctx, "job started",
		logging.Int64(logging.FieldJobID, jobID),
		logging.String("archive_url", job.ArchiveURL))

	result, runErr := p.run(ctx, job)
	if runErr != nil {
		p.logger.ErrorContext(ctx, "job failed",
			logging.Int64(logging.FieldJobID, jobID),
			logging.Error(runErr))
		if markErr := p.jobs.MarkError(ctx, jobID, PhaseError, runErr.Error()); markErr != nil {
			p.logger.ErrorContext(ctx, "record job failure",
				logging.Int64(logging.FieldJobID, jobID),
				logging.Error(markErr))
		}
		if p.notifier != nil {
			p.notifier.JobFailed(ctx, job, runErr.Error())
		}
		return runErr
	}

	if err := p.jobs.MarkDone(ctx, jobID, PhaseDone, result.created, result.skipped, result.uploadMbps); err != nil {
		return fmt.Errorf("record job completion: %w", err)
	}
	p.logger.InfoContext(ctx, "job completed",
		logging.Int64(logging.FieldJobID, jobID),
		logging.Int("created", result.created),
		logging.Int("skipped", result.skipped))
	if p.notifier != nil {
		if done, err := p.jobs.GetByID(ctx, jobID); err == nil && done != nil {
			p.notifier.JobCompleted(ctx, done)
		}
	}
	return nil
}

func (p *Processor) run(ctx context.Context, job *queue.Job) (runResult, error) {
	var result runResult

	payload, err := p.fetchArchive(ctx, job.ArchiveURL)
	if err != nil {
		return result, err
	}

	contents, err := archive.ExtractAll(payload)
	if err != nil {
		return result, wrap(ErrContent, "extract archive", "", err)
	}
	if !contents.HasManifest() {
		return result, wrap(ErrContent, "extract archive", "no CSV manifest found in archive", nil)
	}
	rows := manifest.Parse(string(contents.Manifest))
	if len(rows) == 0 {
		return result, wrap(ErrContent, "parse manifest", "manifest has no data rows", nil)
	}

	catalogNo := manifest.CatalogNumber(rows[0])

	p.setPhase(ctx, job.ID, PhaseCoverUpload)
	coverURL := ""
	if contents.Cover != nil {
		key := fmt.Sprintf("covers/%s.%s", catalogNo, contents.CoverExt)
		url, _, err := p.objects.Upload(ctx, key, contents.Cover, contents.CoverContentType())
		if err != nil {
			return result, classifyUpload("upload cover", err)
		}
		coverURL = url
	}

	known, err := p.tracks.ExistingISRCs(ctx)
	if err != nil {
		return result, wrap(ErrTransport, "snapshot catalog", "", err)
	}

	p.setPhase(ctx, job.ID, PhaseAudioUpload)
	var (
		totalBytes   int64
		totalElapsed time.Duration
	)
	for _, row := range rows {
		track := manifest.MapRow(row)
		if !manifest.HasRequiredFields(track) {
			result.skipped++
			continue
		}
		isrcKey := strings.ToUpper(track.ISRC)
		if track.ISRC != "" {
			if _, dup := known[isrcKey]; dup {
				result.skipped++
				continue
			}
		}

		if audio, ok := contents.Audio[isrcKey]; ok && track.ISRC != "" {
			url, transfer, err := p.objects.Upload(ctx, "wav/"+track.ISRC+".wav", audio, "audio/wav")
			if err != nil {
				return result, classifyUpload("upload audio", err)
			}
			track.AudioURL = url
			totalBytes += transfer.Bytes
			totalElapsed += transfer.Duration

			phase := audioProgressPhase(result.created+1, len(rows))
			mbps := storage.MbitsPerSecond(totalBytes, totalElapsed)
			if err := p.jobs.UpdateProgress(ctx, job.ID, &phase, &mbps); err != nil {
				p.logger.WarnContext(ctx, "update progress",
					logging.Int64(logging.FieldJobID, job.ID),
					logging.Error(err))
			}
		}

		if coverURL != "" {
			track.CoverURL = coverURL
		}

		p.setPhase(ctx, job.ID, PhaseSaving)
		if _, err := p.tracks.Create(ctx, track); err != nil {
			return result, wrap(ErrTransport, "save track", "", err)
		}
		if track.ISRC != "" {
			known[isrcKey] = struct{}{}
		}
		result.created++
	}

	if totalElapsed > 0 {
		mbps := storage.MbitsPerSecond(totalBytes, totalElapsed)
		result.uploadMbps = &mbps
	}

	p.cleanupArchive(ctx, job)
	return result, nil
}

// fetchArchive downloads the source archive with a bounded timeout.
func (p *Processor) fetchArchive(ctx context.Context, archiveURL string) ([]byte, error) {
	fetchCtx := ctx
	if p.fetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, p.fetchTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, archiveURL, nil)
	if err != nil {
		return nil, wrap(ErrTransport, "download archive", "", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, wrap(ErrTransport, "download archive", "", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, wrap(ErrTransport, "download archive",
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, wrap(ErrTransport, "download archive", "", err)
	}
	return payload, nil
}

// cleanupArchive deletes the source zip. Failures only log; the job
// still completes.
func (p *Processor) cleanupArchive(ctx context.Context, job *queue.Job) {
	key := job.ArchiveKey
	if key == "" {
		key = p.objects.ObjectKeyFromURL(job.ArchiveURL)
	}
	if key == "" {
		return
	}
	if err := p.objects.Delete(ctx, key); err != nil {
		p.logger.WarnContext(ctx, "cleanup source archive",
			logging.Int64(logging.FieldJobID, job.ID),
			logging.String("key", key),
			logging.Error(err))
	}
}

func (p *Processor) setPhase(ctx context.Context, jobID int64, phase string) {
	if err := p.jobs.UpdateProgress(ctx, jobID, &phase, nil); err != nil {
		p.logger.WarnContext(ctx, "update phase",
			logging.Int64(logging.FieldJobID, jobID),
			logging.String("phase", phase),
			logging.Error(err))
	}
}

// classifyUpload maps object store failures onto the marker taxonomy.
// Signature rejections indicate credential or clock drift, not payload
// problems.
func classifyUpload(step string, err error) error {
	var uploadErr *storage.UploadError
	if errors.As(err, &uploadErr) && uploadErr.StatusCode == http.StatusForbidden {
		return wrap(ErrSigning, step, "", err)
	}
	return wrap(ErrTransport, step, "", err)
}
