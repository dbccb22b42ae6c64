package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/timmy/tubescribe/internal/domain"
	"github.com/timmy/tubescribe/internal/export"
	"github.com/timmy/tubescribe/internal/logger"
	"github.com/timmy/tubescribe/internal/scraper"
)

// noTranscriptsWarning accompanies an outcome that produced no records.
const noTranscriptsWarning = "No transcripts found. This could be because the video is unavailable, has no transcript, or the transcript is disabled."

// Runner executes admitted scrape jobs on a single dedicated worker
// goroutine. The depth-1 job channel plus the store's admission check
// make the single-flight guarantee structural: there is exactly one
// consumer, and a descriptor is only submitted after TryAdmit.
type Runner struct {
	store    *JobStateStore
	scraper  scraper.Scraper
	exporter *export.Exporter
	logger   *logger.Logger

	channelWindowDays int

	jobs chan domain.JobDescriptor
	wg   sync.WaitGroup
}

// RunnerConfig holds configuration for the runner.
type RunnerConfig struct {
	ChannelWindowDays int
}

// NewRunner creates a runner. Start must be called before Submit.
func NewRunner(store *JobStateStore, sc scraper.Scraper, exp *export.Exporter, log *logger.Logger, cfg *RunnerConfig) *Runner {
	days := 365
	if cfg != nil && cfg.ChannelWindowDays > 0 {
		days = cfg.ChannelWindowDays
	}
	return &Runner{
		store:             store,
		scraper:           sc,
		exporter:          exp,
		logger:            log,
		channelWindowDays: days,
		jobs:              make(chan domain.JobDescriptor, 1),
	}
}

// Start launches the worker goroutine.
func (r *Runner) Start() {
	r.wg.Add(1)
	go r.worker()
}

// Stop waits for the worker to drain and exit. An in-flight job runs to
// its terminal outcome first; there is no cancellation.
func (r *Runner) Stop() {
	close(r.jobs)
	r.wg.Wait()
}

// Submit hands an admitted descriptor to the worker. Callers must hold
// a successful TryAdmit for desc; under that contract the depth-1
// buffer is always free and Submit returns immediately.
func (r *Runner) Submit(desc domain.JobDescriptor) {
	r.jobs <- desc
}

func (r *Runner) worker() {
	defer r.wg.Done()
	for desc := range r.jobs {
		r.execute(desc)
	}
}

// execute runs one job and guarantees the store sees a terminal
// outcome on every exit path, including a panicking scrape or export.
func (r *Runner) execute(desc domain.JobDescriptor) {
	var outcome *domain.JobOutcome
	defer func() {
		if p := recover(); p != nil {
			r.logger.WithFields(logger.Fields{
				logger.FieldJobKind: desc.Kind,
				logger.FieldTarget:  desc.Target,
			}).Errorf("Job panicked: %v", p)
			outcome = r.terminal(desc, domain.JobStatusFailed, &domain.Diagnostic{
				Message: fmt.Sprintf("internal error: %v", p),
			})
		}
		r.store.Complete(outcome)
	}()

	start := time.Now()
	r.logger.WithFields(logger.Fields{
		logger.FieldJobKind: desc.Kind,
		logger.FieldTarget:  desc.Target,
	}).Info("Job started")

	outcome = r.run(desc)

	r.logger.WithFields(logger.Fields{
		logger.FieldJobKind:    desc.Kind,
		logger.FieldTarget:     desc.Target,
		logger.FieldStatus:     string(outcome.Status),
		logger.FieldCount:      len(outcome.Items),
		logger.FieldDurationMs: time.Since(start).Milliseconds(),
	}).Info("Job finished")
}

func (r *Runner) run(desc domain.JobDescriptor) *domain.JobOutcome {
	// Jobs are detached from the requests that spawned them and run to
	// completion, so the scrape gets a fresh root context.
	ctx := context.Background()

	var (
		records []scraper.Record
		err     error
	)
	switch desc.Kind {
	case domain.JobKindVideo:
		records, err = r.scraper.ScrapeVideo(ctx, desc.Target, scraper.FullHistory())
	case domain.JobKindChannel:
		records, err = r.scraper.ScrapeChannel(ctx, desc.Target, desc.MaxItems, scraper.TrailingWindow(r.channelWindowDays))
	default:
		return r.terminal(desc, domain.JobStatusFailed, &domain.Diagnostic{
			Message: fmt.Sprintf("unknown job type: %s", desc.Kind),
		})
	}

	if err != nil {
		// A single unplayable video must not fail the whole job: stand
		// in a placeholder record instead.
		if desc.Kind == domain.JobKindVideo && errors.Is(err, scraper.ErrVideoUnplayable) {
			r.logger.WithField(logger.FieldTarget, desc.Target).
				Info("Video unplayable, creating placeholder record")
			return r.publishViews(desc, []domain.RecordView{placeholderView(desc.Target)})
		}
		return r.classify(desc, err)
	}

	if len(records) == 0 {
		outcome := r.terminal(desc, domain.JobStatusCompletedWithWarnings, nil)
		outcome.Warning = noTranscriptsWarning
		outcome.Items = []domain.RecordView{}
		return outcome
	}

	views := make([]domain.RecordView, 0, len(records))
	for i := range records {
		views = append(views, recordView(&records[i]))
	}
	return r.publishViews(desc, views)
}

// publishViews exports artifacts for every view, then assembles the
// completed outcome. Export failures leave the item's paths empty and
// never abort the batch.
func (r *Runner) publishViews(desc domain.JobDescriptor, views []domain.RecordView) *domain.JobOutcome {
	for i := range views {
		textPath, pdfPath := r.exporter.Export(&views[i])
		if textPath == "" && pdfPath == "" {
			r.logger.WithField("video_id", views[i].VideoID).
				Warn("No artifacts exported for item")
		}
		views[i].TextPath = textPath
		views[i].PDFPath = pdfPath
	}

	outcome := r.terminal(desc, domain.JobStatusCompleted, nil)
	outcome.Items = views
	outcome.Count = len(views)
	return outcome
}

// classify maps provider failures to terminal outcomes: the known
// categories become completed_with_error with a human suggestion,
// anything unrecognized becomes failed with the raw detail.
func (r *Runner) classify(desc domain.JobDescriptor, err error) *domain.JobOutcome {
	switch {
	case errors.Is(err, scraper.ErrVideoUnplayable):
		return r.terminal(desc, domain.JobStatusCompletedWithError, &domain.Diagnostic{
			Message:    "The video is unavailable or cannot be played.",
			Suggestion: "Please check if the video ID is correct and the video is publicly available.",
			Detail:     err.Error(),
		})
	case errors.Is(err, scraper.ErrTranscriptsDisabled):
		return r.terminal(desc, domain.JobStatusCompletedWithError, &domain.Diagnostic{
			Message:    "Transcripts are disabled for this video.",
			Suggestion: "Try a different video that has transcripts enabled.",
			Detail:     err.Error(),
		})
	case errors.Is(err, scraper.ErrNoTranscript):
		return r.terminal(desc, domain.JobStatusCompletedWithError, &domain.Diagnostic{
			Message:    "No transcript found for this video.",
			Suggestion: "Try a different video that has transcripts available.",
			Detail:     err.Error(),
		})
	default:
		r.logger.WithFields(logger.Fields{
			logger.FieldJobKind: desc.Kind,
			logger.FieldTarget:  desc.Target,
		}).WithError(err).Error("Job failed with unclassified error")
		return r.terminal(desc, domain.JobStatusFailed, &domain.Diagnostic{
			Message: err.Error(),
			Detail:  err.Error(),
		})
	}
}

func (r *Runner) terminal(desc domain.JobDescriptor, status domain.JobStatus, diag *domain.Diagnostic) *domain.JobOutcome {
	return &domain.JobOutcome{
		Status:     status,
		Kind:       desc.Kind,
		Target:     desc.Target,
		MaxItems:   desc.MaxItems,
		Diagnostic: diag,
	}
}

// recordView flattens a raw scrape record into its shareable view.
func recordView(rec *scraper.Record) domain.RecordView {
	texts := make([]string, 0, len(rec.Transcript))
	for _, chunk := range rec.Transcript {
		texts = append(texts, chunk.Text)
	}

	return domain.RecordView{
		VideoID:          rec.VideoID,
		Title:            rec.Title,
		ChannelName:      rec.ChannelName,
		ChannelID:        rec.ChannelID,
		UploadDate:       rec.UploadDate,
		URL:              rec.URL,
		Language:         rec.Language,
		DurationSeconds:  rec.DurationSeconds,
		TranscriptText:   strings.Join(texts, " "),
		TranscriptChunks: len(rec.Transcript),
	}
}

// placeholderView stands in for a video the provider could not play.
func placeholderView(videoID string) domain.RecordView {
	return domain.RecordView{
		VideoID:     videoID,
		Title:       fmt.Sprintf("Unavailable Video (%s)", videoID),
		ChannelName: "Unknown",
		ChannelID:   "Unknown",
		UploadDate:  time.Now().UTC().Format(time.RFC3339),
		URL:         scraper.WatchURL(videoID),
		Language:    "unknown",
		Error:       "Video unavailable or unplayable",
	}
}
