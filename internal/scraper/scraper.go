package scraper

import (
	"context"
	"errors"
	"time"
)

// Provider-level failure taxonomy. The runner classifies scrape errors
// with errors.Is against these sentinels.
var (
	// ErrVideoUnplayable indicates the video is unavailable, removed,
	// private, or otherwise cannot be played.
	ErrVideoUnplayable = errors.New("video unplayable")

	// ErrTranscriptsDisabled indicates the owner disabled captions.
	ErrTranscriptsDisabled = errors.New("transcripts disabled")

	// ErrNoTranscript indicates captions exist but no transcript could
	// be retrieved for any language.
	ErrNoTranscript = errors.New("no transcript found")
)

// DateRange is the provider query window passed alongside a scrape.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window. A zero t is
// treated as inside, since many videos carry no parseable upload date.
func (r DateRange) Contains(t time.Time) bool {
	if t.IsZero() {
		return true
	}
	return !t.Before(r.Start) && !t.After(r.End)
}

// FullHistory returns a window wide enough to include any video, with
// one day of forward slack for clock skew.
func FullHistory() DateRange {
	return DateRange{
		Start: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Now().UTC().Add(24 * time.Hour),
	}
}

// TrailingWindow returns a window covering the past days days, with the
// same one-day forward slack.
func TrailingWindow(days int) DateRange {
	now := time.Now().UTC()
	return DateRange{
		Start: now.AddDate(0, 0, -days),
		End:   now.Add(24 * time.Hour),
	}
}

// TranscriptChunk is one timed caption segment.
type TranscriptChunk struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// Record is one raw scraped video with its transcript.
type Record struct {
	VideoID         string
	Title           string
	ChannelName     string
	ChannelID       string
	UploadDate      string
	URL             string
	Language        string
	DurationSeconds int
	Transcript      []TranscriptChunk
}

// Scraper fetches transcripts for videos and channels.
type Scraper interface {
	// ScrapeVideo fetches the transcript for a single video. It returns
	// zero or one record, or a classified provider error.
	ScrapeVideo(ctx context.Context, videoID string, window DateRange) ([]Record, error)

	// ScrapeChannel fetches transcripts for up to max recent videos of
	// a channel uploaded inside the window.
	ScrapeChannel(ctx context.Context, channelID string, max int, window DateRange) ([]Record, error)
}
