package export

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/timmy/tubescribe/internal/domain"
	"github.com/timmy/tubescribe/internal/logger"
)

// noTranscriptCauses explains a missing transcript in every artifact
// generated for a record without one.
var noTranscriptCauses = []string{
	"1. The video owner has disabled transcripts",
	"2. The video is not available or has been removed",
	"3. YouTube does not have automatic captions for this video",
}

var (
	illegalFilenameChars = regexp.MustCompile(`[\\/*?:"<>|]`)
	whitespaceRuns       = regexp.MustCompile(`\s+`)
)

// Exporter writes text and PDF transcript artifacts for scraped
// records. Every call writes fresh, timestamp-named files; exporting
// the same record twice yields two distinct artifacts on purpose, so
// earlier downloads are never overwritten.
type Exporter struct {
	dir    string
	logger *logger.Logger

	// now is swappable for tests
	now func() time.Time
}

// NewExporter creates an exporter writing into dir.
func NewExporter(dir string, log *logger.Logger) *Exporter {
	return &Exporter{
		dir:    dir,
		logger: log,
		now:    time.Now,
	}
}

// Dir returns the transcripts directory.
func (e *Exporter) Dir() string {
	return e.dir
}

// Export writes both artifacts for the record. Failures are logged and
// reported as an empty path; they never propagate past this boundary.
func (e *Exporter) Export(rec *domain.RecordView) (textPath, pdfPath string) {
	textPath = e.ExportText(rec)
	pdfPath = e.ExportPDF(rec)
	return textPath, pdfPath
}

// ExportText writes the text artifact and returns its path, or an
// empty string on failure.
func (e *Exporter) ExportText(rec *domain.RecordView) string {
	path, err := e.writeText(rec)
	if err != nil {
		e.logger.WithFields(logger.Fields{
			"video_id": rec.VideoID,
		}).WithError(err).Error("Failed to write text artifact")
		return ""
	}
	e.logger.WithField("path", path).Info("Saved transcript text")
	return path
}

// ExportPDF writes the PDF artifact and returns its path, or an empty
// string on failure.
func (e *Exporter) ExportPDF(rec *domain.RecordView) string {
	path, err := e.writePDF(rec)
	if err != nil {
		e.logger.WithFields(logger.Fields{
			"video_id": rec.VideoID,
		}).WithError(err).Error("Failed to write PDF artifact")
		return ""
	}
	e.logger.WithField("path", path).Info("Saved transcript PDF")
	return path
}

func (e *Exporter) writeText(rec *domain.RecordView) (string, error) {
	path, err := e.artifactPath(rec, "txt")
	if err != nil {
		return "", err
	}

	var b strings.Builder
	writeMetadataHeader(&b, rec)
	b.WriteString("\n" + strings.Repeat("=", 50) + "\n\n")

	switch {
	case rec.Error != "":
		b.WriteString("ERROR: " + rec.Error + "\n\n")
		b.WriteString("This video is unavailable or cannot be played.\n")
	case rec.TranscriptText == "":
		b.WriteString("NO TRANSCRIPT AVAILABLE FOR THIS VIDEO\n")
		b.WriteString("This could be because:\n")
		for _, cause := range noTranscriptCauses {
			b.WriteString(cause + "\n")
		}
	default:
		b.WriteString("TRANSCRIPT:\n\n" + strings.Repeat("=", 50) + "\n\n")
		b.WriteString(rec.TranscriptText)
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

func writeMetadataHeader(b *strings.Builder, rec *domain.RecordView) {
	title := rec.Title
	if title == "" {
		title = "Untitled"
	}
	fmt.Fprintf(b, "Title: %s\n", title)
	fmt.Fprintf(b, "Video ID: %s\n", rec.VideoID)
	fmt.Fprintf(b, "URL: %s\n", rec.URL)
	fmt.Fprintf(b, "Channel: %s\n", rec.ChannelName)
	fmt.Fprintf(b, "Upload Date: %s\n", rec.UploadDate)
	fmt.Fprintf(b, "Duration: %d seconds\n", rec.DurationSeconds)
}

// artifactPath builds <dir>/<sanitized-title>-<timestamp>-<id>.<ext>,
// creating the transcripts directory when needed.
func (e *Exporter) artifactPath(rec *domain.RecordView, ext string) (string, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("create transcripts dir: %w", err)
	}

	title := rec.Title
	if title == "" {
		title = "Untitled"
	}
	stamp := e.now().Format("20060102_150405")
	name := fmt.Sprintf("%s-%s-%s.%s", SanitizeTitle(title), stamp, rec.VideoID, ext)
	return filepath.Join(e.dir, name), nil
}

// SanitizeTitle strips characters illegal in file names and collapses
// whitespace runs to single underscores.
func SanitizeTitle(title string) string {
	clean := illegalFilenameChars.ReplaceAllString(title, "")
	clean = whitespaceRuns.ReplaceAllString(strings.TrimSpace(clean), "_")
	return clean
}
