package handler

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/timmy/tubescribe/internal/api/middleware"
	"github.com/timmy/tubescribe/internal/domain"
	"github.com/timmy/tubescribe/internal/export"
	"github.com/timmy/tubescribe/internal/service"
)

// DownloadHandler serves generated transcript artifacts. Items that
// were never exported get their artifact synthesized on demand; a
// recorded path whose file has since been deleted is a plain 404, not a
// re-synthesis.
type DownloadHandler struct {
	store    *service.JobStateStore
	exporter *export.Exporter
}

// NewDownloadHandler creates a new download handler.
func NewDownloadHandler(store *service.JobStateStore, exporter *export.Exporter) *DownloadHandler {
	return &DownloadHandler{
		store:    store,
		exporter: exporter,
	}
}

// Text handles GET /api/download/text/:video_id.
func (h *DownloadHandler) Text(c *gin.Context) {
	h.serve(c, "text/plain",
		func(item *domain.RecordView) string { return item.TextPath },
		h.exporter.ExportText,
	)
}

// PDF handles GET /api/download/pdf/:video_id.
func (h *DownloadHandler) PDF(c *gin.Context) {
	h.serve(c, "application/pdf",
		func(item *domain.RecordView) string { return item.PDFPath },
		h.exporter.ExportPDF,
	)
}

func (h *DownloadHandler) serve(
	c *gin.Context,
	contentType string,
	pathOf func(*domain.RecordView) string,
	synthesize func(*domain.RecordView) string,
) {
	videoID := c.Param("video_id")

	item := h.findItem(videoID)
	if item == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Transcript not found for this video ID",
		})
		return
	}

	path := pathOf(item)
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "File not found",
			})
			return
		}
		h.attach(c, path, contentType)
		return
	}

	// Never exported: synthesize a fresh artifact. The stored outcome
	// is left untouched, so the next request synthesizes again.
	middleware.GetLogger(c).WithField("video_id", videoID).
		Info("Synthesizing artifact on demand")
	path = synthesize(item)
	if path == "" {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Error creating transcript file",
		})
		return
	}
	h.attach(c, path, contentType)
}

func (h *DownloadHandler) attach(c *gin.Context, path, contentType string) {
	c.Header("Content-Type", contentType)
	c.FileAttachment(path, filepath.Base(path))
}

// findItem looks the video up in the last outcome's snapshot.
func (h *DownloadHandler) findItem(videoID string) *domain.RecordView {
	outcome := h.store.Result()
	if outcome == nil {
		return nil
	}
	for i := range outcome.Items {
		if outcome.Items[i].VideoID == videoID {
			return &outcome.Items[i]
		}
	}
	return nil
}
