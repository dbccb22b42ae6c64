package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/timmy/tubescribe/internal/api/middleware"
	"github.com/timmy/tubescribe/internal/domain"
	"github.com/timmy/tubescribe/internal/logger"
	"github.com/timmy/tubescribe/internal/scraper"
	"github.com/timmy/tubescribe/internal/service"
)

const (
	defaultMaxVideos = 5
	maxVideosCeiling = 10
)

// ScrapeHandler handles job submission and polling endpoints.
type ScrapeHandler struct {
	store  *service.JobStateStore
	runner *service.Runner
}

// NewScrapeHandler creates a new scrape handler.
func NewScrapeHandler(store *service.JobStateStore, runner *service.Runner) *ScrapeHandler {
	return &ScrapeHandler{
		store:  store,
		runner: runner,
	}
}

type scrapeVideoRequest struct {
	VideoID string `json:"video_id"`
}

// ScrapeVideo handles POST /api/scrape/video.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *ScrapeHandler) ScrapeVideo(c *gin.Context) {
	var req scrapeVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.VideoID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Missing video_id parameter",
		})
		return
	}

	videoID, err := scraper.ExtractVideoID(req.VideoID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid video_id format. Expected 11-character YouTube video ID",
		})
		return
	}

	desc := domain.JobDescriptor{
		Kind:   domain.JobKindVideo,
		Target: videoID,
	}
	if !h.admit(c, desc) {
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":   "started",
		"job_type": "video",
		"video_id": videoID,
	})
}

type scrapeChannelRequest struct {
	ChannelID string `json:"channel_id"`
	MaxVideos *int   `json:"max_videos"`
}

// ScrapeChannel handles POST /api/scrape/channel.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *ScrapeHandler) ScrapeChannel(c *gin.Context) {
	var req scrapeChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ChannelID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Missing channel_id parameter",
		})
		return
	}

	if !scraper.ValidChannelID(req.ChannelID) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid channel_id format. Expected YouTube channel ID",
		})
		return
	}

	maxVideos := defaultMaxVideos
	if req.MaxVideos != nil {
		maxVideos = *req.MaxVideos
	}
	// Limit max_videos to a reasonable range
	if maxVideos < 1 {
		maxVideos = 1
	}
	if maxVideos > maxVideosCeiling {
		maxVideos = maxVideosCeiling
	}

	desc := domain.JobDescriptor{
		Kind:     domain.JobKindChannel,
		Target:   req.ChannelID,
		MaxItems: maxVideos,
	}
	if !h.admit(c, desc) {
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":     "started",
		"job_type":   "channel",
		"channel_id": req.ChannelID,
		"max_videos": maxVideos,
	})
}

// admit performs single-flight admission and hands the job to the
// background runner. Returns false after writing the conflict response.
func (h *ScrapeHandler) admit(c *gin.Context, desc domain.JobDescriptor) bool {
	if !h.store.TryAdmit(desc) {
		view := h.store.Status()
		c.JSON(http.StatusConflict, gin.H{
			"status":      "error",
			"message":     "Another job is already running",
			"current_job": view.CurrentJob,
		})
		return false
	}

	middleware.GetLogger(c).WithFields(logger.Fields{
		logger.FieldJobKind: desc.Kind,
		logger.FieldTarget:  desc.Target,
	}).Info("Job admitted")

	h.runner.Submit(desc)
	return true
}

// Status handles GET /api/scrape/status.
func (h *ScrapeHandler) Status(c *gin.Context) {
	view := h.store.Status()
	c.JSON(http.StatusOK, gin.H{
		"status":      view.Status,
		"current_job": view.CurrentJob,
	})
}

// Result handles GET /api/scrape/result. Download URLs are filled in on
// the returned snapshot; the stored outcome is never mutated.
func (h *ScrapeHandler) Result(c *gin.Context) {
	view := h.store.Status()
	outcome := h.store.Result()
	if outcome == nil {
		c.JSON(http.StatusOK, gin.H{
			"status":  view.Status,
			"message": "No results available yet",
		})
		return
	}

	for i := range outcome.Items {
		videoID := outcome.Items[i].VideoID
		if videoID == "" {
			continue
		}
		outcome.Items[i].TextDownloadURL = "/api/download/text/" + videoID
		outcome.Items[i].PDFDownloadURL = "/api/download/pdf/" + videoID
	}

	c.JSON(http.StatusOK, gin.H{
		"status": view.Status,
		"result": outcome,
	})
}
