package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler handles health check and API index endpoints
type HealthHandler struct{}

// NewHealthHandler creates a new health handler
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// Health returns the health status of the service
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Index returns basic information about the API
func (h *HealthHandler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":        "YouTube Transcript Scraper API",
		"version":     "1.0.0",
		"description": "API for scraping YouTube video transcripts and saving them as text and PDF files",
		"endpoints": gin.H{
			"POST /api/scrape/video":            "Scrape a YouTube video by ID",
			"POST /api/scrape/channel":          "Scrape videos from a YouTube channel by ID",
			"GET /api/scrape/status":            "Get the status of the current or last scraping job",
			"GET /api/scrape/result":            "Get the result of the last completed scraping job",
			"GET /api/download/text/{video_id}": "Download the transcript text file for a specific video",
			"GET /api/download/pdf/{video_id}":  "Download the transcript PDF file for a specific video",
		},
	})
}
