package api

import (
	"github.com/gin-gonic/gin"

	"github.com/timmy/tubescribe/internal/api/handler"
	"github.com/timmy/tubescribe/internal/api/middleware"
	"github.com/timmy/tubescribe/internal/config"
	"github.com/timmy/tubescribe/internal/export"
	"github.com/timmy/tubescribe/internal/logger"
	"github.com/timmy/tubescribe/internal/service"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	store *service.JobStateStore,
	runner *service.Runner,
	exporter *export.Exporter,
	cfg *config.Config,
	log *logger.Logger,
) *gin.Engine {
	// Set Gin mode
	switch cfg.Server.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.CORS())
	r.Use(middleware.APIKeyAuth(cfg.Auth.APIKey))

	// Create handlers
	healthHandler := handler.NewHealthHandler()
	scrapeHandler := handler.NewScrapeHandler(store, runner)
	downloadHandler := handler.NewDownloadHandler(store, exporter)

	r.GET("/", healthHandler.Index)
	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")
	{
		scrape := api.Group("/scrape")
		{
			scrape.POST("/video", scrapeHandler.ScrapeVideo)
			scrape.POST("/channel", scrapeHandler.ScrapeChannel)
			scrape.GET("/status", scrapeHandler.Status)
			scrape.GET("/result", scrapeHandler.Result)
		}

		download := api.Group("/download")
		{
			download.GET("/text/:video_id", downloadHandler.Text)
			download.GET("/pdf/:video_id", downloadHandler.PDF)
		}
	}

	return r
}
