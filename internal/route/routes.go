package route

import (
	"net/http"

	"helmetwatch/internal/handler"
	"helmetwatch/internal/logger"
	"helmetwatch/internal/metrics"
	"helmetwatch/internal/middleware"
	"helmetwatch/internal/repository"
	"helmetwatch/internal/service/publisher"
	"helmetwatch/internal/service/storage"
	"helmetwatch/internal/service/websocket"
)

// Services are the components the HTTP surface reads from.
type Services struct {
	Feed          *publisher.LiveFeed
	Hub           *websocket.HubService
	Store         *storage.ClipStore
	ClipRepo      repository.ClipRepository
	Metrics       *metrics.Metrics
	ViolationTail int
}

// SetupRoutes registers the dashboard, feed, API and log endpoints, and wraps
// the mux with request logging.
func SetupRoutes(svc Services, log *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", handler.DashboardHandler())
	mux.Handle("/video_feed", svc.Feed.Stream())
	mux.HandleFunc("/violations", handler.ViolationsHandler(svc.Feed.Log(), svc.ViolationTail, log))

	// API endpoints
	mux.HandleFunc("/api/view", handler.ViewWebsocketHandler(svc.Hub, log))
	mux.HandleFunc("/api/clips", handler.GetClipsHandler(svc.Store, log, svc.ClipRepo))
	mux.HandleFunc("/api/clips/view", handler.ViewClipHandler(svc.Store, log))
	mux.HandleFunc("/api/clips/delete", handler.DeleteClipHandler(svc.Store, log, svc.ClipRepo))
	mux.HandleFunc("/api/clips/stats", handler.ClipStatsHandler(log, svc.ClipRepo))
	mux.HandleFunc("/api/clips/labels", handler.ClipLabelsHandler(log, svc.ClipRepo))

	// Log endpoints
	mux.HandleFunc("/logs/info", handler.ShowLogsHandler(log, logger.InfoFile))
	mux.HandleFunc("/logs/warning", handler.ShowLogsHandler(log, logger.WarningFile))
	mux.HandleFunc("/logs/error", handler.ShowLogsHandler(log, logger.ErrorFile))

	mux.HandleFunc("/logs/info/clear", handler.ClearLogsHandler(log, logger.InfoFile))
	mux.HandleFunc("/logs/warning/clear", handler.ClearLogsHandler(log, logger.WarningFile))
	mux.HandleFunc("/logs/error/clear", handler.ClearLogsHandler(log, logger.ErrorFile))

	mux.Handle("/metrics", svc.Metrics.Handler())

	return middleware.LoggingMiddleware(log, mux)
}
