package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"helmetwatch/internal/config"
	"helmetwatch/internal/logger"
	"helmetwatch/internal/metrics"
	"helmetwatch/internal/repository/sqlite"
	"helmetwatch/internal/route"
	"helmetwatch/internal/service/ai"
	"helmetwatch/internal/service/camera"
	"helmetwatch/internal/service/pipeline"
	"helmetwatch/internal/service/publisher"
	"helmetwatch/internal/service/recorder"
	"helmetwatch/internal/service/storage"
	"helmetwatch/internal/service/violation"
	"helmetwatch/internal/service/vision"
	"helmetwatch/internal/service/websocket"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config   *config.Config
	logger   *logger.Logger
	db       *sqlite.DB
	source   camera.Source
	detector *ai.DetectorService
	window   *vision.Window
	hub      *websocket.HubService
	pipeline *pipeline.Pipeline
	server   *http.Server
	closed   sync.Once
}

// NewApp opens the camera, the model and the clip index and wires the pipeline
// and the HTTP surface. A failure here is fatal for the process.
func NewApp(cfg *config.Config) (*App, error) {
	log := logger.NewLogger(cfg)
	a := &App{config: cfg, logger: log}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0755); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open clip index: %w", err)
	}
	a.db = db
	clipRepo := sqlite.NewClipRepository(db)
	store := storage.NewClipStore(cfg, log, clipRepo)

	detector, err := ai.NewDetectorService(cfg, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.detector = detector

	source, err := camera.Open(cfg, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.source = source

	m := metrics.New()
	a.hub = websocket.NewHubService(log)
	feed := publisher.NewLiveFeed(vision.JPEGEncoder{}, publisher.NewViolationLog(cfg.ViolationLogCapacity), a.hub, log)

	var live publisher.Fanout
	var quitter pipeline.Quitter
	switch cfg.DisplayMode {
	case config.DisplayHTTP:
		live = publisher.Fanout{feed}
	case config.DisplayWindow:
		a.window = vision.NewWindow("helmetwatch", log)
		live = publisher.Fanout{a.window}
		quitter = a.window
	}

	fps := source.FPS()
	rec := recorder.New(recorder.Options{
		FPS:        fps,
		PreFrames:  cfg.PreFrames(fps),
		PostFrames: cfg.PostFrames(fps),
	}, source, vision.NewVideoSink(cfg.ClipCodec), store, live, log)

	log.Info("Recording %d frames before and %d after each violation at %.2f fps",
		rec.Capacity(), cfg.PostFrames(fps), fps)

	a.pipeline = pipeline.New(pipeline.Deps{
		Source:     source,
		Detector:   detector,
		Classifier: violation.NewClassifier(cfg.MaxAllowedRiders, cfg.Classes, detector.Labels()),
		Annotator:  vision.NewAnnotator(),
		Recorder:   rec,
		Reporter:   feed,
		Publisher:  live,
		Quitter:    quitter,
		Catalog:    store,
	}, m, log)

	router := route.SetupRoutes(route.Services{
		Feed:          feed,
		Hub:           a.hub,
		Store:         store,
		ClipRepo:      clipRepo,
		Metrics:       m,
		ViolationTail: cfg.ViolationTail,
	}, log)

	a.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// Run serves HTTP and drives the pipeline until the stream ends. In http mode
// the dashboard stays up after the stream ends until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go a.hub.Run(hubCtx)

	serverErr := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	a.logger.Info("🚀 helmetwatch")
	a.logger.Info("📍 URL: http://localhost:%d", a.config.Port)
	a.logger.Info("📷 Source: %s", a.config.CameraSource)
	a.logger.Info("📁 Clips: %s", a.config.ViolationDirectory)
	a.logger.Info("🤖 AI Model: %s", a.config.ModelPath)

	pipelineCtx, stopPipeline := context.WithCancel(ctx)
	defer stopPipeline()
	go func() {
		// A dead HTTP server stops the pipeline too.
		if err, ok := <-serverErr; ok && err != nil {
			a.logger.Error("HTTP server failed: %v", err)
			stopPipeline()
		}
	}()

	runErr := a.pipeline.Run(pipelineCtx)
	if runErr != nil {
		a.logger.Error("Pipeline failed: %v", runErr)
	}
	a.logger.Info("Processed %d frames, wrote %d clips", a.pipeline.Frames(), a.pipeline.Clips())

	if runErr == nil && a.config.DisplayMode == config.DisplayHTTP && pipelineCtx.Err() == nil {
		a.logger.Info("Stream finished, dashboard still available until shutdown")
		<-pipelineCtx.Done()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Warning("HTTP server shutdown: %v", err)
	}

	return runErr
}

// Close releases everything NewApp acquired, newest first.
func (a *App) Close() {
	a.closed.Do(a.close)
}

func (a *App) close() {
	if a.window != nil {
		a.window.Close()
	}
	if a.source != nil {
		if err := a.source.Close(); err != nil {
			a.logger.Warning("Failed to close camera: %v", err)
		}
	}
	if a.detector != nil {
		a.detector.Close()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warning("Failed to close clip index: %v", err)
		}
	}
	a.logger.Close()
}
