package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/johnquangdev/levelus/internal/adapter/handler"
	"github.com/johnquangdev/levelus/internal/adapter/presenter"
	"github.com/johnquangdev/levelus/internal/domain/entities"
	"github.com/johnquangdev/levelus/internal/domain/repositories"
	"github.com/johnquangdev/levelus/internal/infrastructure/cache"
	"github.com/johnquangdev/levelus/internal/infrastructure/storage"
	"github.com/johnquangdev/levelus/internal/infrastructure/ws"
	usecaseai "github.com/johnquangdev/levelus/internal/usecase/ai"
	"github.com/johnquangdev/levelus/internal/usecase/meeting"
	"github.com/johnquangdev/levelus/internal/usecase/playback"
	pkgai "github.com/johnquangdev/levelus/pkg/ai"
	"github.com/johnquangdev/levelus/pkg/config"
	pkglogger "github.com/johnquangdev/levelus/pkg/logger"
	"github.com/johnquangdev/levelus/pkg/metrics"
	pkgvalidator "github.com/johnquangdev/levelus/pkg/validator"
)

const publishTimeout = 2 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := pkglogger.New(cfg.Server.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("🔧 Initializing dependencies...")
	syncMetrics := metrics.DefaultSyncMetrics()

	// Meeting store
	store := meeting.NewStore(initialMeeting(cfg), logger)
	logger.Info("📋 Meeting store ready",
		zap.String("meeting_id", store.MeetingID()),
		zap.Bool("demo", cfg.Session.Demo),
		zap.Bool("live", cfg.Session.Live),
	)

	// Optional recording archive
	var archive repositories.RecordingArchive
	var recordings handler.RecordingLister
	if cfg.Storage.Enabled {
		logger.Info("📦 Connecting to MinIO...", zap.String("endpoint", cfg.Storage.Endpoint))
		minioArchive, err := storage.NewRecordingArchive(ctx, &cfg.Storage, logger)
		if err != nil {
			logger.Fatal("Failed to initialize recording archive", zap.Error(err))
		}
		archive = minioArchive
		recordings = minioArchive
	}

	// Sync service
	var api repositories.MeetingAPI
	if !cfg.Backend.DisableAPI {
		api = pkgai.NewBackendClient(&cfg.Backend, logger)
		logger.Info("🤖 Backend client ready", zap.String("url", cfg.Backend.URL))
	} else {
		logger.Warn("⚠️  Backend API disabled, every action stays local")
	}
	service := meeting.NewService(store, api, usecaseai.NewNormalizer(logger), meeting.Options{
		Live:        cfg.Session.Live,
		APIDisabled: cfg.Backend.DisableAPI,
		MaxRetries:  cfg.Backend.MaxRetries,
		Archive:     archive,
		Metrics:     syncMetrics,
	}, logger)

	// Demo playback
	engine := playback.NewEngine(entities.DemoMeeting(), playback.Options{
		Period:  cfg.Playback.Period,
		Metrics: syncMetrics,
	}, logger)
	defer engine.Close()

	// Push channel
	hub := ws.NewHub(cfg.Server.AllowedOrigins, logger)
	go hub.Run(ctx)

	pushMeeting := func(snapshot *entities.Meeting) {
		view := presenter.ToMeetingResponse(snapshot, service.Remote(), service.Analyzing())
		if err := hub.Publish(ws.TypeMeeting, view); err != nil {
			logger.Warn("⚠️ Failed to push meeting snapshot", zap.Error(err))
		}
	}
	store.Subscribe(func(snapshot *entities.Meeting) {
		syncMetrics.RecordMutation()
		pushMeeting(snapshot)
	})
	service.SubscribeAnalysis(func(bool) {
		pushMeeting(store.Read())
	})
	engine.Subscribe(func(snapshot playback.Snapshot) {
		if err := hub.Publish(ws.TypePlayback, snapshot); err != nil {
			logger.Warn("⚠️ Failed to push playback snapshot", zap.Error(err))
		}
	})

	// Optional snapshot fan-out
	if cfg.Redis.Enabled {
		logger.Info("📦 Connecting to Redis...", zap.String("addr", cfg.GetRedisAddr()))
		redisClient, err := cache.NewRedisClient(ctx, cfg)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		publisher := cache.NewSnapshotPublisher(redisClient, cfg.Redis.ChannelPrefix, logger)
		defer publisher.Close()
		queue := cache.NewPublishQueue(publisher, publishTimeout, logger)
		go queue.Run(ctx)
		store.Subscribe(func(snapshot *entities.Meeting) {
			queue.Enqueue(snapshot)
		})
	}

	// Initialize Echo instance
	e := echo.New()
	e.Validator = pkgvalidator.New()
	e.HideBanner = true
	e.HidePort = false

	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("http.request",
				zap.String("request_id", v.RequestID),
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	meetingHandler := handler.NewMeetingHandler(service, recordings, cfg.Backend.AnalysisTimeout, logger)
	playbackHandler := handler.NewPlaybackHandler(engine, logger)
	handler.NewRouter(cfg, meetingHandler, playbackHandler, hub).Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		logger.Info("🚀 Starting server",
			zap.String("addr", addr),
			zap.String("environment", cfg.Server.Environment),
		)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	logger.Info("🛑 Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("❌ Server forced to shutdown", zap.Error(err))
	}

	logger.Info("✅ Server stopped gracefully")
}

// initialMeeting seeds the store: the demo meeting, or an empty meeting for the configured id
func initialMeeting(cfg *config.Config) *entities.Meeting {
	if cfg.Session.Demo {
		return entities.DemoMeeting()
	}
	id := cfg.Session.MeetingID
	if id == "" {
		id = uuid.NewString()
	}
	return entities.NewMeeting(id, cfg.Session.Title)
}
