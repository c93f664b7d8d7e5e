package main

import (
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/travelops/callscore/cmd/bootstrap"
	"github.com/travelops/callscore/internal/handler"
	"github.com/travelops/callscore/internal/pipeline"
	"github.com/travelops/callscore/internal/qa"
	"github.com/travelops/callscore/internal/task"
	"github.com/travelops/callscore/pkg/config"
	"github.com/travelops/callscore/pkg/crm"
	"github.com/travelops/callscore/pkg/llm"
	"github.com/travelops/callscore/pkg/logger"
	"github.com/travelops/callscore/pkg/middleware"
	"github.com/travelops/callscore/pkg/segmenter"
	"github.com/travelops/callscore/pkg/ticketing"
	"github.com/travelops/callscore/pkg/transcriber"
	"go.uber.org/zap"
)

func main() {
	mode := flag.String("mode", "", "running environment (development, test, production)")
	flag.Parse()
	if *mode != "" {
		os.Setenv("APP_ENV", *mode)
	}

	if err := config.Load(); err != nil {
		panic("config load failed: " + err.Error())
	}
	cfg := config.GlobalConfig

	if err := logger.Init(&cfg.Log, cfg.Mode); err != nil {
		panic(err)
	}
	defer logger.Sync()

	db, err := bootstrap.SetupDatabase(os.Stdout, &bootstrap.Options{AutoMigrate: true})
	if err != nil {
		logger.Error("database setup failed", zap.Error(err))
		return
	}

	provider := llm.NewClient(cfg.OpenAIApiKey, cfg.OpenAIBaseURL, cfg.ProviderMaxRetries)
	audio := segmenter.New(cfg.FFmpegPath, cfg.FFprobePath, cfg.ChunkMinutes*60)
	speech := transcriber.New(cfg.OpenAIApiKey, cfg.OpenAIBaseURL, cfg.TranscribeModel)
	tickets := ticketing.NewClient(cfg.TicketingBaseURL, cfg.TicketingApiKey)
	crmClient := crm.NewClient(cfg.CRMBaseURL, cfg.CRMApiKey)

	qaService := qa.NewService(db, cfg, provider, provider)
	pipe := pipeline.New(db, cfg, audio, speech, provider, qaService, tickets)

	// Recovery and housekeeping sweeps.
	task.StartChunkRetry(db, pipe, cfg.ChunkRetrySchedule)
	task.StartTranscribeRetry(db, pipe, cfg.TranscribeRetrySchedule)
	task.StartAnalysisRetry(db, pipe, cfg.AnalysisRetrySchedule)
	task.StartMessageAnalysis(db, pipe, cfg.MessageAnalysisSchedule)
	task.StartCRMExport(db, crmClient, cfg.CRMExportSchedule, cfg.CRMExportBatch)
	task.StartFileCleaner(db, cfg.UploadDir, cfg.FileCleanupSchedule, cfg.FileRetentionDays)

	if cfg.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(zap.L()))
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false

	// Static service for stored recordings.
	r.Static("/media", cfg.UploadDir)

	app := handler.NewHandlers(db, cfg, pipe, qaService)
	app.Register(r)

	httpServer := &http.Server{
		Addr:           cfg.Addr,
		Handler:        r,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
	logger.Info("Starting HTTP server", zap.String("addr", cfg.Addr))
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("HTTP server run failed", zap.Error(err))
	}
}
