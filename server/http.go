package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"audio-diary/config"
	"audio-diary/constant"
	recordHandler "audio-diary/handler"
	"audio-diary/pkg/executor"
	"audio-diary/repository"
	"audio-diary/service"
	"audio-diary/watcher"
)

func RunHttp(cfg *config.Config) {
	ctx, cancel := signal.NotifyContext(setupLogger(cfg), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment).Send()
	if cfg.App.Environment == constant.EnvironmentProduction.String() {
		gin.SetMode(gin.ReleaseMode)
	}

	status, err := repository.NewStatusTracker(cfg.Storage.DataDir)
	if err != nil {
		zerolog.Ctx(ctx).Fatal().Err(err).Msg("failed to init status tracker")
	}
	store, err := repository.NewStore(cfg.Storage.UploadDir, cfg.Storage.DataDir, status)
	if err != nil {
		zerolog.Ctx(ctx).Fatal().Err(err).Msg("failed to init record store")
	}

	index, err := service.NewVectorIndex(cfg.Embedding, cfg.Storage.IndexDir)
	if err != nil {
		// The service is useful without search; run with the index off.
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to open semantic index, continuing without it")
		index = &service.VectorIndex{}
	}

	transcriber := service.NewWhisperTranscriber(cfg.Whisper, executor.New())
	summarizer := service.NewSummarizer(cfg.Summarize)
	runner := service.NewPipelineRunner(store, status, transcriber, summarizer, index,
		time.Duration(cfg.Summarize.TimeoutSeconds)*time.Second)
	dispatcher := service.NewDispatcher(runner, status)
	h := recordHandler.New(store, status, dispatcher, index)

	if cfg.Storage.WatchDir != "" {
		startWatcher(ctx, cfg.Storage.WatchDir, store, dispatcher)
	}

	r := gin.Default()
	r.Use(requestContext(ctx))
	r.LoadHTMLGlob("templates/*.html")
	r.Static("/uploads", cfg.Storage.UploadDir)
	r.Static("/static", "static")

	r.GET("/", h.ListRecords)
	r.GET("/detail/:rid", h.Detail)
	r.POST("/upload", h.Upload)
	r.POST("/detail/:rid/summary", h.OverwriteSummary)
	r.POST("/delete/:rid", h.Delete)
	r.GET("/status/:rid", h.Status)
	r.POST("/tasks/:rid/rerun", h.Rerun)
	r.GET("/search", h.Search)
	r.POST("/index/rebuild", h.RebuildIndex)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	addHealth(r)

	srv := http.Server{
		Handler:           r,
		Addr:              fmt.Sprintf(":%s", cfg.Server.HttpPort),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zerolog.Ctx(ctx).Info().Str("addr", srv.Addr).Msg("start http server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zerolog.Ctx(ctx).Error().Msg(err.Error())
		}
	}()

	<-ctx.Done()
	zerolog.Ctx(ctx).Info().Msg("shutting down server")
	if err := srv.Shutdown(ctx); err != nil {
		zerolog.Ctx(ctx).Error().Msg(err.Error())
	}

	zerolog.Ctx(ctx).Info().Msg("server shutdown")
}

// startWatcher ingests audio files appearing in the inbox directory exactly
// as uploads.
func startWatcher(ctx context.Context, dir string, store repository.RecordStore, dispatcher *service.Dispatcher) {
	w, err := watcher.New(dir, func(ctx context.Context, path string) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read inbox file: %w", err)
		}
		rid, err := store.SaveUpload(ctx, data, filepath.Base(path))
		if err != nil {
			return err
		}
		dispatcher.Requeue(ctx, rid, constant.ModeAll)
		return os.Remove(path)
	})
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("dir", dir).Msg("failed to start inbox watcher")
		return
	}

	go func() {
		defer w.Stop()
		if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			zerolog.Ctx(ctx).Error().Err(err).Msg("inbox watcher error")
		}
	}()
}

func addHealth(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})
}

// requestContext attaches the process logger to every request context so
// handlers and background runs share structured logging.
func requestContext(base context.Context) gin.HandlerFunc {
	logger := zerolog.Ctx(base)
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context()))
		c.Next()
	}
}

func setupLogger(cfg *config.Config) context.Context {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.App.Environment == constant.EnvironmentDevelop.String() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(context.Background())

	return ctx
}
