package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"plantscan-service/internal/annotate"
	"plantscan-service/internal/db"
	httpapi "plantscan-service/internal/http"
	"plantscan-service/internal/repository"
	"plantscan-service/internal/service"
	"plantscan-service/internal/telegram"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the Telegram bot and the history cleanup worker",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	det, closeDetector, err := newDetector(cfg.Detector, log)
	if err != nil {
		return err
	}
	defer closeDetector()

	var repo service.ScanRepository
	if cfg.Database.Enabled {
		gdb, err := db.Open(cfg.Database.DSN, log)
		if err != nil {
			return err
		}
		defer db.Close(gdb)
		repo = repository.NewScanRepository(gdb)
	} else {
		log.Info().Msg("database disabled, scan history is kept in memory")
		repo = repository.NewMemoryScanRepository()
	}

	scanService := service.NewScanService(repo, det, newAnalyzer(cfg, log), service.Options{
		Threshold: cfg.Analysis.ConfidenceThreshold,
		Overlap:   cfg.Detector.Roboflow.Overlap,
	}, log)

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpapi.NewRouter(httpapi.NewHandler(scanService, log), cfg.HTTP.CORSOrigins, log)
	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTP.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return scanService.RunCleanup(ctx, cfg.History.RetentionDays, cfg.History.CleanupInterval)
	})

	if cfg.Telegram.Token != "" {
		bot, err := telegram.NewBot(cfg.Telegram.Token, scanService, annotate.New(), log)
		if err != nil {
			cancel()
			_ = g.Wait()
			return err
		}
		g.Go(func() error {
			return bot.Run(ctx)
		})
	} else {
		log.Info().Msg("telegram token is empty, bot disabled")
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("shutdown with error")
		return err
	}

	log.Info().Msg("shutdown complete")
	return nil
}
