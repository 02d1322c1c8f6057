package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wardrobe/internal/config"
	"wardrobe/internal/database"
	"wardrobe/internal/email"
	"wardrobe/internal/handlers"
	"wardrobe/internal/identity"
	"wardrobe/internal/logger"
	"wardrobe/internal/media"
	"wardrobe/internal/metrics"
	"wardrobe/internal/wardrobe"
	"wardrobe/internal/worker/reconcile"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger.Initialize(logger.Options{
		Level:      logger.ParseLevel(cfg.LogLevel),
		IsDev:      cfg.IsDevelopment(),
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})

	db, err := database.Initialize(cfg.DatabasePath)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var uploader media.Uploader = media.DisabledUploader{}
	if cfg.StorageEnabled() {
		s3Uploader, err := media.NewS3Uploader(ctx, cfg)
		if err != nil {
			logger.Error("Failed to configure image storage", "error", err)
			os.Exit(1)
		}
		uploader = s3Uploader
		logger.Info("Image storage enabled", "bucket", cfg.S3Bucket, "policy", cfg.ImagePolicy)
	} else {
		logger.Warn("Image storage disabled - S3 credentials not configured")
	}

	emailService := email.NewService(cfg)
	if emailService.IsEnabled() {
		logger.Info("Email service enabled with Mailgun")
	} else {
		logger.Info("Email service disabled - Mailgun not configured")
	}

	if cfg.GoogleClientID == "" {
		logger.Info("Google sign-in disabled - GOOGLE_CLIENT_ID not set")
	}

	var rec metrics.Recorder = metrics.Nop{}
	var gatherer prometheus.Gatherer
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		rec = metrics.NewCollector(reg)
		gatherer = reg
	}

	svc := wardrobe.New(wardrobe.Options{
		DB:              db,
		Uploader:        uploader,
		Google:          identity.NewGoogleVerifier(cfg.GoogleClientID),
		Mailer:          emailService,
		Metrics:         rec,
		RequireImages:   cfg.RequireImages(),
		SessionDuration: cfg.SessionDuration,
	})

	go reconcile.NewJob(svc, cfg.ReconcileInterval).Start(ctx)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.MaxMultipartMemory = media.MaxImageBytes + 1<<20

	handlers.SetupRoutes(r, svc, cfg, rec, gatherer)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received, exiting...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
	logger.Info("Server shut down gracefully")
}
