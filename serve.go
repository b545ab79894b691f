package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"timefilter/internal/bus"
	"timefilter/internal/config"
	"timefilter/internal/logging"
	"timefilter/internal/routes"
	"timefilter/internal/services"
	"timefilter/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd() *cobra.Command {
	var listen string
	var development bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, history collector and live feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, err := config.LoadFile(path)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}
			return runServe(cmd.Context(), cfg, development)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (overrides config)")
	cmd.Flags().BoolVar(&development, "dev", false, "Human-readable logs and gin debug mode")
	return cmd
}

func runServe(parent context.Context, cfg *config.Config, development bool) error {
	logger, err := logging.New(cfg.LogLevel, development)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	logging.SetLogger(logger)

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !development {
		gin.SetMode(gin.ReleaseMode)
	}

	services.InitAuthService(cfg.Auth.SecretKey, cfg.Auth.TokenExpiry, logger)

	history := services.InitHistoryCollector(services.NewHistoryCollector(
		services.NewSystemSampler(cfg.History.DiskPath, logger),
		cfg.History.MaxDataPoints,
		cfg.Location(),
		logger,
	))
	history.Start(ctx, cfg.History.Interval)
	defer history.Stop()

	services.SetCacheTTL(cfg.History.Interval)
	hub := services.InitWebSocketHub(ctx, services.NewWebSocketHub(history, services.GetQueryCache(), cfg.History.Interval, logger))
	defer hub.Stop()

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("open preset storage: %w", err)
	}

	var publisher bus.Publisher = bus.NopPublisher{}
	if cfg.Events.NatsURL != "" {
		natsPublisher, err := bus.NewPublisher(cfg.Events.NatsURL)
		if err != nil {
			store.Close()
			return fmt.Errorf("connect nats: %w", err)
		}
		publisher = natsPublisher
	}
	presets := services.InitPresetService(services.NewPresetService(store, publisher, logger))
	defer presets.Close()

	router := routes.NewRouter(routes.RouterOptions{
		AllowedOrigins: cfg.Security.AllowedOrigins,
		RateLimit:      cfg.Security.RateLimit,
		RateBurst:      cfg.Security.RateBurst,
	})

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			zap.String("addr", cfg.Listen),
			zap.String("storage", cfg.Storage.Driver),
			zap.String("timezone", cfg.Timezone),
			zap.String("version", version),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
