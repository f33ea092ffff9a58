package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sigmalens/sigmalens/internal/api"
	"github.com/sigmalens/sigmalens/internal/cache"
	"github.com/sigmalens/sigmalens/internal/config"
	"github.com/sigmalens/sigmalens/internal/metrics"
	"github.com/sigmalens/sigmalens/internal/notify"
	"github.com/sigmalens/sigmalens/internal/services"
	"github.com/sigmalens/sigmalens/internal/session"
	"github.com/sigmalens/sigmalens/internal/store"
	"github.com/sigmalens/sigmalens/internal/timeline"
	"github.com/sigmalens/sigmalens/internal/utils"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting sigmalens", slog.String("address", cfg.Server.Address))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	var cacheProvider cache.Provider = cache.NewMemoryProvider()
	if cfg.Cache.Enabled && cfg.Cache.Addr != "" {
		provider, err := cache.NewRedisProvider(cache.RedisConfig{
			Addr:        cfg.Cache.Addr,
			Username:    cfg.Cache.Username,
			Password:    cfg.Cache.Password,
			DB:          cfg.Cache.DB,
			DialTimeout: cfg.Cache.DialTimeout,
		})
		if err != nil {
			logger.Warn("redis cache unavailable, using in-memory cache", slog.Any("error", err))
		} else {
			cacheProvider = provider
		}
	}
	defer cacheProvider.Close()

	feedClient := store.NewFeedClient(store.FeedConfig{
		BaseURL:         cfg.Store.BaseURL,
		AlertsPath:      cfg.Store.AlertsPath,
		Timeout:         cfg.Store.FeedTimeout,
		MaxAttempts:     cfg.Store.RetryMaxAttempts,
		InitialInterval: cfg.Store.RetryInterval,
		MaxInterval:     cfg.Store.RetryMaxInterval,
	}, logger)

	timelineClient := store.NewTimelineClient(store.TimelineConfig{
		BaseURL:          cfg.Store.BaseURL,
		UserOriginPath:   cfg.Store.UserOriginPath,
		UserImpactedPath: cfg.Store.UserImpactedPath,
		ComputerPath:     cfg.Store.ComputerPath,
		Timeout:          cfg.Store.TimelineTimeout,
		CacheTTL:         cfg.Cache.TimelineTTL,
	}, cacheProvider, logger)

	notices := notify.NewRecorder()
	notifier := notify.Fanout(notify.NewSlogNotifier(logger), notices)

	accumulator := session.New(feedClient, session.Config{
		PerPage:       cfg.Feed.PerPage,
		RecencyWindow: cfg.Feed.RecencyWindow,
	}, notifier, logger)

	resolver := timeline.NewResolver(timelineClient, logger)
	dashboard := services.NewDashboard(logger, accumulator, resolver, notices)

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(logger, dashboard)

	server, err := api.NewServer(cfg.Server, router)
	if err != nil {
		logger.Error("failed to create HTTP server", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if cfg.Server.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", slog.String("address", cfg.Server.MetricsAddress))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	go func() {
		if serveErr := server.Start(); serveErr != nil {
			logger.Error("HTTP server exited", slog.Any("error", serveErr))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	server.Shutdown(shutdownCtx)

	if metricsServer != nil {
		metricsCtx, cancelMetrics := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(metricsCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server shutdown", slog.Any("error", err))
		}
		cancelMetrics()
	}

	// Give remaining goroutines time to finish logging
	time.Sleep(100 * time.Millisecond)
	logger.Info("sigmalens stopped")
}
