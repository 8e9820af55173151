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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/posturestack/posture-engine/internal/api"
	"github.com/posturestack/posture-engine/internal/cache"
	"github.com/posturestack/posture-engine/internal/config"
	"github.com/posturestack/posture-engine/internal/engine"
	"github.com/posturestack/posture-engine/internal/metrics"
	"github.com/posturestack/posture-engine/internal/repo"
	"github.com/posturestack/posture-engine/internal/resilience"
	"github.com/posturestack/posture-engine/internal/services"
	"github.com/posturestack/posture-engine/internal/utils"
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
	logger.Info("starting posture-engine", slog.String("address", cfg.Server.Address))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	var cacheProvider cache.Provider = cache.NoopProvider{}
	if cfg.Cache.Enabled && cfg.Cache.Addr != "" {
		provider, err := cache.NewRedisProvider(cache.RedisConfig{
			Addr:         cfg.Cache.Addr,
			Username:     cfg.Cache.Username,
			Password:     cfg.Cache.Password,
			DB:           cfg.Cache.DB,
			DialTimeout:  cfg.Cache.DialTimeout,
			ReadTimeout:  cfg.Cache.ReadTimeout,
			WriteTimeout: cfg.Cache.WriteTimeout,
		})
		if err != nil {
			logger.Warn("cache unavailable", slog.Any("error", err))
		} else {
			cacheProvider = provider
			defer provider.Close()
		}
	}

	storeClient := repo.NewFleetStoreClient(cfg.Store, cacheProvider, cfg.Cache.DependencyTTL, cfg.Cache.ConfigTTL)

	rulePack, err := engine.LoadRulePack(cfg.Rules.Path, logger)
	if err != nil {
		logger.Error("failed to load rule pack", slog.String("path", cfg.Rules.Path), slog.Any("error", err))
		os.Exit(1)
	}
	if rulePack != nil && cfg.Rules.Watch {
		if err := rulePack.Watch(); err != nil {
			logger.Warn("rule pack watch unavailable", slog.Any("error", err))
		}
		defer rulePack.Close()
	}

	resolver := config.NewResolver(storeClient, logger)
	if rulePack != nil {
		resolver.SetFallbackRules(rulePack.Rules())
	}

	postureService := services.NewPostureService(logger, storeClient, resolver, cfg.Scoring)

	healthMonitor := resilience.NewHealthMonitor()
	healthMonitor.AddCheck("fleet-store", storeClient.Ping, true, 5*time.Second)
	if cfg.Cache.Enabled {
		healthMonitor.AddCheck("cache", func(ctx context.Context) error {
			_, err := cacheProvider.Get(ctx, "posture:healthprobe")
			if errors.Is(err, cache.ErrCacheMiss) {
				return nil
			}
			return err
		}, false, 2*time.Second)
	}

	handler := api.NewHandler(postureService, healthMonitor, logger)
	server := api.NewServer(cfg.Server, handler, logger)

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
	logger.Info("posture-engine stopped")
}
