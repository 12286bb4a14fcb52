// Package main provides the entry point for the field allocation
// optimizer's HTTP gateway service.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	gateway "github.com/fieldplan/allocator/api/gateway"
	"github.com/fieldplan/allocator/config"
	"github.com/fieldplan/allocator/internal/cache"
	"github.com/fieldplan/allocator/internal/candidate"
	"github.com/fieldplan/allocator/internal/profile"
	"github.com/fieldplan/allocator/internal/store"
	"github.com/fieldplan/allocator/internal/utils/logger"
	"github.com/fieldplan/allocator/internal/weather"
)

const shutdownGrace = 10 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg)
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	var redis *cache.RedisClient
	var phenologyCache candidate.PhenologyCache
	if cfg.Redis != nil {
		redis, err = cache.NewRedisClient(cfg.Redis)
		if err != nil {
			logger.Error(log, "failed to connect to redis, continuing without candidate cache", err)
			redis = nil
		} else {
			defer redis.Close()
			phenologyCache = cache.NewPhenologyCache(redis)
		}
	}

	var repo *store.Repository
	var weatherSrc weather.Source
	var profileSrc profile.Source
	if db, dbErr := store.NewConnection(cfg.Database); dbErr != nil {
		logger.Error(log, "failed to connect to catalog database, continuing without persistence", dbErr)
	} else {
		repo = store.NewRepository(db, log)
		if err := repo.AutoMigrate(); err != nil {
			logger.Error(log, "failed to migrate catalog schema", err)
		}
		weatherSrc = weather.NewCircuitBreakingSource(weather.NewPostgresSource(db))
		profileSrc = profile.NewPostgresSource(repo)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		prometheus.NewGoroutineCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	jwtSecret := []byte(os.Getenv("JWT_SIGNING_SECRET"))
	if len(jwtSecret) == 0 {
		logger.Info(log, "JWT_SIGNING_SECRET not set, write routes will reject every token")
	}

	router := gateway.NewRouter(cfg, log, redis, repo, weatherSrc, profileSrc, phenologyCache, jwtSecret, registry)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
		Handler:      router,
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
		IdleTimeout:  cfg.API.IdleTimeout,
	}

	go func() {
		logger.Info(log, "starting field allocation optimizer gateway", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(log, "server failed", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info(log, "shutting down gateway")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(log, "server forced to shutdown", err)
	}
	logger.Info(log, "gateway exited gracefully")
}
