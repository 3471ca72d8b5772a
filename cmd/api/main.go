package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"expiry-scanner/internal/core/cache"
	"expiry-scanner/internal/core/config"
	"expiry-scanner/internal/core/logger"
	"expiry-scanner/internal/core/metrics"
	"expiry-scanner/internal/core/proxy"
	"expiry-scanner/internal/core/server"
	expiryadapter "expiry-scanner/internal/features/expiry/adapters"
	expiryhandler "expiry-scanner/internal/features/expiry/handler"
	expiryservice "expiry-scanner/internal/features/expiry/service"
	recordsadapter "expiry-scanner/internal/features/records/adapters"
	reminderhandler "expiry-scanner/internal/features/reminders/handler"
	reminderservice "expiry-scanner/internal/features/reminders/service"

	"go.uber.org/zap"
)

// @title Expiry Scanner API
// @version 1.0
// @description Reports vitamins and medications that expire today or tomorrow.
// @contact.name API Support
// @license.name MIT
// @host localhost:8080
// @BasePath /
func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	l := logger.Get()
	l.Info("Application starting",
		zap.String("environment", cfg.Environment),
		zap.String("log_level", cfg.LogLevel),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	loc := cfg.Scan.Location()
	proxySettings := proxy.FromConfig(cfg.Proxy)
	if proxySettings.HasProxy() {
		l.Info("Routing records API through proxy", zap.String("proxy", proxySettings.HostPort()))
	}

	// Initialize records sources and probe the API
	vitamins := recordsadapter.NewVitaminsAdapter(cfg.Records, proxySettings, loc)
	medications := recordsadapter.NewMedicationsAdapter(cfg.Records, proxySettings, loc)

	if err := vitamins.HealthCheck(ctx); err != nil {
		l.Warn("Records API health check failed", zap.Error(err))
	} else {
		l.Info("Records API connection verified")
	}

	scanOpts := []expiryservice.Option{
		expiryservice.WithLocation(loc),
		expiryservice.WithMetrics(m),
	}

	srv := server.New(cfg, m)
	srv.AddHealthCheck("records_api", vitamins.HealthCheck)

	// Optional notice cache
	if cfg.Scan.RedisURL != "" {
		redisCache, err := cache.NewRedisAdapter(cfg.Scan.RedisURL)
		if err != nil {
			l.Fatal("Invalid Redis configuration", zap.Error(err))
		}
		defer redisCache.Close()

		if err := redisCache.Ping(ctx); err != nil {
			l.Warn("Redis not reachable, notices will be recomputed until it is", zap.Error(err))
		}

		scanOpts = append(scanOpts, expiryservice.WithCache(expiryadapter.NewRedisNoticeCache(redisCache, cfg.Scan.TTL())))
		srv.AddHealthCheck("cache", redisCache.Ping)
	}

	// Initialize Expiry Service & Handler
	scanSvc := expiryservice.NewScanService(vitamins, medications, scanOpts...)
	expiryHdl := expiryhandler.NewExpiryHandler(scanSvc)

	// Initialize Reminder Scheduler & Handler
	scheduler, err := reminderservice.NewScheduler(scanSvc, cfg.Reminders.WatchedUsers(), cfg.Reminders.Schedule, loc, m)
	if err != nil {
		l.Fatal("Invalid reminder configuration", zap.Error(err))
	}
	if err := scheduler.Start(ctx); err != nil {
		l.Fatal("Failed to start reminder schedule", zap.Error(err))
	}
	reminderHdl := reminderhandler.NewReminderHandler(scheduler)

	// Register Routes
	srv.App.Get("/expiry/notices", expiryHdl.GetNotices)
	srv.App.Get("/reminders/digest", reminderHdl.GetDigest)
	srv.App.Post("/reminders/run", reminderHdl.RunDigest)

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		<-scheduler.Stop().Done()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			l.Error("Graceful shutdown failed", zap.Error(err))
		}
	}()

	if err := srv.Run(); err != nil {
		l.Fatal("Server failed to start", zap.Error(err))
	}
}
