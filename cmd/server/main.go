package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"pcwl/territory/internal/api"
	"pcwl/territory/internal/config"
	"pcwl/territory/internal/db"
	"pcwl/territory/internal/jobs"
	"pcwl/territory/internal/logging"
	"pcwl/territory/internal/metrics"
	"pcwl/territory/internal/routes"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	if err := logging.Init(cfg.AppEnv); err != nil {
		log.Fatalf("❌ Failed to initialize logger: %v", err)
	}
	defer logging.Close()

	logging.Info("Territory server starting up",
		"environment", cfg.AppEnv,
		"timestamp", time.Now().Format(time.RFC3339),
	)

	gormDB, err := db.InitPostgresORM(cfg.DatabaseURL)
	if err != nil {
		logging.Fatal("Failed to connect to Postgres (GORM)", "error", err.Error())
	}
	if err := db.Migrate(gormDB); err != nil {
		logging.Fatal("Failed to migrate schema", "error", err.Error())
	}
	logging.Info("Connected to Postgres (GORM)")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metricsReg := metrics.NewMetricsRegistry(registry)

	cache := api.NewCache(cfg)
	defer cache.Close()

	deps, err := api.InitDependencies(cfg, gormDB, "postgres", cache, metricsReg, nil)
	if err != nil {
		logging.Fatal("Failed to initialize dependencies", "error", err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched, err := jobs.InitializeJobs(ctx, jobs.NewPartyExpiryJob(deps.Services.Parties, metricsReg), cfg.PartySweepInterval)
	if err != nil {
		logging.Fatal("Failed to start background jobs", "error", err.Error())
	}

	upSince := time.Now()
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           routes.RegisterRoutes(cfg, deps, registry, upSince),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logging.Info("Server starting", "port", cfg.Port, "environment", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("HTTP server failed", "error", err.Error())
			stop()
		}
	}()

	<-ctx.Done()
	logging.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Warn("HTTP shutdown did not complete", "error", err.Error())
	}
	if err := sched.Shutdown(); err != nil {
		logging.Warn("Scheduler shutdown failed", "error", err.Error())
	}
}
