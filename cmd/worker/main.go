package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/campushub/campusevents/internal/config"
	"github.com/campushub/campusevents/internal/db"
	"github.com/campushub/campusevents/internal/notifications"
	"github.com/campushub/campusevents/internal/observability"
	"github.com/campushub/campusevents/internal/queue/worker"
	"github.com/campushub/campusevents/internal/repo/postgres"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)

	defer stop()

	pool, err := db.NewPool(cfg.DBURL)

	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

	migrateCtx, cancelMigrate := config.WithTimeout(30 * time.Second)

	if err := db.Migrate(migrateCtx, cfg.DBURL); err != nil {
		cancelMigrate()
		log.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	cancelMigrate()

	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	jobsRepo := postgres.NewJobsRepo(pool, prom)

	var base notifications.Notifier

	if cfg.SMTPHost != "" {
		base = notifications.NewSMTPNotifier(notifications.SMTPConfig{
			Host: cfg.SMTPHost,
			Port: cfg.SMTPPort,
			From: cfg.SMTPFrom,
		})
	} else {
		log.Warn("SMTP_HOST not set, emails go to the process log")
		base = notifications.NewLogNotifier()
	}

	notifier := notifications.NewProtectedNotifier(base, notifications.ProtectedNotifierConfig{
		Timeout:          5 * time.Second,
		FailureThreshold: 3,
		Cooldown:         15 * time.Second,
		HalfOpenMaxCalls: 1,
	})

	host, _ := os.Hostname()
	workerID := host + "-" + strconv.Itoa(os.Getpid())

	w := worker.New(worker.Config{
		PollInterval:  cfg.WorkerPollInterval,
		WorkerID:      workerID,
		Concurrency:   cfg.WorkerConcurrency,
		ShutdownGrace: 10 * time.Second,
	}, jobsRepo, notifier, log, prom)

	// health + metrics on a side port so the worker shows up in probes
	healthMux := http.NewServeMux()
	healthMux.Handle("/", w.HealthHandler())
	healthMux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	healthSrv := &http.Server{
		Addr:              ":" + healthPort(),
		Handler:           healthMux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("worker health server failed", "err", err)
		}
	}()

	log.Info("worker starting", "worker_id", workerID, "concurrency", cfg.WorkerConcurrency)

	if err := w.Run(ctx); err != nil {
		log.Error("worker stopped with error", "err", err)
	}

	shutdownCtx, cancel := config.WithTimeout(5 * time.Second)

	defer cancel()

	_ = healthSrv.Shutdown(shutdownCtx)

	log.Info("worker shutdown complete")
}

func healthPort() string {
	if p := os.Getenv("WORKER_HEALTH_PORT"); p != "" {
		return p
	}
	return "8081"
}
