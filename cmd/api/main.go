package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/eventdesk/internal/cache"
	"github.com/geocoder89/eventdesk/internal/config"
	"github.com/geocoder89/eventdesk/internal/db"
	httpx "github.com/geocoder89/eventdesk/internal/http"
	"github.com/geocoder89/eventdesk/internal/importer"
	"github.com/geocoder89/eventdesk/internal/notifications"
	"github.com/geocoder89/eventdesk/internal/observability"
	"github.com/geocoder89/eventdesk/internal/queue/worker"
	"github.com/geocoder89/eventdesk/internal/repo/memory"
	"github.com/geocoder89/eventdesk/internal/repo/postgres"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelStart()

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()

	shutdownTracer, err := observability.InitTracer(startCtx, observability.TracerConfig{
		Component:   "api",
		Env:         cfg.Env,
		Endpoint:    cfg.OTLPEndpoint,
		SampleRatio: cfg.TraceSampleRatio,
	})
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	deps := httpx.RouterDeps{
		Env:                cfg.Env,
		Log:                log,
		Prom:               prom,
		Metrics:            reg,
		MaxUploadBytes:     cfg.MaxUploadBytes,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}

	// repositories: postgres when configured, otherwise everything lives in memory
	if cfg.DBURL != "" {
		pool, err := db.NewPool(startCtx, cfg.DBURL, cfg.DBMaxConns)
		if err != nil {
			log.Error("db connect failed", "err", err)
			os.Exit(1)
		}
		defer pool.Close()

		if err := db.EnsureSchema(startCtx, pool); err != nil {
			log.Error("schema bootstrap failed", "err", err)
			os.Exit(1)
		}

		eventsRepo := postgres.NewEventsRepo(pool, prom)
		jobsRepo := postgres.NewJobsRepo(pool, prom)

		deps.Events = eventsRepo
		deps.Attendees = postgres.NewAttendeesRepo(pool, prom, jobsRepo)
		deps.Importer = importer.New(eventsRepo, log, prom)
		deps.Ping = pool.Ping
	} else {
		log.Warn("no database configured, using the in-memory store")

		store := memory.NewStore()
		eventsRepo := memory.NewEventsRepo(store)

		deps.Events = eventsRepo
		deps.Attendees = memory.NewAttendeesRepo(store)
		deps.Importer = importer.New(eventsRepo, log, prom)

		// no separate worker can reach this store, so drain confirmations in-process
		notifier := notifications.NewProtectedNotifier(
			notifications.NewLogNotifier(log, notifications.LogNotifierConfig{
				Delay: cfg.NotifierDelay,
				Fail:  cfg.NotifierFail,
			}),
			log,
			notifications.ProtectedNotifierConfig{},
		)

		w := worker.New(worker.Config{
			WorkerID:     "api-inprocess",
			PollInterval: cfg.WorkerPollInterval,
			Concurrency:  1,
		}, memory.NewJobsRepo(store), memory.NewDeliveriesRepo(store), notifier, log.With("component", "worker"), observability.NewJobMetrics(prom))

		go func() {
			if err := w.Run(workerCtx); err != nil {
				log.Error("in-process worker stopped", "err", err)
			}
		}()
	}

	// list cache: redis shared between replicas, else per process
	if cfg.RedisAddr != "" {
		rs := cache.NewRedisStore(cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.CacheTTL,
			Prefix:   "eventdesk:events:list",
		})
		defer rs.Close()

		if err := rs.Ping(startCtx); err != nil {
			log.Warn("redis unreachable, cache calls will fail open", "addr", cfg.RedisAddr, "err", err)
		}
		deps.Cache = rs
	} else {
		deps.Cache = cache.New(cfg.CacheTTL)
	}

	// set up routers with the log
	router := httpx.NewRouter(deps)

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// start server using a concurrent go-routine driven anonymous function.

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")
	stopWorker()

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}

		if err := shutdownTracer(ctx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
