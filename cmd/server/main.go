package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	_ "github.com/lib/pq"

	"pathfinder/internal/drift"
	"pathfinder/internal/notify"
	"pathfinder/internal/pipeline"
	"pathfinder/internal/platform/config"
	"pathfinder/internal/platform/httpserver"
	"pathfinder/internal/platform/logger"
	"pathfinder/internal/platform/metrics"
	"pathfinder/internal/platform/middleware"
	platformredis "pathfinder/internal/platform/redis"
	"pathfinder/internal/policy"
	"pathfinder/internal/requirement"
	"pathfinder/internal/storage"
	httptransport "pathfinder/internal/transport/http"
	"pathfinder/pkg/platform/sentinel"
)

// main wires high-level dependencies and owns the scheduler tick. Business
// logic lives in the internal packages; the core manages no timers itself.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	log := logger.New(slog.LevelInfo, cfg.LogJSON)
	slog.SetDefault(log)
	m := metrics.New()

	stores, cleanup, err := buildStores(cfg)
	if err != nil {
		log.Error("store setup failed", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	guard, guardCleanup, err := buildRunGuard(cfg)
	if err != nil {
		log.Error("run guard setup failed", "error", err)
		os.Exit(1)
	}
	defer guardCleanup()

	transport, err := notify.NewPushClient(cfg.PushBaseURL)
	if err != nil {
		log.Error("push client setup failed", "error", err)
		os.Exit(1)
	}

	dispatcher, err := notify.New(transport, stores.audit,
		notify.WithLogger(log), notify.WithMetrics(m))
	if err != nil {
		log.Error("dispatcher setup failed", "error", err)
		os.Exit(1)
	}

	detector, err := drift.New(stores.scouts, stores.activity, stores.plans, cfg.Thresholds(),
		drift.WithLogger(log))
	if err != nil {
		log.Error("drift detector setup failed", "error", err)
		os.Exit(1)
	}

	orchestrator, err := pipeline.New(detector, dispatcher, stores.audit, guard,
		cfg.PrimaryTopic, cfg.ParentTopic,
		pipeline.WithLogger(log), pipeline.WithMetrics(m))
	if err != nil {
		log.Error("orchestrator setup failed", "error", err)
		os.Exit(1)
	}

	requirements, err := requirement.New(stores.requirements, stores.audit,
		requirement.WithLogger(log))
	if err != nil {
		log.Error("requirement service setup failed", "error", err)
		os.Exit(1)
	}

	handler, err := httptransport.NewHandler(policy.NewEngine(), requirements, orchestrator, stores.scouts, log)
	if err != nil {
		log.Error("handler setup failed", "error", err)
		os.Exit(1)
	}
	auth := middleware.NewAuthenticator(cfg.JWTSigningKey, log)
	router := httptransport.NewRouter(handler, auth)

	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Scheduler tick: the cron-equivalent lives here, outside the core. An
	// overlapping tick is skipped by the run guard, never interleaved.
	go func() {
		ticker := time.NewTicker(cfg.PipelineInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := orchestrator.Run(ctx); err != nil && !errors.Is(err, sentinel.ErrRunInProgress) {
					log.Error("scheduled pipeline run failed", "error", err)
				}
			}
		}
	}()

	go func() {
		log.Info("starting pathfinder", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

// storeSet groups the store interfaces the services depend on. One backing
// implementation satisfies all of them.
type storeSet struct {
	scouts       storage.ScoutStore
	activity     storage.ActivityStore
	plans        storage.PlanStore
	requirements storage.RequirementStore
	audit        storage.AuditStore
}

func buildStores(cfg config.Config) (storeSet, func(), error) {
	if cfg.PostgresURL == "" {
		mem := storage.NewMemoryStore()
		return storeSet{
			scouts:       mem,
			activity:     mem,
			plans:        mem,
			requirements: mem,
			audit:        mem,
		}, func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.PostgresURL)
	if err != nil {
		return storeSet{}, nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return storeSet{}, nil, err
	}
	pg, err := storage.NewPostgresStore(db)
	if err != nil {
		db.Close()
		return storeSet{}, nil, err
	}
	return storeSet{
		scouts:       pg,
		activity:     pg,
		plans:        pg,
		requirements: pg,
		audit:        pg,
	}, func() { db.Close() }, nil
}

func buildRunGuard(cfg config.Config) (pipeline.RunGuard, func(), error) {
	client, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		return pipeline.NewMemoryRunGuard(), func() {}, nil
	}
	guard, err := pipeline.NewRedisRunGuard(client.Client)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return guard, func() { client.Close() }, nil
}
