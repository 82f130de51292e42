// cmd/server/main.go
//
// @title Content Moderation API
// @version 1.0
// @description Submission lifecycle, dashboard stats and activity feed. Live updates on /ws.
// @BasePath /
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

	"github.com/redis/go-redis/v9"

	_ "moderation-service/docs"
	"moderation-service/internal/classifier"
	"moderation-service/internal/config"
	"moderation-service/internal/repository/memory"
	"moderation-service/internal/repository/postgresql"
	"moderation-service/internal/repository/redisstore"
	"moderation-service/internal/service"
	"moderation-service/internal/telemetry"
	httptransport "moderation-service/internal/transport/http"
	"moderation-service/internal/transport/ws"
	"moderation-service/internal/worker"
)

type stores struct {
	submissions service.SubmissionRepository
	activity    service.ActivityRepository
	stats       service.StatsRepository
	database    service.Pinger
	redis       service.Pinger
	close       func()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	log.Printf("[server] config %s", cfg)

	otelShutdown, err := telemetry.Setup(cfg.OTelMetrics, cfg.MetricsInterval)
	if err != nil {
		log.Fatalf("otel: %v", err)
	}
	lifecycle, err := telemetry.NewLifecycle(nil)
	if err != nil {
		log.Fatalf("otel instruments: %v", err)
	}

	st, err := openStores(ctx, cfg)
	if err != nil {
		log.Fatalf("stores: %v", err)
	}
	defer st.close()

	// DI
	hub := ws.NewHub()
	cls := classifier.NewKeywordClassifier(classifier.DefaultRules, cfg.AnalysisDelay)
	processor := worker.NewProcessor(st.submissions, st.stats, cls, hub, lifecycle)
	pool := worker.NewPool(ctx, processor)

	if cfg.RecoverOnStart {
		if err := processor.Recover(ctx, pool); err != nil {
			log.Fatalf("recover: %v", err)
		}
	}

	submissions := service.NewSubmissionService(st.submissions, hub, pool, lifecycle)
	dashboard := service.NewDashboardService(st.activity, st.stats)
	health := service.NewHealthService(st.database, st.redis, hub, pool, nil)

	h := httptransport.NewHandler(submissions, dashboard, health)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httptransport.Routes(h, ws.Handler(hub)),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("[server] listening addr=%s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("[server] shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[server] http shutdown error=%v", err)
	}
	if err := pool.Wait(shutdownCtx); err != nil {
		log.Printf("[server] in_flight=%d wait error=%v", pool.InFlight(), err)
	}
	hub.Shutdown()
	if err := otelShutdown(shutdownCtx); err != nil {
		log.Printf("[server] otel shutdown error=%v", err)
	}

	log.Println("[server] stopped")
}

// openStores picks Postgres when a DSN is configured and the in-memory store
// otherwise. A Redis address moves SystemStats to Redis.
func openStores(ctx context.Context, cfg config.Config) (*stores, error) {
	st := &stores{close: func() {}}

	if cfg.PostgresDSN != "" {
		pgPool, err := postgresql.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := postgresql.Migrate(ctx, pgPool); err != nil {
			pgPool.Close()
			return nil, err
		}
		subs := postgresql.NewSubmissionRepository(pgPool)
		st.submissions = subs
		st.database = subs
		st.activity = postgresql.NewActivityRepository(pgPool)
		st.stats = postgresql.NewStatsRepository(pgPool)
		st.close = pgPool.Close
	} else {
		log.Println("[server] POSTGRES_DSN not set, using in-memory store")
		mem := memory.NewStore()
		st.submissions = mem
		st.database = mem
		st.activity = mem
		st.stats = mem
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			st.close()
			return nil, err
		}
		redisStats := redisstore.NewStatsStore(rdb, cfg.RedisStatsKey)
		st.stats = redisStats
		st.redis = redisStats

		closeDB := st.close
		st.close = func() {
			_ = rdb.Close()
			closeDB()
		}
	}

	return st, nil
}
