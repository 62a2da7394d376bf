package main

import (
	"context"
	"errors"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/indie-comments/internal/platform/config"
	"github.com/example/indie-comments/internal/platform/db"
	"github.com/example/indie-comments/internal/platform/httpserver"
	"github.com/example/indie-comments/internal/platform/logging"
	"github.com/example/indie-comments/internal/platform/natsconn"
	"github.com/example/indie-comments/internal/platform/ratelimit"
	"github.com/example/indie-comments/internal/platform/run"
	"github.com/example/indie-comments/services/comments/internal/audit"
	"github.com/example/indie-comments/services/comments/internal/events"
	"github.com/example/indie-comments/services/comments/internal/handlers"
	"github.com/example/indie-comments/services/comments/internal/moderation"
	"github.com/example/indie-comments/services/comments/internal/stats"
	"github.com/example/indie-comments/services/comments/internal/store"
	"github.com/example/indie-comments/services/comments/internal/stream"
	"github.com/example/indie-comments/services/comments/internal/thread"
)

const version = "1.0.0"

func main() {
	run.Exit(serve())
}

// serve wires the service and blocks until shutdown. Deferred cleanup runs
// before the exit code reaches run.Exit.
func serve() int {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.LogLevel, cfg.ServiceName)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	comments := store.NewInMemoryCommentStore()
	if cfg.Moderation.SeedDemoData {
		comments.Reset(store.DemoSeed())
		log.Info("comment store seeded with demo data")
	}

	recorder, pool := initAudit(cfg, log)
	if pool != nil {
		defer pool.Close()
	}

	nc := initNATS(cfg, log)
	defer natsconn.Close(nc, 5*time.Second)

	agg := stats.NewAggregator(comments)
	hub := stream.NewHub(agg, stream.Options{Interval: cfg.Stream.Interval, Logger: log})
	caches := handlers.NewCaches(cfg.Cache.TTL, cfg.Cache.MaxSize, log)
	publisher := events.NewNATSPublisher(nc, cfg.NATS.SubjectPrefix, log)

	if nc != nil {
		subject := cfg.NATS.SubjectPrefix + ".events.>"
		if _, err := caches.SubscribeInvalidation(nc, subject, log); err != nil {
			log.Warn("nats cache invalidation unavailable", zap.String("subject", subject), zap.Error(err))
		}
	}

	engine := moderation.NewEngine(comments, moderation.Options{
		Policy: policyFor(cfg.Moderation.ValidationPolicy, log),
		Sink:   events.Fanout{caches, hub, publisher},
		Audit:  recorder,
		Logger: log,
	})

	r := chi.NewRouter()
	httpserver.SetupRouter(r, httpserver.RouterConfig{
		AllowedOrigins: cfg.HTTP.CORSAllowedOrigins,
		Logger:         log,
		ReadyFunc:      readiness(pool, nc),
	})
	handlers.Mount(r, handlers.Deps{
		Comments:    comments,
		Engine:      engine,
		Threads:     thread.NewAssembler(comments),
		Stats:       agg,
		Caches:      caches,
		Hub:         hub,
		Stream:      stream.SSEOptions{Heartbeat: cfg.Stream.Heartbeat, MaxLifetime: cfg.Stream.MaxLifetime},
		Audit:       recorder,
		Version:     version,
		Logger:      log,
		CreateLimit: ratelimit.New(cfg.Moderation.CreateRateLimit, cfg.Moderation.CreateRateBurst).Middleware,
	})

	srv := httpserver.New(httpserver.Options{Addr: cfg.HTTP.Addr, Router: r})

	tasks := []func(ctx context.Context) error{
		hub.Run,
		func(ctx context.Context) error { return srv.Run(ctx, log) },
	}
	if cfg.GRPCAddr != "" {
		tasks = append(tasks, func(ctx context.Context) error {
			return serveGRPC(ctx, cfg.GRPCAddr, cfg.ServiceName, log)
		})
	}

	code := run.New(log).WithSignals(tasks...)
	log.Info("exit", zap.Int("code", code))
	return code
}

func policyFor(name string, log *zap.Logger) moderation.Policy {
	switch name {
	case config.PolicyRequireFields:
		return moderation.RequireFields{}
	case config.PolicyAcceptAll, "":
		return moderation.AcceptAll{}
	default:
		log.Warn("unknown validation policy, accepting all comments", zap.String("policy", name))
		return moderation.AcceptAll{}
	}
}

// initAudit picks the moderation log backend. Postgres is used when
// DATABASE_URL is set and reachable; otherwise the log lives in memory.
func initAudit(cfg config.AppConfig, log *zap.Logger) (audit.Recorder, *pgxpool.Pool) {
	if cfg.DatabaseURL == "" {
		log.Info("moderation log: memory")
		return audit.NewMemoryRecorder(500), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := db.Open(ctx, db.Options{DSN: cfg.DatabaseURL})
	if err != nil {
		log.Warn("postgres unavailable, moderation log falls back to memory", zap.Error(err))
		return audit.NewMemoryRecorder(500), nil
	}
	rec := audit.NewPostgresRecorder(pool)
	if err := rec.EnsureSchema(ctx); err != nil {
		pool.Close()
		log.Warn("moderation log schema failed, falling back to memory", zap.Error(err))
		return audit.NewMemoryRecorder(500), nil
	}
	log.Info("moderation log: postgres")
	return rec, pool
}

func initNATS(cfg config.AppConfig, log *zap.Logger) *nats.Conn {
	nc, err := natsconn.Connect(natsconn.Options{URL: cfg.NATS.URL, Name: cfg.ServiceName, Logger: log})
	switch {
	case errors.Is(err, natsconn.ErrNotConfigured):
		log.Info("NATS_URL not set, events stay in process")
		return nil
	case err != nil:
		log.Warn("nats unavailable, events stay in process", zap.Error(err))
		return nil
	}
	log.Info("nats connected", zap.String("url", nc.ConnectedUrl()))
	return nc
}

func readiness(pool *pgxpool.Pool, nc *nats.Conn) func() error {
	return func() error {
		if pool != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := pool.Ping(ctx); err != nil {
				return err
			}
		}
		if nc != nil && !nc.IsConnected() {
			return errors.New("nats disconnected")
		}
		return nil
	}
}
