package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"jobby/internal/aggregate"
	"jobby/internal/cache"
	cacheredis "jobby/internal/cache/redis"
	"jobby/internal/config"
	"jobby/internal/database"
	"jobby/internal/logger"
	"jobby/internal/match"
	"jobby/internal/messaging"
	"jobby/internal/resume"
	"jobby/internal/scheduler"
	"jobby/internal/server"
	"jobby/internal/skills"
	"jobby/internal/sources"
	"jobby/internal/sources/linkedin"
	"jobby/internal/sources/remoteok"
	"jobby/internal/sources/rssfeed"
	"jobby/internal/store"
	"jobby/internal/telemetry"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the aggregation service with the HTTP API",
	RunE: func(*cobra.Command, []string) error {
		return serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve() error {
	app := fx.New(
		fx.Provide(
			config.Load,
			newLogger,
			newExtractor,
			newCache,
			newStore,
			newNATSConnection,
			newPublisher,
			newRegistry,
			newAggregator,
			newEngine,
			resume.NewService,
			newScheduler,
			server.NewHandler,
			newHTTPServer,
		),
		fx.Invoke(
			registerCleanup,
			registerTelemetry,
			registerSubscriber,
			registerScheduler,
			registerHTTPServer,
		),
	)

	startCtx := context.Background()
	if err := app.Start(startCtx); err != nil {
		return err
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	stopCtx := context.Background()
	return app.Stop(stopCtx)
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	return logger.New(cfg.Log.JSON, cfg.Log.Debug)
}

func newExtractor(cfg *config.Config) *skills.Extractor {
	return skills.NewExtractor(cfg.Taxonomy())
}

func newCache(cfg *config.Config) cache.Cache {
	if !cfg.Cache.Enabled {
		return cache.NewNoop()
	}
	return cacheredis.New(cache.Options{
		DefaultTTL:    cfg.Cache.TTL,
		RedisAddr:     cfg.Cache.RedisAddr,
		RedisPassword: cfg.Cache.RedisPassword,
		RedisDB:       cfg.Cache.RedisDB,
	})
}

func newStore(cfg *config.Config, log *zap.Logger) (store.Store, error) {
	if cfg.Store.Driver == "memory" {
		return store.NewMemory(), nil
	}

	ch := cfg.Store.ClickHouse
	db, err := database.New(context.Background(), database.Options{
		Addr:            ch.Addr,
		MaxOpenConns:    ch.MaxOpenConns,
		MaxIdleConns:    ch.MaxIdleConns,
		ConnMaxLifetime: ch.ConnMaxLifetime,
		Username:        ch.Username,
		Password:        ch.Password,
		Database:        ch.Database,
	}, log)
	if err != nil {
		return nil, err
	}

	chStore := store.NewClickHouse(db.Conn(), log)
	if err := chStore.Migrate(context.Background()); err != nil {
		return nil, err
	}
	return chStore, nil
}

func newNATSConnection(cfg *config.Config) (*nats.Conn, error) {
	if !cfg.NATS.Enabled {
		return nil, nil
	}
	return messaging.Connect(cfg.NATS.URL, cfg.NATS.ConnTimeout)
}

func newPublisher(conn *nats.Conn, log *zap.Logger) messaging.Publisher {
	if conn == nil {
		return messaging.NewNoopPublisher()
	}
	return messaging.NewPublisher(conn, log)
}

func newRegistry(cfg *config.Config, c cache.Cache, extractor *skills.Extractor, log *zap.Logger) (*sources.Registry, error) {
	registry := sources.NewRegistry()
	adapters := []sources.Source{
		linkedin.New(cfg.Sources.LinkedIn, c, cfg.Cache.TTL, extractor, log),
		remoteok.New(cfg.Sources.RemoteOK, c, cfg.Cache.TTL, extractor, log),
		rssfeed.New(cfg.Sources.RSS, c, cfg.Cache.TTL, extractor, log),
	}
	for _, adapter := range adapters {
		if err := registry.Register(adapter); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func newAggregator(cfg *config.Config, registry *sources.Registry, st store.Store, publisher messaging.Publisher, log *zap.Logger) (*aggregate.Aggregator, error) {
	enabled, err := registry.Enabled(cfg.Sources.Enabled)
	if err != nil {
		return nil, err
	}
	return aggregate.New(enabled, st, publisher, log), nil
}

func newEngine(cfg *config.Config, log *zap.Logger) *match.Engine {
	return match.NewEngine(cfg.Match, log)
}

func newScheduler(cfg *config.Config, aggregator *aggregate.Aggregator, log *zap.Logger) *scheduler.Scheduler {
	return scheduler.New(aggregator, cfg.Scheduler, log)
}

func newHTTPServer(handler *server.Handler) *fiber.App {
	app := server.New()
	handler.RegisterRoutes(app)
	return app
}

// registerCleanup is invoked first so its OnStop hook runs last, after the
// HTTP server has drained.
func registerCleanup(st store.Store, c cache.Cache, publisher messaging.Publisher, log *zap.Logger, lc fx.Lifecycle) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			publisher.Close()
			if err := c.Close(); err != nil {
				log.Warn("closing cache", zap.Error(err))
			}
			return st.Close()
		},
	})
}

func registerTelemetry(cfg *config.Config, lc fx.Lifecycle) {
	if !cfg.Telemetry.Enabled {
		return
	}

	var shutdown func()
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			var err error
			shutdown, err = telemetry.InitTracer(ctx, app, cfg.Telemetry.Endpoint)
			return err
		},
		OnStop: func(context.Context) error {
			if shutdown != nil {
				shutdown()
			}
			return nil
		},
	})
}

func registerSubscriber(conn *nats.Conn, log *zap.Logger, lc fx.Lifecycle) error {
	if conn == nil {
		return nil
	}
	return messaging.NewSubscriber(log, conn).RegisterSubscriptions(lc)
}

func registerScheduler(cfg *config.Config, sched *scheduler.Scheduler, log *zap.Logger, lc fx.Lifecycle) {
	if !cfg.Scheduler.Enabled {
		return
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := sched.Start(context.Background()); err != nil && !errors.Is(err, context.Canceled) {
					log.Error("scheduler stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			sched.Stop()
			return nil
		},
	})
}

func registerHTTPServer(cfg *config.Config, app *fiber.App, log *zap.Logger, lc fx.Lifecycle) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := app.Listen(cfg.HTTP.Addr); err != nil {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTP.Addr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.ShutdownWithContext(ctx)
		},
	})
}
