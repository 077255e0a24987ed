package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/game-store/internal/clock"
	"github.com/iliyamo/game-store/internal/config"
	"github.com/iliyamo/game-store/internal/database"
	"github.com/iliyamo/game-store/internal/logging"
	"github.com/iliyamo/game-store/internal/queue"
	"github.com/iliyamo/game-store/internal/repository"
	"github.com/iliyamo/game-store/internal/repository/memory"
	"github.com/iliyamo/game-store/internal/router"
	"github.com/iliyamo/game-store/internal/service"
	"github.com/iliyamo/game-store/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal().Err(err).Msg("load config")
	}
	log := logging.Setup(cfg.LogLevel, cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	st, db, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	if db != nil {
		defer func() { _ = db.Close() }()
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn().Msg("redis unavailable; cache and rate limit disabled")
	} else {
		defer func() { _ = rdb.Close() }()
	}

	var events service.EventPublisher
	if cfg.EventsEnabled {
		pub := queue.NewPublisher(cfg.RabbitMQURL, log)
		defer func() { _ = pub.Close() }()
		events = pub
	}

	clk := clock.System{}
	deps := router.Deps{
		Catalog:   service.NewCatalogService(st, clk, log),
		Carts:     service.NewCartService(st, clk, log),
		Library:   service.NewLibraryService(st),
		Purchases: service.NewPurchaseService(st, clk, events, log),
		Redis:     rdb,
		JWTSecret: cfg.JWTSecret,
		Cache:     config.LoadCacheConfig(),
		RateLimit: config.LoadRateLimitConfig(),
		Metrics:   cfg.MetricsEnabled,
		Log:       log,
	}
	if db != nil {
		deps.DB = db
	}
	e := router.New(deps)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Str("env", cfg.Env).Str("store", cfg.StoreDriver).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return e.Shutdown(sctx)
	})
	if cfg.EventsEnabled {
		g.Go(func() error {
			return queue.StartPurchaseConsumer(gctx, cfg.RabbitMQURL, log)
		})
	}
	return g.Wait()
}

// openStore returns the configured store.  The *sql.DB is nil for the
// memory driver.
func openStore(ctx context.Context, cfg config.Config, log zerolog.Logger) (store.Store, *sql.DB, error) {
	if cfg.StoreDriver == config.DriverMemory {
		log.Warn().Msg("using in-memory store; data is lost on exit")
		return memory.New(), nil, nil
	}
	db, err := database.Open(ctx, database.Options{
		User:     cfg.DBUser,
		Password: cfg.DBPass,
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		Name:     cfg.DBName,
	})
	if err != nil {
		return nil, nil, err
	}
	if cfg.MigrateOnStart {
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
	}
	return repository.NewSQLStore(db), db, nil
}
