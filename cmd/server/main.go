// Command server runs the session gateway.
//
//	@title			Session Gateway API
//	@version		1.0
//	@description	Client session, navigation and notification surface of the marketplace front-end.
//	@BasePath		/
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	_ "github.com/nestmarket/session-gateway/docs"
	"github.com/nestmarket/session-gateway/internal/api"
	"github.com/nestmarket/session-gateway/internal/api/handler"
	"github.com/nestmarket/session-gateway/internal/api/middleware"
	"github.com/nestmarket/session-gateway/internal/core/domain"
	"github.com/nestmarket/session-gateway/internal/core/ports"
	"github.com/nestmarket/session-gateway/internal/core/service"
	"github.com/nestmarket/session-gateway/internal/infrastructure/db/memory"
	mongodb "github.com/nestmarket/session-gateway/internal/infrastructure/db/mongo"
	redisdb "github.com/nestmarket/session-gateway/internal/infrastructure/db/redis"
	"github.com/nestmarket/session-gateway/internal/infrastructure/handoff"
	"github.com/nestmarket/session-gateway/internal/infrastructure/marketplace"
	"github.com/nestmarket/session-gateway/internal/infrastructure/navigation"
	"github.com/nestmarket/session-gateway/internal/infrastructure/queue"
	"github.com/nestmarket/session-gateway/internal/pkg/clock"
	"github.com/nestmarket/session-gateway/internal/pkg/config"
	"github.com/nestmarket/session-gateway/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "session-gateway",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	durable, ephemeral, checks, closeStores, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStores()

	tree, err := loadNavigation(cfg)
	if err != nil {
		return err
	}

	clk := clock.Real()

	dispatcher := queue.NewDispatcher(cfg.Session.BeaconWorkers, logger.Component("dispatcher"))
	dispatcher.Start(ctx)
	opener := handoff.NewBeaconOpener(nil, dispatcher, clk, cfg.Session.HandoffCloseDelay, log)

	registry := service.NewRegistry(service.RegistryConfig{
		Store:         service.NewCredentialStore(durable, ephemeral, log),
		Notifications: marketplace.NewNotificationClient(cfg.MarketplaceAPIURL, &http.Client{Timeout: cfg.Notifications.FetchTimeout}),
		Handoff:       service.NewHandoff(cfg.ManagementAppURL, opener, clk, cfg.Session.HandoffCloseDelay, log),
		Poller: service.PollerConfig{
			Interval:     cfg.Notifications.PollInterval,
			PageSize:     cfg.Notifications.PageSize,
			FetchTimeout: cfg.Notifications.FetchTimeout,
		},
		IdleTimeout: cfg.Session.IdleTimeout,
		Clock:       clk,
	}, log)
	registry.Start(ctx)
	defer registry.Close()

	secret := []byte(cfg.ClientSecret)
	if len(secret) == 0 {
		log.Warn().Msg("CLIENT_SECRET is empty; using an insecure development secret")
		secret = []byte("development-only-secret")
	}

	e := api.NewRouter(api.Deps{
		Registry:  registry,
		Navigator: service.NewNavigator(tree),
		Client: middleware.ClientConfig{
			Secret:    secret,
			DeviceTTL: cfg.Session.DeviceCookieTTL,
			Secure:    !cfg.IsDevelopment(),
		},
		Checks: checks,
		Log:    logger.Component("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("storage", cfg.Storage).Msg("listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// openStores builds the two credential tiers. STORAGE=memory keeps both in
// process; STORAGE=remote puts the durable tier in MongoDB and the
// ephemeral tier in Redis.
func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (durable, ephemeral ports.TierStore, checks []handler.DependencyCheck, closeFn func(), err error) {
	if cfg.Storage == config.StorageMemory {
		log.Warn().Msg("credential tiers are in memory; sessions do not survive a restart")
		return memory.NewTier(0), memory.NewTier(cfg.Redis.EphemeralTTL), nil, func() {}, nil
	}

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return nil, nil, nil, nil, err
	}
	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		_ = mongoClient.Disconnect(context.Background())
		return nil, nil, nil, nil, err
	}

	repo := mongodb.NewCredentialRepository(db)
	if err := repo.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("could not ensure credential indexes")
	}

	checks = []handler.DependencyCheck{
		{Name: "mongodb", Ping: func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) }},
		{Name: "redis", Ping: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
	}
	closeFn = func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(ctx); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
		if err := rdb.Close(); err != nil {
			log.Warn().Err(err).Msg("redis close")
		}
	}
	return repo, redisdb.NewEphemeralTier(rdb, cfg.Redis.EphemeralTTL), checks, closeFn, nil
}

func loadNavigation(cfg *config.Config) ([]domain.NavigationMenuNode, error) {
	if cfg.NavigationFile != "" {
		return navigation.LoadFile(cfg.NavigationFile)
	}
	return navigation.Default()
}
