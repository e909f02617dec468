// Package daemon composes the session daemon: one fx module wiring config,
// stores, name resolution, query service, partition planner, bridge client,
// and the HTTP API server, with lifecycle hooks for clean shutdown.
package daemon

import (
	"context"
	"os"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/shyndman/whatsapp-mcp/internal/api"
	"github.com/shyndman/whatsapp-mcp/internal/bridge"
	"github.com/shyndman/whatsapp-mcp/internal/config"
	"github.com/shyndman/whatsapp-mcp/internal/lock"
	"github.com/shyndman/whatsapp-mcp/internal/logging"
	"github.com/shyndman/whatsapp-mcp/internal/names"
	"github.com/shyndman/whatsapp-mcp/internal/partition"
	"github.com/shyndman/whatsapp-mcp/internal/query"
	"github.com/shyndman/whatsapp-mcp/internal/session"
	"github.com/shyndman/whatsapp-mcp/internal/store"
)

// Params holds the resolved session configuration passed to the fx module.
type Params struct {
	SessionName string
	ListenAddr  string // optional override for testing; empty = use config
}

// Module returns the fx module for the daemon, composing all providers and
// lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideConfig,
			provideLock,
			provideArchiveStore,
			provideIdentityStore,
			provideResolver,
			provideQueryService,
			providePlanner,
			provideBridgeClient,
			provideAPI,
			NewServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(session.LogPath(p.SessionName), p.SessionName)
}

func provideConfig(logger *zap.Logger) *config.Config {
	cfg, err := config.Load(session.ConfigPath())
	if err != nil {
		logger.Info("no config file, using defaults", zap.Error(err))
		return config.Default()
	}
	return cfg
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := session.EnsureDir(p.SessionName); err != nil {
		return nil, err
	}
	logger.Info("acquiring session lock", zap.String("session", p.SessionName))
	l, err := lock.Acquire(session.Dir(p.SessionName))
	if err != nil {
		return nil, err
	}
	logger.Info("session lock acquired")
	return l, nil
}

func provideArchiveStore(p Params, cfg *config.Config, logger *zap.Logger) (*store.DB, error) {
	dbPath := cfg.Store.MessagesDB
	if dbPath == "" {
		dbPath = session.MessagesDBPath(p.SessionName)
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("archive store initialized", zap.String("path", dbPath))
	return db, nil
}

func provideIdentityStore(p Params, cfg *config.Config, logger *zap.Logger) (*store.IdentityDB, error) {
	dbPath := cfg.Store.WhatsAppDB
	if dbPath == "" {
		dbPath = session.WhatsAppDBPath(p.SessionName)
	}
	// The bridge writes this file. Before its first run an empty placeholder
	// lets the read-only open succeed; queries then report unauthenticated.
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		f, err := os.OpenFile(dbPath, os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			return nil, err
		}
		_ = f.Close()
		logger.Info("identity store absent, created placeholder", zap.String("path", dbPath))
	}
	return store.OpenIdentity(dbPath)
}

func provideResolver(identity *store.IdentityDB, db *store.DB, logger *zap.Logger) *names.Resolver {
	return names.NewResolver(identity, db, logger)
}

func provideQueryService(db *store.DB, identity *store.IdentityDB, resolver *names.Resolver, logger *zap.Logger) *query.Service {
	return query.NewService(db, identity, resolver, logger)
}

func providePlanner(db *store.DB, logger *zap.Logger) *partition.Planner {
	return partition.NewPlanner(db, logger)
}

func provideBridgeClient(cfg *config.Config, logger *zap.Logger) *bridge.Client {
	timeout := time.Duration(cfg.Bridge.TimeoutSeconds) * time.Second
	return bridge.NewClient(cfg.Bridge.BaseURL, timeout, logger)
}

func provideAPI(queries *query.Service, planner *partition.Planner, bc *bridge.Client, logger *zap.Logger) *api.Server {
	return api.NewServer(queries, planner, bc, logger)
}

func registerLifecycle(lc fx.Lifecycle, srv *Server, lk *lock.Lock, db *store.DB, identity *store.IdentityDB, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("http server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			srv.Stop(ctx)
			if err := identity.Close(); err != nil {
				logger.Warn("error closing identity store", zap.Error(err))
			}
			if err := db.Close(); err != nil {
				logger.Warn("error closing archive store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			return nil
		},
	})
}
