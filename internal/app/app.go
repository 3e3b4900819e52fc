package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"example.com/nightfall/internal/config"
	"example.com/nightfall/internal/game"
	"example.com/nightfall/internal/httpapi"
	"example.com/nightfall/internal/migrate"
	"example.com/nightfall/internal/store"
)

const pingTimeout = 10 * time.Second

type App struct {
	cfg config.Config
	log *slog.Logger

	db  *pgxpool.Pool
	rdb *redis.Client

	snaps *store.SnapshotStore // postgres backend only
	reg   *game.Registry
	srv   *http.Server
}

func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}
	a := &App{cfg: cfg, log: log}

	if cfg.Postgres.RunMigrations {
		if err := migrate.Up(cfg.Postgres.URL, cfg.Postgres.MigrationsDir, log); err != nil {
			return nil, err
		}
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	var persist game.SnapshotPersistence
	switch cfg.Snapshots.Backend {
	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.Redis.Addr,
			DB:   cfg.Redis.DB,
		})
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("redis ping (%s db=%d): %w", cfg.Redis.Addr, cfg.Redis.DB, err)
		}
		a.rdb = rdb
		persist = game.NewRedisSnapshotStore(rdb, cfg.Snapshots.TTL)

	case config.BackendPostgres:
		dbpool, err := pgxpool.New(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("pgxpool: %w", err)
		}
		if err := dbpool.Ping(pingCtx); err != nil {
			dbpool.Close()
			return nil, fmt.Errorf("postgres ping: %w", err)
		}
		a.db = dbpool
		a.snaps = store.NewSnapshotStore(dbpool)
		persist = a.snaps

	case config.BackendNone:
		log.Warn("snapshot persistence disabled, summaries only cover live sessions")
	}

	gameCfg := game.Config{
		Settings: game.Settings{
			NightSeconds:   cfg.Game.NightSeconds,
			DiscussSeconds: cfg.Game.DiscussSeconds,
			VoteSeconds:    cfg.Game.VoteSeconds,
		},
		MinPlayers:   cfg.Game.MinPlayers,
		TickInterval: cfg.Game.TickInterval,
	}
	a.reg = game.NewRegistry(gameCfg, game.NewInMemorySessionStore(), persist, log)
	gameSrv := game.NewServer(a.reg, log)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", httpapi.Health(func() map[string]any {
		return map[string]any{
			"sessions":    a.reg.Len(),
			"connections": gameSrv.Connections(),
			"snapshots":   cfg.Snapshots.Backend,
		}
	}))
	gameSrv.RegisterRoutes(mux)

	a.srv = &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           httpapi.AccessLog(log)(mux),
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	return a, nil
}

// Handler is the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.srv.Handler
}

func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	a.log.Info("http server starting", "addr", a.cfg.HTTP.Addr, "snapshots", a.cfg.Snapshots.Backend)

	g.Go(func() error {
		err := a.srv.ListenAndServe()
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		a.log.Info("http server shutting down")
		_ = a.srv.Shutdown(shutdownCtx)
		return nil
	})

	g.Go(func() error {
		return a.reg.Run(gctx)
	})

	if a.snaps != nil {
		g.Go(func() error {
			a.prune(gctx)
			return nil
		})
	}

	err := g.Wait()
	_ = a.Close(context.Background())
	return err
}

// prune drops expired Postgres snapshots; redis expires its own keys.
func (a *App) prune(ctx context.Context) {
	t := time.NewTicker(a.cfg.Snapshots.PruneInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := a.snaps.Prune(ctx, a.cfg.Snapshots.TTL)
			if err != nil {
				a.log.Warn("snapshot prune failed", "err", err)
				continue
			}
			if n > 0 {
				a.log.Info("snapshots pruned", "count", n)
			}
		}
	}
}

func (a *App) Close(ctx context.Context) error {
	// best-effort
	if a.db != nil {
		a.db.Close()
	}
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	return nil
}
