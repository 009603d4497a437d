package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"CrudAPI/internal/auth"
	"CrudAPI/internal/cache"
	"CrudAPI/internal/config"
	"CrudAPI/internal/credential"
	"CrudAPI/internal/db"
	"CrudAPI/internal/handler"
	"CrudAPI/internal/locale"
	"CrudAPI/internal/logger"
	"CrudAPI/internal/metrics"
	"CrudAPI/internal/model"
	"CrudAPI/internal/router"
	"CrudAPI/internal/store"
	"CrudAPI/internal/validation"
)

func main() {
	debugFlag := flag.Bool("d", false, "enable debug logging")
	migrateOnly := flag.Bool("migrate-only", false, "apply migrations / create tables and exit")
	flag.Parse()

	cfg := config.LoadConfig()
	if err := logger.Init(cfg.LogDir); err != nil {
		fmt.Fprintf(os.Stderr, "log init failed: %v\n", err)
		os.Exit(1)
	}
	logger.SetDebug(*debugFlag)

	if err := run(cfg, *migrateOnly); err != nil {
		logger.Error("fatal", map[string]any{"error": err.Error()})
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, migrateOnly bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog, err := locale.NewCatalog(cfg.Locale, cfg.LocalesDir)
	if err != nil {
		return fmt.Errorf("locale init: %w", err)
	}

	// Initialize registry
	registry, err := model.InitRegistry(cfg.ModelsDir)
	if err != nil {
		return fmt.Errorf("registry init: %w", err)
	}
	logger.Info("models_initialized", map[string]any{"count": registry.Len(), "models": registry.Names()})

	// Store
	openCtx, cancel := context.WithTimeout(ctx, cfg.StoreTimeout)
	conn, dialect, closeDB, err := db.Open(openCtx, cfg)
	cancel()
	if err != nil {
		logger.Error("store_connect_failed", map[string]any{"driver": cfg.StoreDriver, "message": catalog.Text(locale.ServerDBConnError)})
		return err
	}
	defer closeDB()
	logger.Info("store_connected", map[string]any{"driver": cfg.StoreDriver, "message": catalog.Text(locale.ServerDBConnSuccess)})

	sqlStore := store.NewSQLStore(conn, dialect)
	if cfg.MigrationsDir != "" {
		if err := db.ApplyMigrations(cfg.MigrationsDir, db.MigrationURL(cfg)); err != nil {
			return err
		}
	}
	if cfg.AutoMigrate || migrateOnly {
		models := make([]*model.Model, 0, registry.Len())
		for _, name := range registry.Names() {
			m, _ := registry.Get(name)
			models = append(models, m)
		}
		if err := sqlStore.CreateTables(ctx, models...); err != nil {
			return err
		}
	}
	if migrateOnly {
		logger.Info("migrate_only_done", nil)
		return nil
	}

	var st store.Store = sqlStore
	if cfg.Cache.RedisAddr != "" {
		rdb := db.InitRedis(cfg.Cache.RedisAddr)
		defer rdb.Close()
		if err := db.PingRedis(ctx, rdb); err != nil {
			logger.Warn("redis_unavailable", map[string]any{"addr": cfg.Cache.RedisAddr, "error": err.Error()})
		} else {
			st = cache.New(sqlStore, rdb, cfg.Cache.TTL)
			logger.Info("query_cache_enabled", map[string]any{"addr": cfg.Cache.RedisAddr, "ttl": cfg.Cache.TTL.String()})
		}
	}

	gate, err := auth.NewGate(cfg.Auth)
	if err != nil {
		return fmt.Errorf("auth init: %w", err)
	}

	deps := handler.Deps{
		Hasher: credential.NewBcrypt(cfg.BcryptCost),
		Locale: catalog,
		Gate:   gate,
		Strict: cfg.StrictParams,
	}
	opts := router.Options{
		Registry: registry,
		Store:    st,
		Engine:   validation.NewRuleEngine(),
		CORS:     cfg.CORS,
		Health:   conn.PingContext,
	}
	if cfg.Metrics.Enabled {
		m := metrics.New()
		deps.Metrics = m
		opts.Metrics = m.Handler()
	}
	opts.Deps = deps

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.New(opts),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server_start", map[string]any{"port": cfg.Port, "message": catalog.Text(locale.ServerStart)})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	logger.Info("server_shutdown", nil)
	return srv.Shutdown(shutdownCtx)
}
