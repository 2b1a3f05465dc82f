package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/telhawk-systems/tableviews/common/config"
	"github.com/telhawk-systems/tableviews/common/logging"
	"github.com/telhawk-systems/tableviews/common/middleware"
	"github.com/telhawk-systems/tableviews/views/internal/cache"
	"github.com/telhawk-systems/tableviews/views/internal/handlers"
	"github.com/telhawk-systems/tableviews/views/internal/repository"
	"github.com/telhawk-systems/tableviews/views/internal/server"
	"github.com/telhawk-systems/tableviews/views/internal/service"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With(logging.Service("views"))
	logging.SetDefault(logger)

	slog.Info("Starting views service",
		slog.Int("port", cfg.Server.Port),
		slog.String("database", cfg.Database.Type),
		slog.Bool("strict", cfg.Catalog.Strict),
	)

	ctx := context.Background()
	repo, err := openRepository(ctx, cfg)
	if err != nil {
		slog.Error("Failed to open repository", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer repo.Close()

	opts := []service.Option{
		service.WithLogger(logger),
		service.WithStrict(cfg.Catalog.Strict),
		service.WithMaxFilterDepth(cfg.Catalog.MaxFilterDepth),
	}
	if cfg.Redis.Enabled {
		client, err := cache.NewClient(ctx, cfg.Redis.URL, cfg.Redis.MaxRetries, cfg.Redis.PoolSize)
		if err != nil {
			// lists are served uncached rather than refusing to start
			slog.Warn("Redis unavailable, view cache disabled", slog.String("error", err.Error()))
		} else {
			defer client.Close()
			opts = append(opts, service.WithCache(cache.NewListCache(client, cfg.Redis.TTL)))
			slog.Info("View list cache enabled", slog.Duration("ttl", cfg.Redis.TTL))
		}
	}

	svc := service.NewService(repo, opts...)
	handler := handlers.NewHandler(svc, logger)
	router := server.NewRouter(handler, logger, middleware.CORSConfig{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("Views service listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", slog.String("error", err.Error()))
	}
	slog.Info("Server stopped")
}

func openRepository(ctx context.Context, cfg *config.Config) (repository.Repository, error) {
	switch cfg.Database.Type {
	case config.DatabaseSQLite:
		slog.Info("Opening SQLite database", slog.String("path", cfg.Database.SQLite.Path))
		repo, err := repository.NewSQLiteRepository(ctx, cfg.Database.SQLite.Path)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case config.DatabaseMemory:
		slog.Warn("Using in-memory repository (development only)")
		return repository.NewMemoryRepository(), nil
	}

	pg := cfg.Database.Postgres
	connString := pg.ConnString()
	slog.Info("Connecting to PostgreSQL",
		slog.String("host", pg.Host),
		slog.Int("port", pg.Port),
		slog.String("database", pg.Database),
	)
	if err := runMigrations(cfg.Database.MigrationsDir, connString); err != nil {
		return nil, err
	}
	repo, err := repository.NewPostgresRepository(ctx, connString, pg.MaxConns)
	if err != nil {
		return nil, err
	}
	return repo, nil
}

func runMigrations(dir, connString string) error {
	slog.Info("Running database migrations", slog.String("dir", dir))
	m, err := migrate.New("file://"+dir, connString)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	version, dirty, err := m.Version()
	if err != nil {
		slog.Warn("Could not get migration version", slog.String("error", err.Error()))
		return nil
	}
	slog.Info("Database migration complete",
		slog.Uint64("version", uint64(version)),
		slog.Bool("dirty", dirty),
	)
	return nil
}
