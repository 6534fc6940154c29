package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/SscSPs/ledger_sync/internal/core/ports/repositories"
	"github.com/SscSPs/ledger_sync/internal/core/services"
	"github.com/SscSPs/ledger_sync/internal/handlers"
	"github.com/SscSPs/ledger_sync/internal/middleware"
	"github.com/SscSPs/ledger_sync/internal/platform/config"
	"github.com/SscSPs/ledger_sync/internal/platform/logger"
	"github.com/SscSPs/ledger_sync/internal/repositories/database/pgsql"
	redisrepo "github.com/SscSPs/ledger_sync/internal/repositories/database/redis"
	"github.com/SscSPs/ledger_sync/internal/repositories/memory"
	"github.com/SscSPs/ledger_sync/pkg/database"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	repo, closeStore, err := openPartitionStore(context.Background(), cfg, log)
	if err != nil {
		log.Fatal("Failed to open partition store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer closeStore()

	mergeService := services.NewMergeService(repo, services.WithMergeLogger(log))

	rateLimiter, err := middleware.NewMemoryLimiter(cfg.RateLimit)
	if err != nil {
		log.Fatal("Invalid RATE_LIMIT", zap.String("rate", cfg.RateLimit), zap.Error(err))
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery)
	r.Use(middleware.StructuredLoggingMiddleware(log), gin.Recovery())

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Fatal("Failed to set trusted proxies", zap.Error(err))
	}

	handlers.RegisterRoutes(r, cfg, mergeService, rateLimiter)

	log.Info("Server starting",
		zap.String("port", cfg.Port),
		zap.String("store_driver", cfg.StoreDriver),
		zap.String("exec_url", cfg.ExecURL()),
	)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Server failed to run", zap.Error(err))
	}
}

// openPartitionStore builds the partition repository selected by STORE_DRIVER
// and returns a function releasing its connections.
func openPartitionStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (repositories.PartitionRepositoryFacade, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreRedis:
		repo, err := redisrepo.NewPartitionRepository(redisrepo.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, nil, err
		}
		log.Info("Redis partition store connected", zap.String("host", cfg.RedisHost), zap.Int("port", cfg.RedisPort))
		return repo, func() {
			if err := repo.Close(); err != nil {
				log.Error("Error closing redis client", zap.Error(err))
			}
		}, nil

	case config.StorePostgres:
		dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
		if err != nil {
			return nil, nil, err
		}
		log.Info("Database connection pool established.")
		if err := runMigrations(cfg, log); err != nil {
			dbPool.Close()
			return nil, nil, err
		}
		provider := pgsql.NewRepositoryProvider(dbPool)
		return provider.PartitionRepo, func() { database.ClosePgxPool(dbPool) }, nil

	default:
		log.Warn("Using in-memory partition store; data is lost on restart")
		return memory.NewPartitionRepository(), func() {}, nil
	}
}

// runMigrations applies every pending "up" migration to the Postgres store.
func runMigrations(cfg *config.Config, log *zap.Logger) error {
	log.Info("Running database migrations...", zap.String("path", cfg.MigrationsPath))

	// Open a temporary standard sql.DB connection for migrations
	migrationDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database connection for migrations: %w", err)
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			log.Error("Error closing migration DB connection", zap.Error(cerr))
		}
	}()
	if err := migrationDB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database for migrations: %w", err)
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create postgres driver instance for migrations: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(cfg.MigrationsPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	upErr := m.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", upErr)
	}

	// Check for dirty migrations after running Up.
	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		return fmt.Errorf("migration source error: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("migration database error: %w", dbErr)
	}

	if errors.Is(upErr, migrate.ErrNoChange) {
		log.Info("No new migrations to apply.")
	} else {
		log.Info("Database migrations applied successfully.")
	}
	return nil
}
