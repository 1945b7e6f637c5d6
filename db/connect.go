package db

import (
	"fmt"
	"time"

	"users-server/confs"
	"users-server/entities"
	"users-server/logger"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// PoolOptions sizes the connection pool behind gorm.
type PoolOptions struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Echo            bool
}

// Connect opens the configured backend, sizes the pool and migrates the
// schema.
func Connect(cfg *confs.Config) (Database, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}

	var dialector gorm.Dialector
	switch cfg.DBBackend {
	case confs.BackendPostgres:
		dialector = postgres.Open(dsn)
	case confs.BackendSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported DB_BACKEND: %s", cfg.DBBackend)
	}

	logger.Info().Str("backend", cfg.DBBackend).Msg("Connecting to database...")

	return Open(dialector, PoolOptions{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
		Echo:         cfg.DBEcho,
	})
}

// Open is Connect for an explicit dialector. Tests use it with SQLite.
func Open(dialector gorm.Dialector, opts PoolOptions) (Database, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Gorm(opts.Echo),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)

	logger.Info().
		Int("max_open_conns", opts.MaxOpenConns).
		Int("max_idle_conns", opts.MaxIdleConns).
		Msg("Database connection established")

	if err := Migrate(db); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	return &GormDatabase{DB: db}, nil
}

// Migrate creates or updates the users and admins tables.
func Migrate(db *gorm.DB) error {
	logger.Info().Msg("Running database migrations...")
	if err := db.AutoMigrate(&entities.User{}, &entities.AdminAccount{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	logger.Info().Msg("Database migrations completed")
	return nil
}
