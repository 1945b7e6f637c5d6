package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"users-server/confs"
	"users-server/db"
	"users-server/logger"
	"users-server/repositories"
	"users-server/server"
	"users-server/session"
	"users-server/storage"

	"github.com/redis/go-redis/v9"
)

const shutdownTimeout = 15 * time.Second

// @title           Users Server API
// @version         1.0
// @description     User records for API-key clients plus a session-authenticated admin console.
// @BasePath        /

// @securityDefinitions.apikey APIKey
// @in header
// @name X-API-Key
// @description Shared secret for API clients

// @tag.name users
// @tag.description User records

// @tag.name admin
// @tag.description Admin console session

// @tag.name storage
// @tag.description File uploads
func main() {
	// load config
	cfg, err := confs.LoadConfig()
	if err != nil {
		logger.Init("users-server", false)
		logger.Fatal().Err(err).Msg("Error loading config")
	}
	logger.Init(cfg.ProjectName, cfg.Debug)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// connect to database
	database, err := db.Connect(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to DB")
	}
	defer database.Close()

	admins := repositories.NewAdminGormRepository(database, cfg.BcryptCost)
	if cfg.AdminSeedPath != "" {
		n, err := repositories.SeedAdmins(ctx, admins, cfg.AdminSeedPath)
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.AdminSeedPath).Msg("Failed to seed admins")
		}
		logger.Info().Int("created", n).Msg("Admin seed applied")
	}
	if ok, err := admins.HasAny(ctx); err == nil && !ok {
		logger.Warn().Msg("No admin accounts exist; run cmd/admin-setup to create one")
	}

	// sessions
	var sessions session.Store
	var redisClient *redis.Client
	switch cfg.SessionBackend {
	case confs.SessionBackendRedis:
		redisClient, err = session.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()
		sessions = session.NewRedisStore(redisClient)
		logger.Info().Str("addr", cfg.RedisAddr).Msg("Using Redis session store")
	default:
		sessions = session.NewMemoryStore()
		logger.Info().Msg("Using in-memory session store")
	}
	session.NewSweeper(sessions, cfg.SessionSweepInterval).Start(ctx)

	// file storage
	store := storage.NewLocalStorage(cfg.StorageDir)
	for _, c := range []struct {
		subdir string
		images bool
	}{{"file", false}, {"image", true}} {
		if _, err := store.EnsureContainer("users", c.subdir, c.images); err != nil {
			logger.Fatal().Err(err).Msg("Failed to register storage container")
		}
	}
	if err := store.Init(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize storage")
	}

	// run server
	srv := server.NewServer(cfg, database, sessions, store)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sig:
		logger.Info().Str("signal", s.String()).Msg("Shutdown requested")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("HTTP server stopped")
		}
	}

	cancel()
	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
	}
	logger.Info().Msg("Server stopped")
}
