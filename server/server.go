package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"users-server/admin"
	"users-server/auth"
	"users-server/confs"
	"users-server/db"
	_ "users-server/docs"
	"users-server/handlers"
	httpHandler "users-server/handlers/http"
	"users-server/logger"
	"users-server/repositories"
	"users-server/session"
	"users-server/storage"
	"users-server/usecases"
	"users-server/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type Server struct {
	app  *gin.Engine
	http *http.Server
	cfg  *confs.Config
	db   db.Database
	hub  *ws.Hub
}

// NewServer wires repositories, use cases and handlers onto a fresh engine.
// store must already be initialised.
func NewServer(cfg *confs.Config, database db.Database, sessions session.Store, store *storage.LocalStorage) *Server {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	s := &Server{
		app: gin.New(),
		cfg: cfg,
		db:  database,
		hub: ws.NewHub(),
	}
	s.setupRoutes(sessions, store)
	s.http = &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.app,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	return s.app
}

func (s *Server) setupRoutes(sessions session.Store, store *storage.LocalStorage) {
	corsConfig := cors.DefaultConfig()
	if len(s.cfg.CORSAllowedOrigins) == 0 || s.cfg.CORSAllowedOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = s.cfg.CORSAllowedOrigins
		corsConfig.AllowCredentials = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", httpHandler.APIKeyHeader, httpHandler.RequestIDHeader}

	s.app.Use(
		httpHandler.Recovery(),
		httpHandler.RequestID(),
		httpHandler.AccessLog(),
		cors.New(corsConfig),
		httpHandler.ErrorHandler(),
	)

	s.app.GET("/health", s.health)
	s.app.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.app.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	s.app.GET("/openapi.json", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/docs/doc.json")
	})

	s.app.Static(s.cfg.StorageURL, s.cfg.StorageDir)
	if fi, err := os.Stat(s.cfg.StaticDir); err == nil && fi.IsDir() {
		s.app.Static(s.cfg.StaticURL, s.cfg.StaticDir)
	}

	// Repositories
	userRepo := repositories.NewUserGormRepository(s.db)
	adminRepo := repositories.NewAdminGormRepository(s.db, s.cfg.BcryptCost)

	// Use cases
	userUseCase := usecases.NewUserUseCase(userRepo, s.hub)
	adminUseCase := usecases.NewAdminUseCase(adminRepo, s.hub)

	// Auth
	provider := auth.NewProvider(adminRepo, sessions, auth.NewCookieCodec(s.cfg.SecretKey), auth.Options{
		MaxAge:         s.cfg.SessionMaxAge,
		RememberMaxAge: s.cfg.SessionRememberMaxAge,
	})
	cookie := auth.CookieOptions{Path: s.cfg.AdminPrefix, Secure: s.cfg.SessionCookieSecure}

	// Handlers
	userHandler := httpHandler.NewUserHandler(userUseCase)
	uploadHandler := httpHandler.NewUploadHandler(store, s.cfg.BaseURL, s.cfg.StorageURL)
	loginHandler := httpHandler.NewLoginHandler(provider, cookie, s.cfg.AdminSiteName)
	consoleHandler := httpHandler.NewConsoleHandler(admin.NewRegistry(s.cfg.AdminPrefix, userUseCase, adminUseCase), adminUseCase, store)
	wsHandler := handlers.NewWSHandler(s.hub, s.cfg.CORSAllowedOrigins)

	// API-key clients
	api := s.app.Group("/api", httpHandler.APIKey(s.cfg.APIKey))
	{
		users := api.Group("/user")
		{
			users.POST("", userHandler.CreateUser)
			users.GET("", userHandler.GetAllUsers)
			users.GET("/:id", userHandler.GetUser)
		}
		api.POST("/uploads/:container", uploadHandler.Upload)
	}

	// Admin console
	console := s.app.Group(s.cfg.AdminPrefix, provider.Middleware(cookie))
	{
		console.POST("/login", loginHandler.Login)
		console.POST("/logout", loginHandler.Logout)
		console.GET("/me", loginHandler.Me)
		console.GET("/ws", auth.RequireAdmin(), wsHandler.HandleConsoleWS)

		capi := console.Group("/api", auth.RequireAdmin())
		{
			capi.GET("/views", consoleHandler.Views)
			capi.GET("/views/:view", consoleHandler.List)
			capi.POST("/views/:view", consoleHandler.Create)
			capi.GET("/views/:view/:id", consoleHandler.Get)
			capi.PATCH("/views/:view/:id", consoleHandler.Update)
			capi.DELETE("/views/:view/:id", consoleHandler.Delete)
			capi.GET("/views/:view/:id/actions", consoleHandler.Actions)
			capi.POST("/views/:view/:id/actions/:action", consoleHandler.RunAction)

			capi.POST("/admins/:id/activate", consoleHandler.Activate)
			capi.POST("/admins/:id/deactivate", consoleHandler.Deactivate)

			capi.GET("/storage", consoleHandler.StorageInfo)
			capi.GET("/connections", wsHandler.Connections)
		}
	}
}

// health godoc
// @Summary  Liveness and database reachability
// @Tags     ops
// @Produce  json
// @Success  200  {object}  map[string]string
// @Failure  503  {object}  map[string]string
// @Router   /health [get]
func (s *Server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status, code := "OK", http.StatusOK
	sqlDB, err := s.db.GetDB().DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		logger.Warn().Err(err).Msg("Health check: database unreachable")
		status, code = "DEGRADED", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": status})
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	logger.Info().Str("addr", s.http.Addr).Msg("HTTP server starting")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info().Msg("HTTP server shutting down")
	return s.http.Shutdown(ctx)
}
