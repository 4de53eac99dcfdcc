package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmbarbier/blueprint/internal/blueprints/apiv1"
	"github.com/jmbarbier/blueprint/internal/config"
	"github.com/jmbarbier/blueprint/internal/database"
	"github.com/jmbarbier/blueprint/internal/handlers"
	"github.com/jmbarbier/blueprint/internal/logging"
	"github.com/jmbarbier/blueprint/internal/middleware"
	"github.com/jmbarbier/blueprint/internal/models"
	"github.com/jmbarbier/blueprint/internal/scheduler"
	"github.com/jmbarbier/blueprint/internal/server"
	"github.com/jmbarbier/blueprint/internal/services"
)

func main() {
	configPath := flag.String("config", "", "path to a settings file (default: search config.yaml)")
	dev := flag.Bool("dev", false, "run the development server (debug mode)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *dev {
		cfg.Server.Mode = gin.DebugMode
	}

	// Initialize structured logger
	logger, err := logging.Setup(cfg)
	if err != nil {
		slog.Error("Failed to initialize logging", "error", err)
		os.Exit(1)
	}

	// Set Gin mode
	gin.SetMode(cfg.Server.Mode)

	// Initialize database connection
	db, err := database.New(cfg)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize Redis connection
	redis, err := database.NewRedis(cfg)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redis.Close()

	// Build the model registry from the database schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	modelList, err := database.LoadModels(ctx, db.Pool, cfg.Models.Exclude)
	cancel()
	if err != nil {
		slog.Error("Failed to introspect database schema", "error", err)
		os.Exit(1)
	}
	registry := models.NewRegistry(modelList)
	logger.Info("model registry loaded", "models", registry.Names())

	// Initialize services
	store := database.NewStore(db.Pool, registry)
	recordService := services.NewRecordService(store, logger)

	var authHandler *handlers.AuthHandler
	var requireAuth gin.HandlerFunc
	if cfg.Auth.Enabled {
		authService, err := services.NewAuthService(cfg.Auth, logger)
		if err != nil {
			slog.Error("Failed to initialize auth service", "error", err)
			os.Exit(1)
		}
		authHandler = handlers.NewAuthHandler(authService)
		requireAuth = middleware.NewAuthMiddleware(authService).RequireAuth()
	}

	rateLimiter := middleware.NewRateLimiter(redis.Client)

	// Application factory: build the server and mount the API blueprint
	srv := server.New(cfg, logger)

	healthHandler := handlers.NewHealthHandler(db, redis)
	metaHandler := handlers.NewMetaHandler(srv.Routes, cfg.Log.File)
	recordHandler := handlers.NewRecordHandler(recordService, redis)

	srv.Mount("/api/1.0", apiv1.New(
		healthHandler,
		metaHandler,
		recordHandler,
		authHandler,
		requireAuth,
		rateLimiter,
	))

	// Root health check
	srv.Engine().GET("/health", healthHandler.Health)

	// Background scheduler keeps the model registry in sync with DDL changes
	if cfg.Scheduler.Enabled {
		sched := scheduler.New(logger)
		err := sched.AddJob("schema_refresh", cfg.Scheduler.SchemaRefresh, func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			modelList, err := database.LoadModels(ctx, db.Pool, cfg.Models.Exclude)
			if err != nil {
				return err
			}
			registry.Replace(modelList)
			return nil
		})
		if err != nil {
			slog.Error("Failed to schedule schema refresh", "error", err)
			os.Exit(1)
		}
		sched.Start()
		defer sched.Stop()
	}

	// Create HTTP server
	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      srv.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Starting server", "addr", cfg.Addr(), "mode", cfg.Server.Mode)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited")
}
