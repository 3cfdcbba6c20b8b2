package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/hichoni/challenge-service/internal/config"
	"github.com/hichoni/challenge-service/internal/events"
	"github.com/hichoni/challenge-service/internal/handlers"
	"github.com/hichoni/challenge-service/internal/repositories/postgres"
	"github.com/hichoni/challenge-service/internal/services"
	"github.com/hichoni/challenge-service/internal/storage"
	"github.com/hichoni/challenge-service/internal/utils"
	"github.com/hichoni/challenge-service/internal/validator"
	"github.com/hichoni/challenge-service/pkg"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	logger := utils.NewSlogLogger(slogLogger)

	// Initialize database
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize Redis (if configured)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			log.Printf("Warning: Failed to initialize Redis: %v", err)
		}
	}

	// Initialize repositories
	repoManager := postgres.NewRepositoryManager(postgres.RepositoryConfig{
		DB:          db,
		RedisClient: redisClient,
	})
	if err := repoManager.Initialize(); err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}
	repo := repoManager.GetRepository()

	// Initialize validator
	validator := validator.New()

	// Event publisher: Kafka when brokers are configured, in-memory otherwise
	var eventPublisher events.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		eventPublisher, err = events.NewKafkaEventPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, slogLogger)
		if err != nil {
			log.Fatalf("Failed to initialize Kafka publisher: %v", err)
		}
	} else {
		slogLogger.Warn("Kafka brokers not configured, events stay in memory")
		eventPublisher = events.NewMockEventPublisher(slogLogger)
	}

	// Media storage: Supabase when configured, otherwise uploads are rejected
	var mediaStore storage.MediaStore
	if cfg.Supabase.URL != "" && cfg.Supabase.Key != "" {
		mediaStore = storage.NewSupabaseMediaStore(cfg.Supabase, slogLogger)
	} else {
		slogLogger.Warn("Supabase not configured, media uploads disabled")
		mediaStore = storage.NewNoopMediaStore(slogLogger)
	}

	jwtManager := utils.NewJWTManager(cfg.JWTSecret, cfg.JWTDuration)

	// Initialize services
	serviceManager := services.NewServiceManager(services.ServiceManagerDeps{
		DB:             db,
		Repo:           repo,
		Logger:         slogLogger,
		Validator:      validator,
		EventPublisher: eventPublisher,
		MediaStore:     mediaStore,
		CacheManager:   postgres.SharedCacheManager(repo),
		JWTManager:     jwtManager,
		Config:         cfg,
	})
	if err := serviceManager.Initialize(context.Background()); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	// Initialize handlers
	handlerManager := handlers.NewHandlerManager(serviceManager, mediaStore, jwtManager, logger)

	// Setup Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Setup middleware
	handlers.SetupMiddleware(router, logger)

	// Setup routes
	handlerManager.SetupRoutes(router)

	// Create HTTP server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	// Shutdown services (closes publisher and repository connections)
	if err := serviceManager.Shutdown(ctx); err != nil {
		log.Printf("Failed to shutdown services: %v", err)
	}

	logger.Info("Server exited")
}
