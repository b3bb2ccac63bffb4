package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/studymate/study-service/internal/cache"
	"github.com/studymate/study-service/internal/config"
	"github.com/studymate/study-service/internal/handlers"
	"github.com/studymate/study-service/internal/llm"
	"github.com/studymate/study-service/internal/models"
	"github.com/studymate/study-service/internal/services"
	"github.com/studymate/study-service/internal/utils"
	"github.com/studymate/study-service/internal/validator"
	"github.com/studymate/study-service/internal/vectorstore"
	"github.com/studymate/study-service/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slogLogger := newSlogLogger(cfg.Environment)
	logger := utils.NewSlogLogger(slogLogger)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.LogError(err, "Failed to connect to database")
		os.Exit(1)
	}
	if err := db.AutoMigrate(&models.ChatHistory{}); err != nil {
		logger.LogError(err, "Failed to run database migrations")
		os.Exit(1)
	}

	var cacheService cache.CacheService = cache.NoopCache{}
	if redisClient, err := pkg.NewRedisClient(cfg); err != nil {
		logger.Warn("Redis unavailable, metadata caching disabled", "error", err)
	} else {
		cacheService = cache.NewRedisCache(redisClient, logger)
		defer redisClient.Close()
	}

	vectorClient, err := vectorstore.NewClient(vectorstore.Config{
		URL:       cfg.QdrantURL,
		APIKey:    cfg.QdrantAPIKey,
		VectorDim: cfg.EmbeddingDim,
	}, logger)
	if err != nil {
		logger.LogError(err, "Failed to create vector store client")
		os.Exit(1)
	}
	pool := vectorstore.NewPool(vectorClient)

	provider, err := llm.NewOpenAIProvider(llm.OpenAIConfig{
		APIKey:         cfg.OpenAIAPIKey,
		BaseURL:        cfg.OpenAIBaseURL,
		Model:          cfg.ChatModel,
		EmbeddingModel: cfg.EmbeddingModel,
		EmbeddingDim:   cfg.EmbeddingDim,
		Timeout:        cfg.LLMTimeout,
	})
	if err != nil {
		logger.LogError(err, "Failed to create LLM provider")
		os.Exit(1)
	}

	publisher, err := cfg.Events.CreateEventPublisher(slogLogger)
	if err != nil {
		logger.LogError(err, "Failed to create event publisher")
		os.Exit(1)
	}
	defer publisher.Close()

	serviceManager := services.NewServiceManager(provider, provider, pool, db, cacheService, publisher, logger)
	handlerManager := handlers.NewHandlerManager(serviceManager, validator.New(), logger)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(logger))
	router.Use(cors.Default())
	handlerManager.SetupRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.LogError(err, "Server failed")
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.LogError(err, "Forced shutdown")
	}
}

func newSlogLogger(environment string) *slog.Logger {
	if environment == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
