package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MuthuAjay/contracts-v3/config"
	"github.com/MuthuAjay/contracts-v3/handler"
	"github.com/MuthuAjay/contracts-v3/middleware"
	"github.com/MuthuAjay/contracts-v3/pkg/logger"
	"github.com/MuthuAjay/contracts-v3/service"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	slog.Info("configuration loaded successfully")

	// Initialize services
	redisClient, err := service.NewRedisClient(context.Background(), cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		slog.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	sessions := service.NewSessionStore(redisClient)

	var storage *service.ObjectStorage
	if cfg.Minio.Enabled {
		storage, err = service.NewObjectStorage(&cfg.Minio)
		if err != nil {
			slog.Error("failed to initialize object storage", "error", err)
			os.Exit(1)
		}
		if err := storage.EnsureBucket(context.Background()); err != nil {
			slog.Error("failed to ensure storage bucket", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Info("object storage disabled, originals will not be retained")
	}

	gateway := service.NewAnalyzerGateway(&cfg.Analyzer)
	registry := service.NewRegistry(sessions, gateway, storage, cfg.Registry.MaxHistory)
	chat := service.NewChatService(sessions, gateway, registry, service.RetryPolicy{
		MaxRetries: cfg.Chat.MaxRetries,
		BaseDelay:  time.Duration(cfg.Chat.BaseDelayMilli) * time.Millisecond,
	})

	// Initialize handlers
	authHandler := handler.NewAuthHandler(cfg)
	contractHandler := handler.NewContractHandler(registry)
	viewHandler := handler.NewViewHandler(sessions)
	chatHandler := handler.NewChatHandler(chat)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New() // Use New() instead of Default() to avoid default middleware

	// Add custom middleware
	router.Use(middleware.RequestID())                 // Request ID for tracing
	router.Use(middleware.Recovery())                  // Panic recovery
	router.Use(middleware.RequestLogger())             // Access logging
	router.Use(corsMiddleware())                       // CORS
	router.Use(middleware.RateLimit(100, time.Minute)) // Rate limiting: 100 requests per minute

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	// Public routes
	api := router.Group("/api")
	{
		api.POST("/auth/login", authHandler.Login)
	}

	// Protected routes
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(&cfg.Auth))
	{
		protected.GET("/auth/me", authHandler.GetCurrentUser)

		protected.POST("/contracts/upload", contractHandler.Upload)
		protected.GET("/contracts", contractHandler.List)
		protected.GET("/contracts/:fileName", contractHandler.Get)
		protected.DELETE("/contracts/:fileName", contractHandler.Delete)
		protected.GET("/contracts/:fileName/original", contractHandler.Original)
		protected.POST("/contracts/:fileName/analyze", contractHandler.Analyze)
		protected.GET("/contracts/:fileName/history", contractHandler.History)
		protected.POST("/contracts/:fileName/history/:index/view", contractHandler.ViewHistoryEntry)

		protected.GET("/views/review", viewHandler.Review)
		protected.GET("/views/review/mode", viewHandler.GetReviewMode)
		protected.PUT("/views/review/mode", viewHandler.SetReviewMode)
		protected.GET("/views/research", viewHandler.Research)
		protected.GET("/views/risk", viewHandler.Risk)
		protected.GET("/views/extraction", viewHandler.Extraction)

		protected.GET("/chat/messages", chatHandler.Messages)
		protected.POST("/chat/messages", chatHandler.Send)
		protected.DELETE("/chat/messages", chatHandler.Clear)
		protected.PUT("/chat/contract", chatHandler.SelectContract)
		protected.POST("/chat/leave", chatHandler.Leave)
	}

	// Create server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	if err := redisClient.Close(); err != nil {
		slog.Warn("failed to close redis client", "error", err)
	}

	slog.Info("server exited gracefully")
}

// corsMiddleware handles CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
