package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"viewtube-server/internal/config"
	"viewtube-server/internal/db"
	"viewtube-server/internal/handler"
	applogger "viewtube-server/internal/logger"
	"viewtube-server/internal/repository"
	"viewtube-server/internal/service"
	"viewtube-server/internal/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger Setup ---
	logger, err := applogger.New(applogger.Config{
		Level:    cfg.LogLevel,
		Encoding: "json",
	})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	zap.ReplaceGlobals(logger)
	zap.L().Info("Logger initialized successfully", zap.String("logLevel", cfg.LogLevel))
	zap.L().Info("Configuration loaded")

	// --- External Connections ---
	database, err := setupMongo(cfg)
	if err != nil {
		zap.L().Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer disconnectCancel()
		if err := database.Client().Disconnect(disconnectCtx); err != nil {
			zap.L().Error("Error disconnecting from MongoDB", zap.Error(err))
		}
	}()
	zap.L().Info("Connected to MongoDB", zap.String("database", cfg.DBName))

	indexCtx, indexCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.EnsureIndexes(indexCtx, database); err != nil {
		indexCancel()
		zap.L().Fatal("Failed to ensure MongoDB indexes", zap.Error(err))
	}
	indexCancel()
	zap.L().Info("MongoDB indexes ensured")

	storeCtx, storeCancel := context.WithTimeout(context.Background(), 10*time.Second)
	mediaStore, err := storage.NewS3MediaStore(storeCtx, storage.S3Config{
		Endpoint:      cfg.S3Endpoint,
		Region:        cfg.S3Region,
		Bucket:        cfg.S3Bucket,
		AccessKey:     cfg.S3AccessKey,
		SecretKey:     cfg.S3SecretKey,
		PublicBaseURL: cfg.S3PublicBaseURL,
	}, logger.Named("S3MediaStore"))
	storeCancel()
	if err != nil {
		zap.L().Fatal("Failed to initialize media store", zap.Error(err))
	}
	zap.L().Info("Media store initialized", zap.String("bucket", cfg.S3Bucket))

	// --- Dependency Injection ---
	userRepo := repository.NewUserRepository(database, cfg.DBTimeout, logger.Named("UserRepo"))
	subRepo := repository.NewSubscriptionRepository(database, cfg.DBTimeout, logger.Named("SubscriptionRepo"))
	userSvc := service.NewUserService(userRepo, subRepo, mediaStore, cfg, logger.Named("UserService"))
	userHandler := handler.NewUserHandler(userSvc, cfg)

	// --- HTTP Server Setup (Gin) ---
	gin.SetMode(gin.ReleaseMode)
	if cfg.Env == "development" {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.RedirectTrailingSlash = true
	router.MaxMultipartMemory = cfg.MaxUploadSize
	router.Use(handler.RequestLogger(logger))
	router.Use(gin.Recovery())

	p := ginprometheus.NewPrometheus("gin")

	// Configure CORS Middleware
	corsConfig := cors.DefaultConfig()
	allowedOrigins := cfg.GetAllowedOrigins()
	if len(allowedOrigins) > 0 {
		corsConfig.AllowOrigins = allowedOrigins
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
		zap.L().Info("CORSAllowedOrigins not set, allowing default", zap.String("origin", "http://localhost:3000"))
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Health Check Endpoint
	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)

	// Register Application Routes
	userHandler.RegisterRoutes(router)

	p.Use(router)

	// --- Start HTTP Server ---
	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	zap.L().Info("Starting HTTP server", zap.String("port", cfg.ServerPort))

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("HTTP Server listen error", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("HTTP Server forced to shutdown", zap.Error(err))
	}

	zap.L().Info("Server exiting")
}

// setupMongo connects to MongoDB with retry logic.
func setupMongo(cfg *config.Config) (*mongo.Database, error) {
	var database *mongo.Database
	var lastErr error
	maxRetries := 50
	retryDelay := 3 * time.Second

	zap.L().Info("Attempting to connect to MongoDB", zap.Int("max_retries", maxRetries), zap.Duration("retry_delay", retryDelay))

	for i := 0; i < maxRetries; i++ {
		attempt := i + 1
		database, lastErr = db.OpenConnection(cfg.MongoURI, cfg.DBName)
		if lastErr == nil {
			zap.L().Info("Successfully connected and pinged MongoDB", zap.Int("attempt", attempt))
			return database, nil
		}

		zap.L().Warn("MongoDB connection failed, retrying...",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", maxRetries),
			zap.Error(lastErr),
		)
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}

	zap.L().Error("Failed to connect to MongoDB after all retries", zap.Int("attempts", maxRetries), zap.Error(lastErr))
	return nil, fmt.Errorf("failed to connect to mongodb after %d attempts: %w", maxRetries, lastErr)
}
