package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/AnshRaj112/vikas-backend/internal/config"
	"github.com/AnshRaj112/vikas-backend/internal/database"
	"github.com/AnshRaj112/vikas-backend/internal/routes"
	"github.com/AnshRaj112/vikas-backend/internal/services"
)

func setupLogger(env string) *zap.Logger {
	var logger *zap.Logger
	if env == "development" {
		logger, _ = zap.NewDevelopment()
	} else {
		logger, _ = zap.NewProduction()
	}
	return logger
}

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config: " + err.Error())
	}

	logger := setupLogger(cfg.Environment)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Student directory
	var students services.StudentStore
	var mongoClient *mongo.Client
	switch cfg.StudentStore {
	case "mongo":
		logger.Info("connecting to MongoDB", zap.String("uri", cfg.MaskedMongoURI()), zap.String("db", cfg.MongoDB))
		client, db, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			logger.Fatal("failed to connect to MongoDB", zap.Error(err))
		}
		mongoClient = client
		store := services.NewMongoStudentStore(db)
		if err := store.EnsureStudentIndexes(ctx); err != nil {
			logger.Fatal("failed to ensure student indexes", zap.Error(err))
		}
		students = store
		logger.Info("✅ Connected to MongoDB")
	default:
		logger.Warn("using in-memory student store, records are lost on restart")
		students = services.NewMemoryStudentStore()
	}
	defer database.DisconnectMongo(mongoClient)

	// Redis backs the progress store and the shared rate limit when configured
	var redisClient *redis.Client
	if cfg.RedisURI != "" {
		redisClient, err = database.ConnectRedis(ctx, cfg.RedisURI)
		if err != nil {
			logger.Fatal("failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		logger.Info("✅ Connected to Redis")
	}

	// Progress store
	var backend services.ProgressBackend
	var pg *sql.DB
	switch cfg.ProgressBackend {
	case "redis":
		backend = services.NewRedisProgressBackend(redisClient)
	case "postgres":
		pg, err = database.ConnectPostgres(ctx, cfg.PostgresURI)
		if err != nil {
			logger.Fatal("failed to connect to PostgreSQL", zap.Error(err))
		}
		defer pg.Close()
		backend = services.NewPostgresProgressBackend(pg)
		logger.Info("✅ Connected to PostgreSQL")
	default:
		backend = services.NewMemoryProgressBackend()
	}
	progress := services.NewProgressStore(backend, cfg.DefaultAvatar, logger.Named("progress"))
	if redisClient != nil && cfg.ProgressBackend == "postgres" {
		progress.WithCache(services.NewCacheService(redisClient, services.DefaultCacheTTL))
	}
	logger.Info("progress store ready", zap.String("backend", cfg.ProgressBackend))

	// Chat relay
	var providers []services.ChatProvider
	if cfg.OpenAIAPIKey != "" {
		providers = append(providers, services.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.ChatSystemPrompt))
	}
	if cfg.GeminiAPIKey != "" {
		gemini, err := services.NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiBaseURL, cfg.GeminiModel)
		if err != nil {
			logger.Fatal("failed to initialize Gemini client", zap.Error(err))
		}
		providers = append(providers, gemini)
	}
	relay := services.NewRelay(logger.Named("relay"), cfg.AIProvider, providers...)
	if !relay.Has("") {
		logger.Warn("default AI provider has no API key, chat routes will answer 503", zap.String("provider", cfg.AIProvider))
	}

	// Avatar uploads
	var uploader services.AvatarUploader
	if cfg.CloudinaryEnabled() {
		cld, err := services.NewCloudinaryService(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.AvatarFolder)
		if err != nil {
			logger.Warn("failed to initialize Cloudinary, avatar uploads disabled", zap.Error(err))
		} else {
			uploader = cld
			logger.Info("✅ Cloudinary service initialized")
		}
	} else {
		logger.Info("Cloudinary credentials not found, avatar uploads disabled")
	}

	tokens := services.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	router := routes.NewRouter(routes.Deps{
		Config:   cfg,
		Log:      logger,
		Students: students,
		Auth:     services.NewAuthService(students, tokens, logger.Named("auth")),
		Tokens:   tokens,
		Progress: progress,
		Quiz:     services.NewQuizService(students, progress, logger.Named("quiz")),
		Relay:    relay,
		Uploader: uploader,
		Redis:    redisClient,
	})

	// No write timeout: chat streams stay open for the length of a reply.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("🚀 vikas backend running", zap.String("addr", srv.Addr), zap.String("env", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
