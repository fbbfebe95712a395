package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"auth-portal/internal/config"
	"auth-portal/internal/db"
	apihttp "auth-portal/internal/http"
	"auth-portal/internal/repository"
	"auth-portal/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Ping(ctx, pool); err != nil {
		logger.Fatal("db ping", zap.Error(err))
	}

	userRepo := repository.NewPgUserRepository(pool)
	permRepo := repository.NewPgPermissionRepository(pool)
	sessionRepo := repository.NewPgSessionRepository(pool)

	loginWindow := time.Duration(cfg.LoginRateWindowSeconds) * time.Second
	limiter := service.NewLoginRateLimiter(loginWindow, cfg.LoginRateMax)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-memory login limiter", zap.Error(err))
		} else {
			limiter = service.NewRedisLoginRateLimiter(redisClient, loginWindow, cfg.LoginRateMax)
		}
		cancel()
	}

	hasher := service.NewPasswordHasher(cfg.BcryptCost)
	sessionSvc := service.NewSessionService(logger, sessionRepo, userRepo, time.Duration(cfg.SessionTTLHours)*time.Hour)
	authSvc := service.NewAuthService(logger, userRepo, permRepo, sessionSvc, hasher, limiter)

	sweeper := service.NewSessionSweeper(logger, sessionSvc, time.Duration(cfg.SessionCleanupMinutes)*time.Minute)
	go sweeper.Run(ctx)

	authHandler := apihttp.NewAuthHandler(logger, authSvc)
	permHandler := apihttp.NewPermissionHandler(logger, permRepo)
	userHandler := apihttp.NewUserHandler(logger, userRepo, hasher, sessionSvc)
	router := apihttp.NewRouter(logger, sessionSvc, authHandler, permHandler, userHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server error", zap.Error(err))
	}
}
