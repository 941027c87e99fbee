package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	echoapi "github.com/plutus-app/plutus/api/echo"
	rediscache "github.com/plutus-app/plutus/cache/redis"
	"github.com/plutus-app/plutus/config"
	"github.com/plutus-app/plutus/domain"
	"github.com/plutus-app/plutus/internal/identity"
	"github.com/plutus-app/plutus/internal/pointer"
	"github.com/plutus-app/plutus/log"
	"github.com/plutus-app/plutus/mongodb"
	"github.com/plutus-app/plutus/services"
	"github.com/plutus-app/plutus/tracing"
)

var (
	appLogger      log.Logger
	tracerProvider *sdktrace.TracerProvider
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootLogger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logLevel, parseErr := zerolog.ParseLevel(cfg.LogLevel)
	if parseErr != nil {
		logLevel = zerolog.InfoLevel
	}
	appLogger = log.NewZerologAdapter(logLevel, cfg.LogPretty)
	ctx := context.Background()
	appLogger.Info(ctx, "Starting plutus session service...", map[string]interface{}{
		"http_port":     cfg.HTTPPort,
		"mongo_db_name": cfg.MongoDBName,
		"log_level":     cfg.LogLevel,
	})

	tp, err := tracing.InitTracerProvider(cfg.OtelServiceName)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to initialize TracerProvider", err)
	}
	tracerProvider = tp

	if initErr := mongodb.InitMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName); initErr != nil {
		appLogger.Fatal(ctx, "Failed to initialize MongoDB connection", initErr)
	}
	db := mongodb.GetDB()

	sessionRepo, err := mongodb.NewSessionRepositoryMongo(ctx, db)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to initialize SessionRepository", err)
	}
	profileRepo := mongodb.NewProfileRepositoryMongo(db)

	var sessions domain.SessionRepository = sessionRepo
	if cfg.RedisAddr != "" {
		redisClient := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if pingErr := redisClient.Ping(ctx).Err(); pingErr != nil {
			appLogger.Warn(ctx, "Redis unreachable, session cache disabled", map[string]interface{}{
				"addr": cfg.RedisAddr, "error": pingErr.Error(),
			})
		} else {
			sessions = rediscache.NewSessionCache(sessionRepo, redisClient, "plutus",
				time.Duration(cfg.SessionCacheTTLSec)*time.Second)
			appLogger.Info(ctx, "Redis session cache enabled", nil)
		}
	}

	ptrStore, err := pointer.NewFileStore(cfg.PointerPath)
	if err != nil {
		appLogger.Fatal(ctx, "Failed to initialize session pointer store", err)
	}

	provider := identity.NewLocalProvider(identity.NewBcryptPasswordHasher(0))
	if cfg.BootstrapEmail != "" && cfg.BootstrapPassword != "" {
		if _, regErr := provider.Register(cfg.BootstrapEmail, cfg.BootstrapPassword, cfg.BootstrapName, ""); regErr != nil {
			appLogger.Warn(ctx, "Failed to register bootstrap account", map[string]interface{}{
				"email": cfg.BootstrapEmail, "error": regErr.Error(),
			})
		}
	}

	manager := services.NewSessionManager(sessions, ptrStore,
		time.Duration(cfg.HeartbeatIntervalMin)*time.Minute)
	publisher := services.NewAuthStatePublisher(provider, profileRepo, manager,
		"plutus-session-service/1.0", time.Duration(cfg.ProfileCacheTTLSec)*time.Second)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	api := echoapi.NewSessionAPI(publisher, profileRepo, provider, mongodb.Ping)
	api.RegisterRoutes(e)

	go func() {
		if serveErr := e.Start(":" + cfg.HTTPPort); serveErr != nil && serveErr != http.ErrServerClosed {
			appLogger.Fatal(ctx, "HTTP server failed", serveErr)
		}
	}()
	appLogger.Info(ctx, "HTTP server listening", map[string]interface{}{"port": cfg.HTTPPort})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info(ctx, "Shutting down...", nil)

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	publisher.Close()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(shutdownCtx, "HTTP server shutdown error", err)
	}
	mongodb.CloseMongoDB(shutdownCtx)
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		appLogger.Error(shutdownCtx, "TracerProvider shutdown error", err)
	}
	appLogger.Info(ctx, "Shutdown complete.", nil)
}
