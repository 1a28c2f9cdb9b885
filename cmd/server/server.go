package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"babel-bridge/internal/config"
	"babel-bridge/internal/domain/catalog"
	"babel-bridge/internal/domain/conversation"
	"babel-bridge/internal/domain/room"
	"babel-bridge/internal/domain/user"
	"babel-bridge/internal/infrastructure/auth"
	"babel-bridge/internal/infrastructure/cache"
	"babel-bridge/internal/infrastructure/database"
	"babel-bridge/internal/infrastructure/dialogue"
	"babel-bridge/internal/infrastructure/logger"
	"babel-bridge/internal/infrastructure/metrics"
	"babel-bridge/internal/infrastructure/observability"
	convrepo "babel-bridge/internal/infrastructure/repository/conversation"
	roomrepo "babel-bridge/internal/infrastructure/repository/room"
	userrepo "babel-bridge/internal/infrastructure/repository/user"
	"babel-bridge/internal/interfaces/httpserver"
)

// @title Babel Bridge API
// @version 1.0
// @description Multiplayer conversation practice sessions
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
type Application struct {
	httpServer *httpserver.HttpServer
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		log:        log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	return a.httpServer.Run(ctx)
}

type lockProvider interface {
	room.Locker
	HealthCheck(ctx context.Context) error
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	db, err := database.Connect(database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}

	if err := database.AutoMigrate(ctx, db, log); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	locker, closeLocker, err := newLocker(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize room locks")
	}
	defer closeLocker()

	authValidator, err := auth.NewValidator(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize auth validator")
	}
	defer authValidator.Close()

	cat, err := catalog.Default()
	if err != nil {
		log.Fatal().Err(err).Msg("load catalog")
	}

	userService := user.NewService(userrepo.NewPostgresRepository(db), authValidator, 0, log)
	roomService := room.NewService(roomrepo.NewPostgresRepository(db), locker, cat, log)
	conversationService := conversation.NewService(
		convrepo.NewPostgresRepository(db),
		roomService,
		locker,
		dialogue.NewClient(cfg, cat, log),
		cat,
		metrics.ConversationRecorder{},
		conversation.Config{
			TurnsPerConversation: cfg.TurnsPerConversation,
			SubmitMaxAttempts:    cfg.SubmitMaxAttempts,
		},
		log,
	)

	httpServer := httpserver.New(cfg, log, httpserver.Services{
		Users:         userService,
		Rooms:         roomService,
		Conversations: conversationService,
		Catalog:       cat,
	}, authValidator, readinessChecks(db, locker))
	app := NewApplication(httpServer, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

// newLocker picks Redis-backed room locks when REDIS_URL is set and
// in-process locks otherwise.
func newLocker(ctx context.Context, cfg *config.Config, log zerolog.Logger) (lockProvider, func(), error) {
	if cfg.RedisURL == "" {
		log.Warn().Msg("REDIS_URL not set, room locks are local to this instance")
		return cache.NewLocalLocker(), func() {}, nil
	}
	locker, err := cache.NewRedisLocker(ctx, cfg.RedisURL, cfg.RoomLockTTL, log)
	if err != nil {
		return nil, nil, err
	}
	return locker, func() {
		if err := locker.Close(); err != nil {
			log.Error().Err(err).Msg("close redis")
		}
	}, nil
}

func readinessChecks(db *gorm.DB, locker lockProvider) map[string]httpserver.ReadinessCheck {
	return map[string]httpserver.ReadinessCheck{
		"database": func(ctx context.Context) error {
			return database.Ping(ctx, db)
		},
		"locks": locker.HealthCheck,
	}
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
