package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Freeeeeet/lab_booking/internal/app"
	"github.com/Freeeeeet/lab_booking/internal/cache"
	"github.com/Freeeeeet/lab_booking/internal/clock"
	"github.com/Freeeeeet/lab_booking/internal/config"
	"github.com/Freeeeeet/lab_booking/internal/event"
	"github.com/Freeeeeet/lab_booking/internal/notify"
	"github.com/Freeeeeet/lab_booking/internal/repository/postgres"
	"github.com/Freeeeeet/lab_booking/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Часы привязаны к поясу учреждения — календарные правила считаются
	// по локальным датам
	clk, err := clock.NewSystemClock(cfg.Timezone)
	if err != nil {
		logger.Fatal("Failed to create clock", zap.Error(err))
	}

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, cfg.MigrationsPath, logger)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	migrator.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("Failed to connect to redis", zap.Error(err))
	}

	store := postgres.NewStore(pool)
	redisCache := cache.NewRedisCache(redisClient)

	// Порядок подписки важен: инвалидация кэша — до уведомлений
	bus := event.NewBus(logger)
	bus.Subscribe(cache.NewInvalidator(redisCache, logger))

	if cfg.TelegramToken != "" && cfg.NotifyChatID != "" {
		b, err := bot.New(cfg.TelegramToken)
		if err != nil {
			logger.Fatal("Failed to create telegram bot", zap.Error(err))
		}
		bus.Subscribe(notify.NewTelegramNotifier(b, cfg.NotifyChatID, logger))
		logger.Info("Telegram notifications enabled")
	}

	bookingService := service.NewBookingService(store, redisCache, clk, bus, logger, cfg.CacheTTL)
	draftService := service.NewDraftService(store, clk, bus, logger)

	// прогреваем агрегат и заодно проверяем связку хранилище+кэш
	pending, err := bookingService.PendingCount(ctx)
	if err != nil {
		logger.Warn("Failed to read pending count", zap.Error(err))
	} else {
		logger.Info("Pending bookings", zap.Int64("count", pending))
	}

	scheduler := app.NewScheduler(draftService, logger)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logger.Info("Lab booking core started",
		zap.String("environment", cfg.Environment),
		zap.String("timezone", cfg.Timezone),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
}
