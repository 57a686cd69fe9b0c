package main

import (
	"context"

	"campusgreen/internal/adapter/api"
	"campusgreen/internal/adapter/client"
	"campusgreen/internal/adapter/store"
	"campusgreen/internal/config"
	"campusgreen/internal/domain/repository"
	"campusgreen/internal/metrics"
	"campusgreen/internal/usecase"

	"github.com/apex/log"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.Warnf("unknown LOG_LEVEL %q, keeping info", cfg.LogLevel)
	}
	ctx := context.Background()

	gemini, err := client.NewGeminiClient(ctx, cfg.Gemini)
	if err != nil {
		log.Fatalf("failed to init genai client: %v", err)
	}

	// Busy flags for in-flight calls; Redis when shared across replicas.
	var inFlight repository.InFlightGuard
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		inFlight = store.NewRedisInFlight(rdb, cfg.Redis.InFlightTTL)
	} else {
		log.Warn("REDIS_ADDR not set, using in-process in-flight guard")
		inFlight = store.NewMemoryInFlight(cfg.Redis.InFlightTTL)
	}

	metrics.Register()
	advisor := usecase.NewAdvisor(gemini)

	app := fiber.New(fiber.Config{
		AppName:   "CampusGreen Advice Gateway",
		BodyLimit: cfg.Server.BodyLimit,
	})

	handler := api.NewAdviceHandler(advisor, inFlight)
	api.SetupRouter(app, handler, cfg.Server)

	log.WithFields(log.Fields{
		"port":    cfg.Server.Port,
		"model":   gemini.Model(),
		"version": cfg.Server.AppVersion,
	}).Info("CampusGreen advice gateway starting")
	log.Fatalf("server stopped: %v", app.Listen(":"+cfg.Server.Port))
}
