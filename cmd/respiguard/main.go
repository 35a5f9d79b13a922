package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"respiguard/common/database"
	"respiguard/common/logger"
	commonmqtt "respiguard/common/mqtt"
	commonredis "respiguard/common/redis"
	"respiguard/internal/assistant"
	"respiguard/internal/config"
	"respiguard/internal/consumer"
	"respiguard/internal/environment"
	httpapi "respiguard/internal/http"
	"respiguard/internal/repository"
	"respiguard/internal/service"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	lg, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "respiguard")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer lg.Sync()

	lg.Info("Starting respiguard service",
		zap.String("http_addr", cfg.HTTP.Addr),
		zap.Bool("db_enabled", cfg.DBEnabled),
		zap.Bool("mqtt_enabled", cfg.MQTTEnabled),
		zap.String("sleep_scheme", cfg.Scoring.DefaultScheme),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var deps service.Deps

	// 可选 DB：未启用或连接失败时评分接口仍可用，历史/目标返回 503
	var db *sql.DB
	if cfg.DBEnabled {
		if d, err := database.NewPostgresDB(&cfg.Database); err == nil {
			db = d
			lg.Info("DB enabled for respiguard")
		} else {
			lg.Warn("DB enabled but connection failed, running without storage", zap.Error(err))
		}
	}
	if db != nil {
		deps.Symptoms = repository.NewSymptomLogRepository(db, lg)
		deps.Scores = repository.NewScoreRepository(db, lg)
		deps.Goals = repository.NewGoalRepository(db, lg)
	}

	// Redis：最新评分缓存 + 评分事件流
	redisClient := commonredis.NewRedisClient(&cfg.Redis)
	redisReady := commonredis.Ping(ctx, redisClient) == nil
	if redisReady {
		deps.Cache = consumer.NewCacheManager(cfg, consumer.NewRedisKVStore(redisClient), lg)
		deps.Events = service.NewStreamPublisher(redisClient, cfg.Stream.Scores)
	} else {
		lg.Warn("Redis unavailable, score cache and events disabled", zap.String("addr", cfg.Redis.Addr))
	}

	deps.Environment = environment.NewClient(cfg.Environment.BaseURL, cfg.Environment.Timeout, lg)
	deps.Assistant = assistant.NewClient(cfg.Assistant.BaseURL, cfg.Assistant.Model, cfg.Assistant.APIKey, cfg.Assistant.Timeout, lg)

	var mqttClient *commonmqtt.Client
	if cfg.MQTTEnabled {
		if c, err := commonmqtt.NewClient(&cfg.MQTT, lg); err == nil {
			mqttClient = c
			deps.Alerts = c
		} else {
			lg.Warn("MQTT enabled but connection failed, alerts and night ingestion disabled", zap.Error(err))
		}
	}

	svc := service.NewHealthService(cfg, deps, lg)

	var nights *consumer.NightConsumer
	if mqttClient != nil {
		nights = consumer.NewNightConsumer(cfg, mqttClient, svc, lg)
		if err := nights.Start(ctx); err != nil {
			lg.Error("Failed to start night consumer", zap.Error(err))
			nights = nil
		}

		if redisReady {
			scores := consumer.NewScoreEventConsumer(cfg, redisClient, mqttClient, lg)
			go func() {
				if err := scores.Start(ctx); err != nil {
					lg.Error("Score event consumer stopped", zap.Error(err))
				}
			}()
		}
	}

	handler := httpapi.NewHealthHandler(svc, lg)
	if mqttClient != nil {
		handler.SetMQTT(mqttClient)
	}
	router := httpapi.NewRouter(lg)
	router.RegisterHealthRoutes(handler)

	srv := service.NewServer(cfg.HTTP.Addr, router, lg)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		lg.Info("Received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error("HTTP server failed", zap.Error(err))
		}
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		lg.Error("Error during shutdown", zap.Error(err))
	}
	if nights != nil {
		_ = nights.Stop()
	}
	if mqttClient != nil {
		mqttClient.Disconnect()
	}
	_ = commonredis.Close(redisClient)
	if db != nil {
		_ = database.Close(db)
	}

	lg.Info("Service stopped")
}
