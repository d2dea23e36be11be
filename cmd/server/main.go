package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"retail-dashboard/config"
	"retail-dashboard/internal/api"
	"retail-dashboard/internal/broker"
	"retail-dashboard/internal/redisclient"
	"retail-dashboard/internal/service"
	"retail-dashboard/internal/store"
	"retail-dashboard/internal/util"
	"retail-dashboard/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting retail dashboard")

	tp, err := util.InitTracer(cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	dsn, err := cfg.Database.DSN()
	if err != nil {
		logger.Fatal("Failed to read database credentials",
			zap.String("credentials_file", cfg.Database.CredentialsFile),
			zap.Error(err),
		)
	}

	db, err := store.NewStore(cfg.Database.Driver, dsn)
	if err != nil {
		if store.IsAuthError(err) {
			logger.Fatal("Database rejected the configured credentials", zap.Error(err))
		}
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	// nil disables caching and publishing; keep typed nils out of the interfaces
	var cache service.DashboardCache
	if cfg.Redis.Enabled {
		redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		cache = redisClient
		logger.Info("Redis connected", zap.String("addr", cfg.Redis.Addr))
	}

	var publisher service.EventPublisher
	if cfg.Kafka.Enabled {
		producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicDashboard)
		defer producer.Close()
		publisher = broker.NewEventPublisher(producer)
		logger.Info("Kafka producer initialized", zap.String("topic", cfg.Kafka.TopicDashboard))
	}

	dashboardService := service.NewDashboardService(db, cache, publisher, cfg.Redis.CacheTTL, cfg.Dashboard.TopN)

	ctx := context.Background()
	if err := dashboardService.Warmup(ctx); err != nil {
		logger.Fatal("Failed to compute initial dashboard", zap.Error(err))
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var refreshWorker *worker.RefreshWorker
	if cfg.Kafka.Enabled {
		consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicDataEvents, cfg.Kafka.ConsumerGroup)
		refreshWorker = worker.NewRefreshWorker(consumer, dashboardService)
		go func() {
			if err := refreshWorker.Start(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Refresh worker error", zap.Error(err))
			}
		}()
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(dashboardService)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if refreshWorker != nil {
		_ = refreshWorker.Stop()
	}

	logger.Info("Server exited")
}
