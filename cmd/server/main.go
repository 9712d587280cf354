package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/omnipos-stock-service/config"
	"github.com/fekuna/omnipos-stock-service/internal/auth"
	"github.com/fekuna/omnipos-stock-service/internal/forecast"
	"github.com/fekuna/omnipos-stock-service/internal/health"
	"github.com/fekuna/omnipos-stock-service/internal/monitor"
	"github.com/fekuna/omnipos-stock-service/internal/scheduler"
	"github.com/fekuna/omnipos-stock-service/pkg/broker"
	"github.com/fekuna/omnipos-stock-service/pkg/cache"
	"github.com/fekuna/omnipos-stock-service/pkg/database/postgres"
	"github.com/fekuna/omnipos-stock-service/pkg/logger"
	"github.com/fekuna/omnipos-stock-service/pkg/middleware"

	itemH "github.com/fekuna/omnipos-stock-service/internal/item/handler"
	itemListenerPkg "github.com/fekuna/omnipos-stock-service/internal/item/listener"
	itemRepoPkg "github.com/fekuna/omnipos-stock-service/internal/item/repository"
	itemUCPkg "github.com/fekuna/omnipos-stock-service/internal/item/usecase"

	monitorH "github.com/fekuna/omnipos-stock-service/internal/monitor/handler"

	notifH "github.com/fekuna/omnipos-stock-service/internal/notification/handler"
	notifRepoPkg "github.com/fekuna/omnipos-stock-service/internal/notification/repository"
	notifUCPkg "github.com/fekuna/omnipos-stock-service/internal/notification/usecase"

	storeH "github.com/fekuna/omnipos-stock-service/internal/store/handler"
	storeRepoPkg "github.com/fekuna/omnipos-stock-service/internal/store/repository"
	storeUCPkg "github.com/fekuna/omnipos-stock-service/internal/store/usecase"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const monitorLockKey = "stock:monitor:lock"

func main() {
	// 1. Load Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.AppEnv == "development" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = "console"
		logConfig.Level = "debug"
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	// 3. Connect to Database
	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	// 4. Initialize Repositories
	itemRepo := itemRepoPkg.NewPGRepository(db)
	storeRepo := storeRepoPkg.NewPGRepository(db)
	notifRepo := notifRepoPkg.NewPGRepository(db)

	// 5. Run lock: Redis when configured, in-process otherwise
	var locker monitor.Locker = monitor.NewMutexLocker()
	if cfg.Redis.Addr != "" {
		redisClient, err := cache.NewRedisClient(&cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			appLogger.Warn("Could not connect to Redis, using in-process run lock", zap.Error(err))
		} else {
			defer redisClient.Close()
			locker = monitor.NewRedisLocker(redisClient, monitorLockKey, cfg.Monitor.LockTTL, appLogger)
			appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
		}
	}

	// 6. Initialize UseCases
	forecastClient := forecast.NewClient(cfg.Forecast.BaseURL, cfg.Forecast.Timeout)
	storeUC := storeUCPkg.NewStoreUseCase(storeRepo, appLogger)
	itemUC := itemUCPkg.NewItemUseCase(itemRepo, storeRepo, appLogger)
	notifUC := notifUCPkg.NewNotificationUseCase(notifRepo, storeRepo, appLogger)
	stockMonitor := monitor.New(itemRepo, storeRepo, notifRepo, forecastClient, appLogger, monitor.WithLocker(locker))

	sched, err := scheduler.New(stockMonitor, scheduler.RealClock, appLogger, cfg.Monitor.Schedule, cfg.Monitor.CleanupSchedule)
	if err != nil {
		appLogger.Fatal("Invalid monitoring schedule", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 7. Start Scheduler and Listeners
	go sched.Start(ctx)
	appLogger.Info("Inventory monitoring scheduled", zap.String("schedule", cfg.Monitor.Schedule))

	if cfg.Kafka.Enabled {
		kafkaConsumer := broker.NewConsumer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
			GroupID: cfg.Kafka.GroupID,
		})
		defer kafkaConsumer.Close()
		appLogger.Info("Connected to Kafka Consumer", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))

		orderListener := itemListenerPkg.NewOrderListener(kafkaConsumer, itemUC, notifUC, storeRepo, appLogger)
		go orderListener.Start(ctx)
	}

	// 8. Initialize Handlers
	storeHandler := storeH.NewStoreHandler(storeUC, appLogger)
	itemHandler := itemH.NewItemHandler(itemUC, appLogger)
	notifHandler := notifH.NewNotificationHandler(notifUC, appLogger)
	monitorHandler := monitorH.NewMonitorHandler(forecastClient, sched, appLogger)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(recover.New())
	app.Use(middleware.RequestLogger(appLogger))

	api := app.Group("/api")
	api.Get("/health", func(c *fiber.Ctx) error {
		database := "connected"
		if err := db.PingContext(c.UserContext()); err != nil {
			database = "disconnected"
		}
		return c.JSON(fiber.Map{
			"status":      "OK",
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"environment": cfg.Server.AppEnv,
			"database":    database,
		})
	})
	storeHandler.Register(api.Group("/stores"))
	itemHandler.Register(api.Group("/items"))
	notifHandler.Register(api.Group("/notifications", auth.Middleware()))
	monitorHandler.RegisterML(api.Group("/ml"))
	monitorHandler.RegisterOps(api)
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Route not found"})
	})

	// 9. Start gRPC Health Server
	port := cfg.Server.GRPCPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	lis, err := net.Listen("tcp", port)
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}

	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(middleware.UnaryLogger(appLogger)),
	)
	healthServer := grpchealth.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)
	go health.NewReporter(healthServer, forecastClient, time.Minute, appLogger).Run(ctx)

	appLogger.Info("Starting gRPC server", zap.String("port", port))
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	httpPort := cfg.Server.HTTPPort
	if !strings.HasPrefix(httpPort, ":") {
		httpPort = ":" + httpPort
	}
	appLogger.Info("Starting HTTP server", zap.String("port", httpPort))
	go func() {
		if err := app.Listen(httpPort); err != nil {
			appLogger.Fatal("failed to serve http", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	cancel()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		appLogger.Error("http shutdown", zap.Error(err))
	}
	grpcServer.GracefulStop()
	appLogger.Info("Server stopped")
}
