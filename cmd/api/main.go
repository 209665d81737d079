package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/marketplace-listing-service/config"
	"github.com/fekuna/marketplace-listing-service/internal/category"
	"github.com/fekuna/marketplace-listing-service/internal/listing"
	"github.com/fekuna/marketplace-listing-service/internal/middleware"
	"github.com/fekuna/marketplace-listing-service/internal/pkg/broker"
	"github.com/fekuna/marketplace-listing-service/internal/pkg/cache"
	"github.com/fekuna/marketplace-listing-service/internal/pkg/health"
	"github.com/fekuna/marketplace-listing-service/internal/pkg/logger"
	"github.com/fekuna/marketplace-listing-service/internal/pkg/postgres"
	"github.com/fekuna/marketplace-listing-service/internal/pkg/search"

	attrH "github.com/fekuna/marketplace-listing-service/internal/attribute/handler"
	attrRepoPkg "github.com/fekuna/marketplace-listing-service/internal/attribute/repository"
	attrUCPkg "github.com/fekuna/marketplace-listing-service/internal/attribute/usecase"

	catH "github.com/fekuna/marketplace-listing-service/internal/category/handler"
	catRepoPkg "github.com/fekuna/marketplace-listing-service/internal/category/repository"
	"github.com/fekuna/marketplace-listing-service/internal/category/treecache"
	catUCPkg "github.com/fekuna/marketplace-listing-service/internal/category/usecase"

	"github.com/fekuna/marketplace-listing-service/internal/listing/event"
	lstH "github.com/fekuna/marketplace-listing-service/internal/listing/handler"
	"github.com/fekuna/marketplace-listing-service/internal/listing/index"
	lstListenerPkg "github.com/fekuna/marketplace-listing-service/internal/listing/listener"
	lstRepoPkg "github.com/fekuna/marketplace-listing-service/internal/listing/repository"
	"github.com/fekuna/marketplace-listing-service/internal/listing/scheduler"
	lstUCPkg "github.com/fekuna/marketplace-listing-service/internal/listing/usecase"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const serviceName = "marketplace.listing.v1.ListingService"

func main() {
	// 1. Load Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		Encoding:          "json",
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.AppEnv == "development" || cfg.Server.AppEnv == "dev" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = cfg.Logger.Encoding
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
	txManager := postgres.NewTxManager(db)

	// 4. Initialize Redis
	var redisClient *cache.RedisClient
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(&cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			appLogger.Fatal("Could not connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	// 5. Initialize Kafka
	var publisher listing.EventPublisher = event.Discard{}
	var kafkaConsumer *broker.KafkaConsumer
	if cfg.Kafka.Enabled {
		brokerCfg := &broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.LifecycleTopic,
			GroupID: cfg.Kafka.IndexerGroupID,
		}
		producer := broker.NewProducer(brokerCfg)
		defer producer.Close()
		publisher = event.NewKafkaPublisher(producer)

		kafkaConsumer = broker.NewConsumer(brokerCfg)
		defer kafkaConsumer.Close()
		appLogger.Info("Connected to Kafka", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.LifecycleTopic))
	} else {
		appLogger.Warn("Kafka disabled, lifecycle events are dropped")
	}

	// 6. Initialize Elasticsearch
	var searchIndex *index.ElasticIndex
	if cfg.Elastic.Enabled {
		esClient, err := search.NewClient(&search.Config{
			Addresses: cfg.Elastic.Addresses,
			Username:  cfg.Elastic.Username,
			Password:  cfg.Elastic.Password,
		})
		if err != nil {
			appLogger.Warn("Could not connect to Elasticsearch, search index sync disabled", zap.Error(err))
		} else {
			searchIndex = index.NewElasticIndex(esClient, cfg.Elastic.Index)
			if err := searchIndex.EnsureIndex(context.Background()); err != nil {
				appLogger.Warn("Could not create listing index", zap.Error(err))
			}
			appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
		}
	}

	// 7. Initialize Repositories
	catRepo := catRepoPkg.NewPGRepository(db)
	attrRepo := attrRepoPkg.NewPGRepository(db)
	lstRepo := lstRepoPkg.NewPGRepository(db)
	lstAttrs := lstRepoPkg.NewPGAttributeStore(db)

	// 8. Initialize UseCases
	var treeCache category.TreeCache = treecache.NewMemory(cfg.Category.TreeCacheTTL)
	if redisClient != nil && cfg.Category.CacheBackend == "redis" {
		treeCache = treecache.NewRedis(redisClient, cfg.Category.TreeCacheTTL, appLogger)
	}
	catUC := catUCPkg.NewCategoryUseCase(catRepo, txManager, treeCache, appLogger)
	attrUC := attrUCPkg.NewAttributeUseCase(attrRepo, catUC, txManager, appLogger)
	lstUC := lstUCPkg.NewListingUseCase(lstRepo, lstAttrs, catUC, attrUC, txManager, publisher, lstUCPkg.Config{
		TTL:             cfg.Listing.TTL,
		DefaultPageSize: cfg.Listing.DefaultPageSize,
		MaxPageSize:     cfg.Listing.MaxPageSize,
		ExpireBatchSize: cfg.Listing.ExpireBatchSize,
	}, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 9. Start background workers
	if cfg.Scheduler.Enabled {
		var locker scheduler.Locker
		if redisClient != nil && cfg.Scheduler.LockEnabled {
			locker = redisClient
		}
		go scheduler.NewExpirationJob(lstUC, locker, cfg.Scheduler.ExpirationInterval, appLogger).Start(ctx)
	}
	if kafkaConsumer != nil && searchIndex != nil {
		go lstListenerPkg.NewIndexListener(kafkaConsumer, lstRepo, lstAttrs, searchIndex, appLogger).Start(ctx)
	}

	// 10. HTTP Server
	if !logConfig.IsDevelopment {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(appLogger), middleware.Identity())

	v1 := router.Group("/v1")
	owner := v1.Group("", middleware.RequireUser())
	moderator := v1.Group("/admin", middleware.RequireModerator())
	admin := v1.Group("/admin", middleware.RequireAdmin())

	catH.NewCategoryHandler(catUC, appLogger).RegisterRoutes(v1, admin)
	attrH.NewAttributeHandler(attrUC, appLogger).RegisterRoutes(v1, owner, admin)
	lstH.NewListingHandler(lstUC, appLogger).RegisterRoutes(v1, owner, moderator)

	httpServer := &http.Server{
		Addr:              port(cfg.Server.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		appLogger.Info("Starting HTTP server", zap.String("port", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("failed to serve http", zap.Error(err))
		}
	}()

	// 11. gRPC Server (health + reflection)
	lis, err := net.Listen("tcp", port(cfg.Server.GRPCPort))
	if err != nil {
		appLogger.Fatal("failed to listen", zap.Error(err))
	}
	grpcServer := grpc.NewServer()
	healthServer := grpchealth.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)
	go health.Watch(ctx, healthServer, serviceName, db, 10*time.Second, appLogger)

	go func() {
		appLogger.Info("Starting gRPC server", zap.String("port", lis.Addr().String()))
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve grpc", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP shutdown failed", zap.Error(err))
	}
	grpcServer.GracefulStop()
	appLogger.Info("Server stopped")
}

func port(p string) string {
	if !strings.HasPrefix(p, ":") && !strings.Contains(p, ":") {
		return ":" + p
	}
	return p
}
