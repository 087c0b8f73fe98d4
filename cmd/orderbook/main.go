package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/wyfcoding/multichainorderbook/internal/orderbook/application"
	"github.com/wyfcoding/multichainorderbook/internal/orderbook/domain"
	"github.com/wyfcoding/multichainorderbook/internal/orderbook/infrastructure/bootstrap"
	"github.com/wyfcoding/multichainorderbook/internal/orderbook/infrastructure/messaging"
	"github.com/wyfcoding/multichainorderbook/internal/orderbook/infrastructure/persistence/mysql"
	redisrepo "github.com/wyfcoding/multichainorderbook/internal/orderbook/infrastructure/persistence/redis"
	"github.com/wyfcoding/multichainorderbook/internal/orderbook/interfaces/consumer"
	httpiface "github.com/wyfcoding/multichainorderbook/internal/orderbook/interfaces/http"
	"github.com/wyfcoding/multichainorderbook/pkg/cache"
	"github.com/wyfcoding/multichainorderbook/pkg/config"
	"github.com/wyfcoding/multichainorderbook/pkg/db"
	"github.com/wyfcoding/multichainorderbook/pkg/logger"
	"github.com/wyfcoding/multichainorderbook/pkg/metrics"
	"github.com/wyfcoding/multichainorderbook/pkg/middleware"
	"github.com/wyfcoding/multichainorderbook/pkg/mq"
	"github.com/wyfcoding/multichainorderbook/pkg/ratelimit"
)

func main() {
	configPath := flag.String("config", "configs/orderbook/config.toml", "path to config file")
	flag.Parse()

	cfg, err := config.LoadWithDefaults(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logger.Get().With("service", cfg.ServiceName)

	if cfg.Metrics.Enabled {
		m := metrics.New(cfg.ServiceName)
		if err := m.Register(); err != nil {
			logger.Fatal(ctx, "failed to register metrics", "error", err)
		}
		if err := metrics.StartHTTPServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Fatal(ctx, "failed to start metrics server", "error", err)
		}
	}

	database, err := db.Init(db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	})
	if err != nil {
		logger.Fatal(ctx, "failed to init database", "error", err)
	}
	defer database.Close()

	if err := database.AutoMigrate(&domain.Order{}, &domain.OrderMatch{}); err != nil {
		logger.Fatal(ctx, "failed to migrate schema", "error", err)
	}

	redisCache, err := cache.New(cache.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxPoolSize:  cfg.Redis.MaxPoolSize,
		ConnTimeout:  cfg.Redis.ConnTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		logger.Fatal(ctx, "failed to init redis", "error", err)
	}
	defer redisCache.Close()

	kafkaCfg := mq.KafkaConfig{
		Brokers:        cfg.Kafka.Brokers,
		GroupID:        cfg.Kafka.GroupID,
		SessionTimeout: cfg.Kafka.SessionTimeout,
		MaxRetries:     3,
		RetryBackoff:   200,
	}
	producer, err := mq.NewProducer(kafkaCfg)
	if err != nil {
		logger.Fatal(ctx, "failed to init kafka producer", "error", err)
	}
	defer producer.Close()

	domainCfg, err := bootstrap.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal(ctx, "failed to load orderbook config", "error", err)
	}
	system, err := bootstrap.Build(domainCfg, log)
	if err != nil {
		logger.Fatal(ctx, "failed to assemble orderbook system", "error", err)
	}

	orderRepo := mysql.NewOrderRepository(database.DB)
	matchRepo := mysql.NewMatchRepository(database.DB)
	snapshotRepo := redisrepo.NewOrderBookRepository(redisCache)
	publisher := messaging.NewKafkaPublisher(producer, log)

	manager := application.NewCrossChainManager(
		system.Book, system.Bridges, orderRepo, matchRepo, publisher, system.Settlement, log)
	if domainCfg.AsyncSettlement {
		manager.EnableAsyncSettlement()
	}
	query := application.NewOrderBookQueryService(system.Book, orderRepo, matchRepo, snapshotRepo, log)
	projection := consumer.NewProjectionHandler(query, orderRepo, log)

	if cfg.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		middleware.GinLoggingMiddleware(),
		middleware.GinRecoveryMiddleware(),
		middleware.GinCORSMiddleware(),
	)
	if cfg.RateLimit.Enabled {
		limiter := ratelimit.NewRedisRateLimiter(redisCache.GetClient())
		router.Use(middleware.RateLimitMiddleware(limiter, cfg.RateLimit))
	}

	handler := httpiface.NewHandler(manager, query, system.Health)
	handler.RegisterRoutes(router.Group("/api/v1"))

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info(gctx, "HTTP server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		err := system.Health.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	for _, topic := range consumer.ProjectionTopics {
		kc, err := mq.NewConsumer(kafkaCfg, topic)
		if err != nil {
			logger.Fatal(ctx, "failed to init kafka consumer", "topic", topic, "error", err)
		}
		g.Go(func() error {
			defer kc.Close()
			err := projection.Run(gctx, kc)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info(context.Background(), "shutting down")
		manager.Wait()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal(context.Background(), "service exited with error", "error", err)
	}
	logger.Info(context.Background(), "service stopped")
}
