package main

import (
	"context"
	"log"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/composite/api/handler"
	"github.com/fastygo/composite/internal/config"
	"github.com/fastygo/composite/internal/infrastructure/monitor"
	redisInfra "github.com/fastygo/composite/internal/infrastructure/redis"
	"github.com/fastygo/composite/internal/integration"
	"github.com/fastygo/composite/internal/messaging"
	"github.com/fastygo/composite/internal/middleware"
	"github.com/fastygo/composite/internal/router"
	"github.com/fastygo/composite/internal/services/lifecycle"
	"github.com/fastygo/composite/pkg/httpcontext"
	"github.com/fastygo/composite/pkg/logger"
	"github.com/fastygo/composite/pkg/serviceaddr"
	"github.com/fastygo/composite/pkg/workpool"
	compositeUC "github.com/fastygo/composite/usecase/composite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	if cfg.Messaging.Driver != config.DriverRedis {
		zapLogger.Fatal("the composite publishes to the core services and needs MESSAGING_DRIVER=redis",
			zap.String("driver", cfg.Messaging.Driver))
	}

	redisClient, err := redisInfra.NewClient(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	publisher := messaging.NewRedisStreams(redisClient, messaging.StreamsConfig{
		Partitions: cfg.Messaging.Partitions,
		MaxLen:     cfg.Messaging.StreamMaxLen,
	}, zapLogger)

	core := integration.New(integration.Config{
		ProductURL:        cfg.Integration.ProductURL,
		RecommendationURL: cfg.Integration.RecommendationURL,
		ReviewURL:         cfg.Integration.ReviewURL,
		CallTimeout:       cfg.Integration.CallTimeout,
		MaxConnsPerHost:   cfg.Integration.MaxConnsPerHost,
	}, publisher, zapLogger)

	address := serviceaddr.Resolve(cfg.Service.Address, cfg.HTTP.Port)
	compositeUseCase := compositeUC.New(core, workpool.New(cfg.Integration.PublishConcurrency), address, zapLogger)

	mon := monitor.New([]monitor.Probe{
		{Name: "redis", Check: redisInfra.Ping(redisClient)},
		{Name: integration.ServiceProduct, Check: core.HealthProbe(integration.ServiceProduct)},
		{Name: integration.ServiceRecommendation, Check: core.HealthProbe(integration.ServiceRecommendation)},
		{Name: integration.ServiceReview, Check: core.HealthProbe(integration.ServiceReview)},
	}, cfg.Monitor.Interval, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.CompositeHandlers{
		Composite: apiHandler.NewCompositeHandler(compositeUseCase, ctxAdapter, zapLogger),
		Health:    apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, cfg.JWT.Issuer, zapLogger)
	r := router.NewComposite(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      middleware.RequestLog(zapLogger)(r.Handler),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Concurrency:  cfg.HTTP.MaxConn,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started",
			zap.String("address", cfg.Address()),
			zap.String("service_address", address))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
