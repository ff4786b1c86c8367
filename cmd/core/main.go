package main

import (
	"context"
	"log"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/composite/api/handler"
	"github.com/fastygo/composite/domain"
	"github.com/fastygo/composite/internal/config"
	"github.com/fastygo/composite/internal/infrastructure/deadletter"
	"github.com/fastygo/composite/internal/infrastructure/monitor"
	"github.com/fastygo/composite/internal/messaging"
	"github.com/fastygo/composite/internal/middleware"
	"github.com/fastygo/composite/internal/router"
	"github.com/fastygo/composite/internal/services"
	"github.com/fastygo/composite/internal/services/lifecycle"
	"github.com/fastygo/composite/pkg/httpcontext"
	"github.com/fastygo/composite/pkg/logger"
	"github.com/fastygo/composite/pkg/serviceaddr"
	productUC "github.com/fastygo/composite/usecase/product"
	recommendationUC "github.com/fastygo/composite/usecase/recommendation"
	reviewUC "github.com/fastygo/composite/usecase/review"
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
	zapLogger = zapLogger.With(zap.String("service", cfg.Service.Kind))

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	store, err := openStores(appCtx, cfg, manager, zapLogger)
	if err != nil {
		zapLogger.Fatal("store initialization failed", zap.Error(err))
	}

	events, err := openChannel(cfg, manager, zapLogger)
	if err != nil {
		zapLogger.Fatal("event channel initialization failed", zap.Error(err))
	}

	deadLetters, err := deadletter.Open(cfg.DeadLetter.Path, cfg.Service.Kind)
	if err != nil {
		zapLogger.Fatal("failed to open dead-letter store", zap.Error(err))
	}
	manager.Register("deadletter", func(ctx context.Context) error {
		return deadLetters.Close()
	})

	dispatcher := messaging.NewDispatcher(
		services.NewDeadLetterBridge(deadLetters, zapLogger),
		cfg.Messaging.MaxDeliveries,
		zapLogger,
	)

	address := serviceaddr.Resolve(cfg.Service.Address, cfg.HTTP.Port)
	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	var handlers router.CoreHandlers
	switch cfg.Service.Kind {
	case config.KindProduct:
		uc := productUC.New(store.products, address, zapLogger)
		handlers.Product = apiHandler.NewProductHandler(uc, ctxAdapter, zapLogger)
		err = dispatcher.Register(messaging.TopicProducts, cfg.Messaging.Group,
			messaging.NewEventProcessor[domain.Product](uc, zapLogger))
	case config.KindRecommendation:
		uc := recommendationUC.New(store.recommendations, address, zapLogger)
		handlers.Recommendation = apiHandler.NewRecommendationHandler(uc, ctxAdapter, zapLogger)
		err = dispatcher.Register(messaging.TopicRecommendations, cfg.Messaging.Group,
			messaging.NewEventProcessor[domain.Recommendation](uc, zapLogger))
	case config.KindReview:
		uc := reviewUC.New(store.reviews, address, zapLogger)
		handlers.Review = apiHandler.NewReviewHandler(uc, ctxAdapter, zapLogger)
		err = dispatcher.Register(messaging.TopicReviews, cfg.Messaging.Group,
			messaging.NewEventProcessor[domain.Review](uc, zapLogger))
	}
	if err != nil {
		zapLogger.Fatal("consumer registration failed", zap.Error(err))
	}
	zapLogger.Info("consumers registered",
		zap.Strings("topics", dispatcher.Topics()),
		zap.String("group", cfg.Messaging.Group),
		zap.String("consumer", cfg.Messaging.Consumer))

	manager.Go(appCtx, "dispatcher", func(ctx context.Context) error {
		return dispatcher.Run(ctx, events.subscriber)
	})

	sweeper, err := services.NewRedeliverySweeper(events.reclaimer, deadLetters, zapLogger, services.RedeliveryConfig{
		Schedule:  cfg.Messaging.SweepSchedule,
		Retention: cfg.DeadLetter.Retention,
	})
	if err != nil {
		zapLogger.Fatal("invalid redelivery schedule", zap.Error(err))
	}
	sweeper.Start()
	manager.Register("redelivery_sweeper", func(ctx context.Context) error {
		sweeper.Stop(ctx)
		return nil
	})

	probes := []monitor.Probe{
		{
			Name:  "deadletter",
			Check: func(context.Context) error { _, err := deadLetters.Size(); return err },
			Details: func() map[string]any {
				size, _ := deadLetters.Size()
				return map[string]any{"parked": size}
			},
		},
	}
	if store.probe != nil {
		probes = append(probes, *store.probe)
	}
	if events.probe != nil {
		probes = append(probes, *events.probe)
	}
	mon := monitor.New(probes, cfg.Monitor.Interval, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	handlers.Health = apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger)
	handlers.DeadLetter = apiHandler.NewDeadLetterHandler(deadLetters, ctxAdapter, zapLogger)
	r := router.NewCore(cfg.Service.Kind, handlers)

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
