package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fastygo/composite/internal/config"
	"github.com/fastygo/composite/internal/infrastructure/monitor"
	redisInfra "github.com/fastygo/composite/internal/infrastructure/redis"
	"github.com/fastygo/composite/internal/messaging"
	"github.com/fastygo/composite/internal/services"
	"github.com/fastygo/composite/internal/services/lifecycle"
)

// channel is the consuming side of the event channel; reclaimer and probe
// are nil for the in-process driver.
type channel struct {
	subscriber messaging.Subscriber
	reclaimer  services.Reclaimer
	probe      *monitor.Probe
}

func openChannel(cfg *config.Config, manager *lifecycle.Manager, logger *zap.Logger) (*channel, error) {
	if cfg.Messaging.Driver == config.DriverMemory {
		logger.Warn("using in-process event channel, nothing outside this process can publish to it")
		return &channel{subscriber: messaging.NewMemoryBus(cfg.Messaging.Partitions, cfg.Messaging.RetryBackoff)}, nil
	}

	redisClient, err := redisInfra.NewClient(cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	streams := messaging.NewRedisStreams(redisClient, messaging.StreamsConfig{
		Partitions:    cfg.Messaging.Partitions,
		InstanceIndex: cfg.Messaging.InstanceIndex,
		InstanceCount: cfg.Messaging.InstanceCount,
		Consumer:      cfg.Messaging.Consumer,
		BatchSize:     cfg.Messaging.BatchSize,
		Block:         cfg.Messaging.BlockTimeout,
		RetryBackoff:  cfg.Messaging.RetryBackoff,
		ClaimIdle:     cfg.Messaging.RedeliveryIdle,
		MaxLen:        cfg.Messaging.StreamMaxLen,
	}, logger)

	return &channel{
		subscriber: streams,
		reclaimer:  streams,
		probe:      &monitor.Probe{Name: "redis", Check: redisInfra.Ping(redisClient)},
	}, nil
}
