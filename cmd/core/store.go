package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/fastygo/composite/internal/config"
	gormInfra "github.com/fastygo/composite/internal/infrastructure/gormdb"
	"github.com/fastygo/composite/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/composite/internal/infrastructure/postgres"
	"github.com/fastygo/composite/internal/services/lifecycle"
	"github.com/fastygo/composite/repository"
	"github.com/fastygo/composite/repository/gormdb"
	"github.com/fastygo/composite/repository/memory"
	"github.com/fastygo/composite/repository/postgres"
)

// stores holds the repository of the configured kind; the others stay nil.
type stores struct {
	products        repository.ProductRepository
	recommendations repository.RecommendationRepository
	reviews         repository.ReviewRepository
	probe           *monitor.Probe
}

// openStores connects the store backing cfg.Service.Kind. Product and
// recommendation data live in PostgreSQL through pgx, reviews through GORM.
func openStores(ctx context.Context, cfg *config.Config, manager *lifecycle.Manager, logger *zap.Logger) (*stores, error) {
	if cfg.Service.StoreDriver == "memory" {
		logger.Warn("using in-memory store, data is lost on restart")
		return &stores{
			products:        memory.NewProductStore(),
			recommendations: memory.NewRecommendationStore(),
			reviews:         memory.NewReviewStore(),
		}, nil
	}

	if cfg.Service.Kind == config.KindReview {
		return openReviewStore(ctx, cfg, manager, logger)
	}

	if err := pgInfra.RunMigrations(cfg, logger); err != nil {
		return nil, fmt.Errorf("migrations failed: %w", err)
	}
	pool, err := pgInfra.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pgInfra.Close(pool, logger)
		return nil
	})

	s := &stores{probe: poolProbe(pool)}
	switch cfg.Service.Kind {
	case config.KindProduct:
		s.products = postgres.NewProductRepository(pool)
	case config.KindRecommendation:
		s.recommendations = postgres.NewRecommendationRepository(pool)
	}
	return s, nil
}

func openReviewStore(ctx context.Context, cfg *config.Config, manager *lifecycle.Manager, logger *zap.Logger) (*stores, error) {
	db, err := gormInfra.Open(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	if cfg.Migrations.Enabled {
		if err := gormdb.AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("review schema: %w", err)
		}
	}
	manager.Register("gorm", func(ctx context.Context) error {
		return gormInfra.Close(db, logger)
	})
	return &stores{
		reviews: gormdb.NewReviewRepository(db),
		probe:   &monitor.Probe{Name: "database", Check: gormInfra.Ping(db)},
	}, nil
}

func poolProbe(pool *pgxpool.Pool) *monitor.Probe {
	return &monitor.Probe{
		Name:  "database",
		Check: pgInfra.Ping(pool),
		Details: func() map[string]any {
			stat := pool.Stat()
			return map[string]any{
				"total_conns":    stat.TotalConns(),
				"idle_conns":     stat.IdleConns(),
				"acquired_conns": stat.AcquiredConns(),
			}
		},
	}
}
