package composite

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fastygo/composite/domain"
	"github.com/fastygo/composite/pkg/logger"
	"github.com/fastygo/composite/pkg/workpool"
	"github.com/fastygo/composite/usecase"
)

// UseCase orchestrates the product aggregate over the core services.
type UseCase struct {
	core    usecase.CoreIntegration
	pool    *workpool.Pool
	address string
	logger  *zap.Logger
}

// New wires the orchestrator. pool bounds the concurrent publications of one write.
func New(core usecase.CoreIntegration, pool *workpool.Pool, address string, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pool == nil {
		pool = workpool.New(1)
	}
	return &UseCase{core: core, pool: pool, address: address, logger: logger}
}

// GetAggregate reads the product, its recommendations and its reviews
// concurrently. Only the product read can fail the call; when it does the
// other two reads are cancelled.
func (uc *UseCase) GetAggregate(ctx context.Context, productID, delay, faultPercent int) (*domain.ProductAggregate, error) {
	if err := domain.ValidateProductID(productID); err != nil {
		return nil, err
	}

	logger.WithRequestID(ctx, uc.logger).Debug("will get composite product info", zap.Int("product_id", productID))

	var (
		product         *domain.Product
		recommendations []domain.Recommendation
		reviews         []domain.Review
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := uc.core.GetProduct(gctx, productID, delay, faultPercent)
		if err != nil {
			return err
		}
		product = p
		return nil
	})
	g.Go(func() error {
		recommendations = uc.core.GetRecommendations(gctx, productID)
		return nil
	})
	g.Go(func() error {
		reviews = uc.core.GetReviews(gctx, productID)
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.WithRequestID(ctx, uc.logger).Warn("getCompositeProduct failed",
			zap.Int("product_id", productID), zap.Error(err))
		return nil, err
	}

	return domain.NewProductAggregate(*product, recommendations, reviews, uc.address), nil
}

// CreateAggregate publishes one CREATE event per entity of body. It returns
// once every event was accepted by the channel, or with the first failure.
func (uc *UseCase) CreateAggregate(ctx context.Context, body domain.ProductAggregate) error {
	if err := domain.ValidateProductID(body.ProductID); err != nil {
		return err
	}

	log := logger.WithRequestID(ctx, uc.logger).With(zap.Int("product_id", body.ProductID))
	log.Debug("will create a new composite entity")

	tasks := []func(context.Context) error{
		func(ctx context.Context) error { return uc.core.CreateProduct(ctx, body.Product()) },
	}
	for _, rec := range body.RecommendationEntities() {
		tasks = append(tasks, func(ctx context.Context) error { return uc.core.CreateRecommendation(ctx, rec) })
	}
	for _, review := range body.ReviewEntities() {
		tasks = append(tasks, func(ctx context.Context) error { return uc.core.CreateReview(ctx, review) })
	}

	if err := uc.pool.Run(ctx, tasks...); err != nil {
		log.Warn("createCompositeProduct failed", zap.Error(err))
		return err
	}
	log.Debug("composite entities created", zap.Int("events", len(tasks)))
	return nil
}

// DeleteAggregate publishes a DELETE event to each core service. Deleting an
// unknown product succeeds.
func (uc *UseCase) DeleteAggregate(ctx context.Context, productID int) error {
	if err := domain.ValidateProductID(productID); err != nil {
		return err
	}

	log := logger.WithRequestID(ctx, uc.logger).With(zap.Int("product_id", productID))
	log.Debug("will delete a product aggregate")

	err := uc.pool.Run(ctx,
		func(ctx context.Context) error { return uc.core.DeleteProduct(ctx, productID) },
		func(ctx context.Context) error { return uc.core.DeleteRecommendations(ctx, productID) },
		func(ctx context.Context) error { return uc.core.DeleteReviews(ctx, productID) },
	)
	if err != nil {
		log.Warn("deleteCompositeProduct failed", zap.Error(err))
		return err
	}
	log.Debug("delete events published")
	return nil
}
