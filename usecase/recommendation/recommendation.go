package recommendation

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fastygo/composite/domain"
	"github.com/fastygo/composite/pkg/logger"
	"github.com/fastygo/composite/repository"
)

type UseCase struct {
	recommendations repository.RecommendationRepository
	address         string
	logger          *zap.Logger
}

func New(recommendations repository.RecommendationRepository, address string, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{recommendations: recommendations, address: address, logger: logger}
}

// GetRecommendations returns an empty list for products without recommendations.
func (uc *UseCase) GetRecommendations(ctx context.Context, productID int) ([]domain.Recommendation, error) {
	if err := domain.ValidateProductID(productID); err != nil {
		return nil, err
	}
	items, err := uc.recommendations.FindByProductID(ctx, productID)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeUnavailable, "recommendation store unavailable", err)
	}
	if items == nil {
		items = []domain.Recommendation{}
	}
	for i := range items {
		items[i].ServiceAddress = uc.address
	}
	logger.WithRequestID(ctx, uc.logger).Debug("getRecommendations: response size",
		zap.Int("product_id", productID), zap.Int("size", len(items)))
	return items, nil
}

func (uc *UseCase) CreateRecommendation(ctx context.Context, rec domain.Recommendation) (*domain.Recommendation, error) {
	if err := domain.ValidateProductID(rec.ProductID); err != nil {
		return nil, err
	}

	outcome, err := uc.recommendations.Save(ctx, &rec)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeUnavailable, "recommendation store unavailable", err)
	}
	switch outcome {
	case repository.SaveDuplicateKey:
		return nil, domain.NewError(domain.ErrCodeInvalid,
			fmt.Sprintf("Duplicate key, Product Id: %d, Recommendation Id:%d", rec.ProductID, rec.RecommendationID))
	case repository.SaveLockConflict:
		return nil, domain.NewError(domain.ErrCodeConflict,
			fmt.Sprintf("Recommendation %d/%d was modified concurrently", rec.ProductID, rec.RecommendationID))
	}

	logger.WithRequestID(ctx, uc.logger).Debug("createRecommendation: created a recommendation entity",
		zap.Int("product_id", rec.ProductID), zap.Int("recommendation_id", rec.RecommendationID))
	rec.ServiceAddress = uc.address
	return &rec, nil
}

// UpdateRecommendation replaces one stored recommendation when it is still at rec.Version.
// With domain.AnyVersion the current version is read first.
func (uc *UseCase) UpdateRecommendation(ctx context.Context, rec domain.Recommendation) (*domain.Recommendation, error) {
	if err := domain.ValidateProductID(rec.ProductID); err != nil {
		return nil, err
	}

	if rec.Version == domain.AnyVersion {
		items, err := uc.recommendations.FindByProductID(ctx, rec.ProductID)
		if err != nil {
			return nil, domain.WrapError(domain.ErrCodeUnavailable, "recommendation store unavailable", err)
		}
		found := false
		for _, item := range items {
			if item.RecommendationID == rec.RecommendationID {
				rec.Version = item.Version
				found = true
				break
			}
		}
		if !found {
			return nil, domain.NewError(domain.ErrCodeNotFound,
				fmt.Sprintf("No recommendation found for productId: %d, recommendationId: %d", rec.ProductID, rec.RecommendationID))
		}
	}

	outcome, err := uc.recommendations.Update(ctx, &rec)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeUnavailable, "recommendation store unavailable", err)
	}
	if outcome != repository.SaveOK {
		return nil, domain.NewError(domain.ErrCodeConflict,
			fmt.Sprintf("Recommendation %d/%d was modified concurrently", rec.ProductID, rec.RecommendationID))
	}

	logger.WithRequestID(ctx, uc.logger).Debug("updateRecommendation: entity replaced",
		zap.Int("product_id", rec.ProductID), zap.Int("recommendation_id", rec.RecommendationID), zap.Int("version", rec.Version))
	rec.ServiceAddress = uc.address
	return &rec, nil
}

// DeleteRecommendations removes every recommendation of productID; none is fine.
func (uc *UseCase) DeleteRecommendations(ctx context.Context, productID int) error {
	if err := domain.ValidateProductID(productID); err != nil {
		return err
	}
	logger.WithRequestID(ctx, uc.logger).Debug("deleteRecommendations: tries to delete recommendations",
		zap.Int("product_id", productID))
	if err := uc.recommendations.DeleteByProductID(ctx, productID); err != nil {
		return domain.WrapError(domain.ErrCodeUnavailable, "recommendation store unavailable", err)
	}
	return nil
}

func (uc *UseCase) ApplyCreate(ctx context.Context, rec domain.Recommendation) error {
	_, err := uc.CreateRecommendation(ctx, rec)
	return err
}

func (uc *UseCase) ApplyDelete(ctx context.Context, productID int) error {
	return uc.DeleteRecommendations(ctx, productID)
}
