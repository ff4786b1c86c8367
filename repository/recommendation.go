package repository

import (
	"context"

	"github.com/fastygo/composite/domain"
)

type RecommendationRepository interface {
	FindByProductID(ctx context.Context, productID int) ([]domain.Recommendation, error)
	Save(ctx context.Context, recommendation *domain.Recommendation) (SaveOutcome, error)
	Update(ctx context.Context, recommendation *domain.Recommendation) (SaveOutcome, error)
	DeleteByProductID(ctx context.Context, productID int) error
}
