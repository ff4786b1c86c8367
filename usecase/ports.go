package usecase

import (
	"context"

	"github.com/fastygo/composite/domain"
)

// CoreIntegration abstracts the core services so the composite use case stays
// transport-agnostic. Reads of recommendations and reviews never fail; writes
// return once the event channel has accepted the event.
type CoreIntegration interface {
	GetProduct(ctx context.Context, productID, delay, faultPercent int) (*domain.Product, error)
	GetRecommendations(ctx context.Context, productID int) []domain.Recommendation
	GetReviews(ctx context.Context, productID int) []domain.Review

	CreateProduct(ctx context.Context, product domain.Product) error
	DeleteProduct(ctx context.Context, productID int) error
	CreateRecommendation(ctx context.Context, recommendation domain.Recommendation) error
	DeleteRecommendations(ctx context.Context, productID int) error
	CreateReview(ctx context.Context, review domain.Review) error
	DeleteReviews(ctx context.Context, productID int) error
}
