package review

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fastygo/composite/domain"
	"github.com/fastygo/composite/pkg/logger"
	"github.com/fastygo/composite/repository"
)

type UseCase struct {
	reviews repository.ReviewRepository
	address string
	logger  *zap.Logger
}

func New(reviews repository.ReviewRepository, address string, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{reviews: reviews, address: address, logger: logger}
}

func (uc *UseCase) GetReviews(ctx context.Context, productID int) ([]domain.Review, error) {
	if err := domain.ValidateProductID(productID); err != nil {
		return nil, err
	}
	items, err := uc.reviews.FindByProductID(ctx, productID)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeUnavailable, "review store unavailable", err)
	}
	if items == nil {
		items = []domain.Review{}
	}
	for i := range items {
		items[i].ServiceAddress = uc.address
	}
	logger.WithRequestID(ctx, uc.logger).Debug("getReviews: response size",
		zap.Int("product_id", productID), zap.Int("size", len(items)))
	return items, nil
}

func (uc *UseCase) CreateReview(ctx context.Context, review domain.Review) (*domain.Review, error) {
	if err := domain.ValidateProductID(review.ProductID); err != nil {
		return nil, err
	}

	outcome, err := uc.reviews.Save(ctx, &review)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeUnavailable, "review store unavailable", err)
	}
	switch outcome {
	case repository.SaveDuplicateKey:
		return nil, domain.NewError(domain.ErrCodeInvalid,
			fmt.Sprintf("Duplicate key, Product Id: %d, Review Id:%d", review.ProductID, review.ReviewID))
	case repository.SaveLockConflict:
		return nil, domain.NewError(domain.ErrCodeConflict,
			fmt.Sprintf("Review %d/%d was modified concurrently", review.ProductID, review.ReviewID))
	}

	logger.WithRequestID(ctx, uc.logger).Debug("createReview: created a review entity",
		zap.Int("product_id", review.ProductID), zap.Int("review_id", review.ReviewID))
	review.ServiceAddress = uc.address
	return &review, nil
}

// UpdateReview replaces one stored review when it is still at review.Version.
// With domain.AnyVersion the current version is read first.
func (uc *UseCase) UpdateReview(ctx context.Context, review domain.Review) (*domain.Review, error) {
	if err := domain.ValidateProductID(review.ProductID); err != nil {
		return nil, err
	}

	if review.Version == domain.AnyVersion {
		items, err := uc.reviews.FindByProductID(ctx, review.ProductID)
		if err != nil {
			return nil, domain.WrapError(domain.ErrCodeUnavailable, "review store unavailable", err)
		}
		found := false
		for _, item := range items {
			if item.ReviewID == review.ReviewID {
				review.Version = item.Version
				found = true
				break
			}
		}
		if !found {
			return nil, domain.NewError(domain.ErrCodeNotFound,
				fmt.Sprintf("No review found for productId: %d, reviewId: %d", review.ProductID, review.ReviewID))
		}
	}

	outcome, err := uc.reviews.Update(ctx, &review)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeUnavailable, "review store unavailable", err)
	}
	if outcome != repository.SaveOK {
		return nil, domain.NewError(domain.ErrCodeConflict,
			fmt.Sprintf("Review %d/%d was modified concurrently", review.ProductID, review.ReviewID))
	}

	logger.WithRequestID(ctx, uc.logger).Debug("updateReview: entity replaced",
		zap.Int("product_id", review.ProductID), zap.Int("review_id", review.ReviewID), zap.Int("version", review.Version))
	review.ServiceAddress = uc.address
	return &review, nil
}

func (uc *UseCase) DeleteReviews(ctx context.Context, productID int) error {
	if err := domain.ValidateProductID(productID); err != nil {
		return err
	}
	logger.WithRequestID(ctx, uc.logger).Debug("deleteReviews: tries to delete reviews", zap.Int("product_id", productID))
	if err := uc.reviews.DeleteByProductID(ctx, productID); err != nil {
		return domain.WrapError(domain.ErrCodeUnavailable, "review store unavailable", err)
	}
	return nil
}

func (uc *UseCase) ApplyCreate(ctx context.Context, review domain.Review) error {
	_, err := uc.CreateReview(ctx, review)
	return err
}

func (uc *UseCase) ApplyDelete(ctx context.Context, productID int) error {
	return uc.DeleteReviews(ctx, productID)
}
