package repository

import (
	"context"

	"github.com/fastygo/composite/domain"
)

type ReviewRepository interface {
	FindByProductID(ctx context.Context, productID int) ([]domain.Review, error)
	Save(ctx context.Context, review *domain.Review) (SaveOutcome, error)
	Update(ctx context.Context, review *domain.Review) (SaveOutcome, error)
	DeleteByProductID(ctx context.Context, productID int) error
}
