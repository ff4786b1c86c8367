package repository

import (
	"context"

	"github.com/fastygo/composite/domain"
)

// ProductRepository persists products keyed by product id.
type ProductRepository interface {
	// FindByProductID returns domain.ErrProductNotFound when absent.
	FindByProductID(ctx context.Context, productID int) (*domain.Product, error)
	Save(ctx context.Context, product *domain.Product) (SaveOutcome, error)
	Update(ctx context.Context, product *domain.Product) (SaveOutcome, error)
	// DeleteByProductID is a no-op when nothing matches.
	DeleteByProductID(ctx context.Context, productID int) error
}
