package product

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/composite/domain"
	"github.com/fastygo/composite/pkg/logger"
	"github.com/fastygo/composite/repository"
)

// UseCase serves and stores products. Reads accept fault-injection hints:
// a delay in seconds and the percentage of calls that must fail.
type UseCase struct {
	products repository.ProductRepository
	address  string
	logger   *zap.Logger

	intn  func(n int) int
	sleep func(ctx context.Context, d time.Duration) error
}

type Option func(*UseCase)

// WithRandom replaces the source used to decide injected faults.
func WithRandom(intn func(n int) int) Option {
	return func(uc *UseCase) { uc.intn = intn }
}

// WithSleep replaces how injected delays are waited for.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(uc *UseCase) { uc.sleep = sleep }
}

func New(products repository.ProductRepository, address string, logger *zap.Logger, opts ...Option) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	uc := &UseCase{
		products: products,
		address:  address,
		logger:   logger,
		intn:     rand.IntN,
		sleep:    sleepContext,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (uc *UseCase) GetProduct(ctx context.Context, productID, delay, faultPercent int) (*domain.Product, error) {
	if err := domain.ValidateProductID(productID); err != nil {
		return nil, err
	}
	if delay < 0 {
		return nil, domain.NewError(domain.ErrCodeInvalid, fmt.Sprintf("Invalid delay: %d", delay))
	}
	if faultPercent < 0 || faultPercent > 100 {
		return nil, domain.NewError(domain.ErrCodeInvalid,
			fmt.Sprintf("Invalid faultPercent: %d, expected a value between 0 and 100", faultPercent))
	}

	log := logger.WithRequestID(ctx, uc.logger).With(zap.Int("product_id", productID))

	if delay > 0 {
		log.Debug("sleeping before responding", zap.Int("delay_seconds", delay))
		if err := uc.sleep(ctx, time.Duration(delay)*time.Second); err != nil {
			return nil, domain.WrapError(domain.ErrCodeUnavailable, "request abandoned during delay", err)
		}
	}
	if err := uc.throwErrorIfBadLuck(faultPercent); err != nil {
		log.Debug("injected fault", zap.Int("fault_percent", faultPercent))
		return nil, err
	}

	product, err := uc.products.FindByProductID(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return nil, domain.NewError(domain.ErrCodeNotFound, fmt.Sprintf("No product found for productId: %d", productID))
		}
		return nil, domain.WrapError(domain.ErrCodeUnavailable, "product store unavailable", err)
	}
	product.ServiceAddress = uc.address

	log.Debug("getProduct: found productId")
	return product, nil
}

func (uc *UseCase) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if err := domain.ValidateProductID(product.ProductID); err != nil {
		return nil, err
	}

	outcome, err := uc.products.Save(ctx, &product)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeUnavailable, "product store unavailable", err)
	}
	switch outcome {
	case repository.SaveDuplicateKey:
		return nil, domain.NewError(domain.ErrCodeInvalid,
			fmt.Sprintf("Duplicate key, Product Id: %d", product.ProductID))
	case repository.SaveLockConflict:
		return nil, domain.NewError(domain.ErrCodeConflict,
			fmt.Sprintf("Product %d was modified concurrently", product.ProductID))
	}

	logger.WithRequestID(ctx, uc.logger).Debug("createProduct: entity created", zap.Int("product_id", product.ProductID))
	product.ServiceAddress = uc.address
	return &product, nil
}

// UpdateProduct replaces the stored product when it is still at
// product.Version. With domain.AnyVersion the current version is read first.
func (uc *UseCase) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if err := domain.ValidateProductID(product.ProductID); err != nil {
		return nil, err
	}

	if product.Version == domain.AnyVersion {
		current, err := uc.products.FindByProductID(ctx, product.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrProductNotFound) {
				return nil, domain.NewError(domain.ErrCodeNotFound,
					fmt.Sprintf("No product found for productId: %d", product.ProductID))
			}
			return nil, domain.WrapError(domain.ErrCodeUnavailable, "product store unavailable", err)
		}
		product.Version = current.Version
	}

	outcome, err := uc.products.Update(ctx, &product)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeUnavailable, "product store unavailable", err)
	}
	if outcome != repository.SaveOK {
		return nil, domain.NewError(domain.ErrCodeConflict,
			fmt.Sprintf("Product %d was modified concurrently", product.ProductID))
	}

	logger.WithRequestID(ctx, uc.logger).Debug("updateProduct: entity replaced",
		zap.Int("product_id", product.ProductID), zap.Int("version", product.Version))
	product.ServiceAddress = uc.address
	return &product, nil
}

// DeleteProduct is idempotent: deleting an unknown product succeeds.
func (uc *UseCase) DeleteProduct(ctx context.Context, productID int) error {
	if err := domain.ValidateProductID(productID); err != nil {
		return err
	}
	logger.WithRequestID(ctx, uc.logger).Debug("deleteProduct: tries to delete an entity", zap.Int("product_id", productID))
	if err := uc.products.DeleteByProductID(ctx, productID); err != nil {
		return domain.WrapError(domain.ErrCodeUnavailable, "product store unavailable", err)
	}
	return nil
}

// ApplyCreate consumes a CREATE event.
func (uc *UseCase) ApplyCreate(ctx context.Context, product domain.Product) error {
	_, err := uc.CreateProduct(ctx, product)
	return err
}

// ApplyDelete consumes a DELETE event.
func (uc *UseCase) ApplyDelete(ctx context.Context, productID int) error {
	return uc.DeleteProduct(ctx, productID)
}

// throwErrorIfBadLuck fails with probability faultPercent/100.
func (uc *UseCase) throwErrorIfBadLuck(faultPercent int) error {
	if faultPercent == 0 {
		return nil
	}
	threshold := uc.intn(100) + 1
	if faultPercent < threshold {
		return nil
	}
	return domain.NewError(domain.ErrCodeInternal, "Something went wrong...")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
