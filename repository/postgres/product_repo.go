package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/composite/domain"
	"github.com/fastygo/composite/repository"
)

type productRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a Postgres-backed implementation of ProductRepository.
func NewProductRepository(pool *pgxpool.Pool) repository.ProductRepository {
	return &productRepository{pool: pool}
}

func (r *productRepository) FindByProductID(ctx context.Context, productID int) (*domain.Product, error) {
	const query = `
	SELECT product_id, name, weight, version
	FROM products
	WHERE product_id = $1
	`
	var p domain.Product
	if err := r.pool.QueryRow(ctx, query, productID).Scan(&p.ProductID, &p.Name, &p.Weight, &p.Version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *productRepository) Save(ctx context.Context, product *domain.Product) (repository.SaveOutcome, error) {
	if product == nil {
		return repository.SaveOK, domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO products (product_id, name, weight, version)
	VALUES ($1, $2, $3, 0)
	`
	if _, err := r.pool.Exec(ctx, query, product.ProductID, product.Name, product.Weight); err != nil {
		if isUniqueViolation(err) {
			return repository.SaveDuplicateKey, nil
		}
		return repository.SaveOK, err
	}
	product.Version = 0
	return repository.SaveOK, nil
}

func (r *productRepository) Update(ctx context.Context, product *domain.Product) (repository.SaveOutcome, error) {
	if product == nil {
		return repository.SaveOK, domain.ErrInvalidPayload
	}

	const query = `
	UPDATE products
	SET name = $3,
		weight = $4,
		version = version + 1,
		updated_at = NOW()
	WHERE product_id = $1 AND version = $2
	RETURNING version
	`
	if err := r.pool.QueryRow(ctx, query,
		product.ProductID,
		product.Version,
		product.Name,
		product.Weight,
	).Scan(&product.Version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.SaveLockConflict, nil
		}
		return repository.SaveOK, err
	}
	return repository.SaveOK, nil
}

func (r *productRepository) DeleteByProductID(ctx context.Context, productID int) error {
	const query = `DELETE FROM products WHERE product_id = $1`
	_, err := r.pool.Exec(ctx, query, productID)
	return err
}
