package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/composite/domain"
	"github.com/fastygo/composite/repository"
)

type recommendationRepository struct {
	pool *pgxpool.Pool
}

// NewRecommendationRepository returns a Postgres-backed implementation of RecommendationRepository.
func NewRecommendationRepository(pool *pgxpool.Pool) repository.RecommendationRepository {
	return &recommendationRepository{pool: pool}
}

func (r *recommendationRepository) FindByProductID(ctx context.Context, productID int) ([]domain.Recommendation, error) {
	const query = `
	SELECT product_id, recommendation_id, author, rating, content, version
	FROM recommendations
	WHERE product_id = $1
	ORDER BY recommendation_id
	`
	rows, err := r.pool.Query(ctx, query, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recommendations := make([]domain.Recommendation, 0)
	for rows.Next() {
		var rec domain.Recommendation
		if err := rows.Scan(
			&rec.ProductID,
			&rec.RecommendationID,
			&rec.Author,
			&rec.Rating,
			&rec.Content,
			&rec.Version,
		); err != nil {
			return nil, err
		}
		recommendations = append(recommendations, rec)
	}
	return recommendations, rows.Err()
}

func (r *recommendationRepository) Save(ctx context.Context, rec *domain.Recommendation) (repository.SaveOutcome, error) {
	if rec == nil {
		return repository.SaveOK, domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO recommendations (product_id, recommendation_id, author, rating, content, version)
	VALUES ($1, $2, $3, $4, $5, 0)
	`
	if _, err := r.pool.Exec(ctx, query,
		rec.ProductID,
		rec.RecommendationID,
		rec.Author,
		rec.Rating,
		rec.Content,
	); err != nil {
		if isUniqueViolation(err) {
			return repository.SaveDuplicateKey, nil
		}
		return repository.SaveOK, err
	}
	rec.Version = 0
	return repository.SaveOK, nil
}

func (r *recommendationRepository) Update(ctx context.Context, rec *domain.Recommendation) (repository.SaveOutcome, error) {
	if rec == nil {
		return repository.SaveOK, domain.ErrInvalidPayload
	}

	const query = `
	UPDATE recommendations
	SET author = $4,
		rating = $5,
		content = $6,
		version = version + 1,
		updated_at = NOW()
	WHERE product_id = $1 AND recommendation_id = $2 AND version = $3
	RETURNING version
	`
	if err := r.pool.QueryRow(ctx, query,
		rec.ProductID,
		rec.RecommendationID,
		rec.Version,
		rec.Author,
		rec.Rating,
		rec.Content,
	).Scan(&rec.Version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.SaveLockConflict, nil
		}
		return repository.SaveOK, err
	}
	return repository.SaveOK, nil
}

func (r *recommendationRepository) DeleteByProductID(ctx context.Context, productID int) error {
	const query = `DELETE FROM recommendations WHERE product_id = $1`
	_, err := r.pool.Exec(ctx, query, productID)
	return err
}
