// Package gormdb keeps the review store on GORM.
package gormdb

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/fastygo/composite/domain"
	"github.com/fastygo/composite/repository"
)

// reviewRecord maps the reviews table. The unique index mirrors
// reviews_product_review_key from the SQL migrations.
type reviewRecord struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	ProductID int    `gorm:"not null;uniqueIndex:reviews_product_review_key,priority:1"`
	ReviewID  int    `gorm:"not null;uniqueIndex:reviews_product_review_key,priority:2"`
	Author    string `gorm:"not null;default:''"`
	Subject   string `gorm:"not null;default:''"`
	Content   string `gorm:"not null;default:''"`
	Version   int    `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (reviewRecord) TableName() string { return "reviews" }

func (r reviewRecord) toDomain() domain.Review {
	return domain.Review{
		ProductID: r.ProductID,
		ReviewID:  r.ReviewID,
		Author:    r.Author,
		Subject:   r.Subject,
		Content:   r.Content,
		Version:   r.Version,
	}
}

type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository returns a GORM-backed ReviewRepository. The *gorm.DB must
// be opened with TranslateError so unique violations surface as gorm.ErrDuplicatedKey.
func NewReviewRepository(db *gorm.DB) repository.ReviewRepository {
	return &reviewRepository{db: db}
}

// AutoMigrate creates the reviews table when SQL migrations are not in use.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&reviewRecord{})
}

func (r *reviewRepository) FindByProductID(ctx context.Context, productID int) ([]domain.Review, error) {
	var records []reviewRecord
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("review_id").
		Find(&records).Error; err != nil {
		return nil, err
	}
	reviews := make([]domain.Review, 0, len(records))
	for _, rec := range records {
		reviews = append(reviews, rec.toDomain())
	}
	return reviews, nil
}

func (r *reviewRepository) Save(ctx context.Context, review *domain.Review) (repository.SaveOutcome, error) {
	if review == nil {
		return repository.SaveOK, domain.ErrInvalidPayload
	}
	rec := reviewRecord{
		ProductID: review.ProductID,
		ReviewID:  review.ReviewID,
		Author:    review.Author,
		Subject:   review.Subject,
		Content:   review.Content,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return repository.SaveDuplicateKey, nil
		}
		return repository.SaveOK, err
	}
	review.Version = 0
	return repository.SaveOK, nil
}

func (r *reviewRepository) Update(ctx context.Context, review *domain.Review) (repository.SaveOutcome, error) {
	if review == nil {
		return repository.SaveOK, domain.ErrInvalidPayload
	}
	res := r.db.WithContext(ctx).
		Model(&reviewRecord{}).
		Where("product_id = ? AND review_id = ? AND version = ?", review.ProductID, review.ReviewID, review.Version).
		Updates(map[string]any{
			"author":  review.Author,
			"subject": review.Subject,
			"content": review.Content,
			"version": gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return repository.SaveOK, res.Error
	}
	if res.RowsAffected == 0 {
		return repository.SaveLockConflict, nil
	}
	review.Version++
	return repository.SaveOK, nil
}

func (r *reviewRepository) DeleteByProductID(ctx context.Context, productID int) error {
	return r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Delete(&reviewRecord{}).Error
}
