package gormdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fastygo/composite/domain"
	"github.com/fastygo/composite/repository"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, AutoMigrate(db))
	return db
}

func TestReviewRepositorySaveAndFind(t *testing.T) {
	repo := NewReviewRepository(setupDB(t))
	ctx := context.Background()

	for _, id := range []int{2, 1} {
		outcome, err := repo.Save(ctx, &domain.Review{ProductID: 1, ReviewID: id, Author: "a", Subject: "s"})
		require.NoError(t, err)
		assert.Equal(t, repository.SaveOK, outcome)
	}

	reviews, err := repo.FindByProductID(ctx, 1)
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, 1, reviews[0].ReviewID)
	assert.Equal(t, "s", reviews[0].Subject)

	none, err := repo.FindByProductID(ctx, 2)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestReviewRepositoryDuplicateKey(t *testing.T) {
	repo := NewReviewRepository(setupDB(t))
	ctx := context.Background()

	_, err := repo.Save(ctx, &domain.Review{ProductID: 1, ReviewID: 1})
	require.NoError(t, err)

	outcome, err := repo.Save(ctx, &domain.Review{ProductID: 1, ReviewID: 1})
	require.NoError(t, err)
	assert.Equal(t, repository.SaveDuplicateKey, outcome)
}

func TestReviewRepositoryOptimisticLock(t *testing.T) {
	repo := NewReviewRepository(setupDB(t))
	ctx := context.Background()

	review := &domain.Review{ProductID: 1, ReviewID: 1, Subject: "v0"}
	_, err := repo.Save(ctx, review)
	require.NoError(t, err)

	stale := *review
	review.Subject = "v1"
	outcome, err := repo.Update(ctx, review)
	require.NoError(t, err)
	assert.Equal(t, repository.SaveOK, outcome)
	assert.Equal(t, 1, review.Version)

	stale.Subject = "stale"
	outcome, err = repo.Update(ctx, &stale)
	require.NoError(t, err)
	assert.Equal(t, repository.SaveLockConflict, outcome)

	reviews, err := repo.FindByProductID(ctx, 1)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, "v1", reviews[0].Subject)
	assert.Equal(t, 1, reviews[0].Version)
}

func TestReviewRepositoryDeleteIsIdempotent(t *testing.T) {
	repo := NewReviewRepository(setupDB(t))
	ctx := context.Background()

	_, err := repo.Save(ctx, &domain.Review{ProductID: 5, ReviewID: 1})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteByProductID(ctx, 5))
	require.NoError(t, repo.DeleteByProductID(ctx, 5))

	reviews, err := repo.FindByProductID(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, reviews)
}
