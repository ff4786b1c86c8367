package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProductAggregateSamplesFirstAddresses(t *testing.T) {
	product := Product{ProductID: 1, Name: "n", Weight: 2, ServiceAddress: "pro:1"}
	recs := []Recommendation{
		{ProductID: 1, RecommendationID: 1, Author: "a", Rating: 5, Content: "c", ServiceAddress: "rec:1"},
		{ProductID: 1, RecommendationID: 2, ServiceAddress: "rec:2"},
	}

	agg := NewProductAggregate(product, recs, nil, "cmp:1")

	require.NotNil(t, agg.ServiceAddresses)
	assert.Equal(t, ServiceAddresses{Cmp: "cmp:1", Pro: "pro:1", Rec: "rec:1", Rev: ""}, *agg.ServiceAddresses)
	assert.Equal(t, []RecommendationSummary{
		{RecommendationID: 1, Author: "a", Rate: 5, Content: "c"},
		{RecommendationID: 2},
	}, agg.Recommendations)
	assert.NotNil(t, agg.Reviews)
	assert.Empty(t, agg.Reviews)
}

func TestAggregateDecomposition(t *testing.T) {
	agg := ProductAggregate{
		ProductID:       9,
		Name:            "x",
		Weight:          1,
		Recommendations: []RecommendationSummary{{RecommendationID: 1, Rate: 3}},
		Reviews:         []ReviewSummary{{ReviewID: 4, Subject: "s"}},
	}

	assert.Equal(t, Product{ProductID: 9, Name: "x", Weight: 1}, agg.Product())
	assert.Equal(t, []Recommendation{{ProductID: 9, RecommendationID: 1, Rating: 3}}, agg.RecommendationEntities())
	assert.Equal(t, []Review{{ProductID: 9, ReviewID: 4, Subject: "s"}}, agg.ReviewEntities())
}

func TestValidateProductID(t *testing.T) {
	assert.NoError(t, ValidateProductID(1))

	err := ValidateProductID(0)
	require.Error(t, err)
	assert.Equal(t, ErrCodeInvalid, CodeOf(err))
	assert.Equal(t, "Invalid productId: 0", err.Error())
}
