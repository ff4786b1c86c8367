package domain

// RecommendationSummary is the projection of a recommendation embedded in an aggregate.
type RecommendationSummary struct {
	RecommendationID int    `json:"recommendationId"`
	Author           string `json:"author"`
	Rate             int    `json:"rate"`
	Content          string `json:"content"`
}

// ReviewSummary is the projection of a review embedded in an aggregate.
type ReviewSummary struct {
	ReviewID int    `json:"reviewId"`
	Author   string `json:"author"`
	Subject  string `json:"subject"`
	Content  string `json:"content"`
}

// ServiceAddresses reports which instances contributed to an aggregate response.
type ServiceAddresses struct {
	Cmp string `json:"cmp"`
	Pro string `json:"pro"`
	Rec string `json:"rec"`
	Rev string `json:"rev"`
}

// ProductAggregate is the composite view of a product with its recommendations and reviews.
type ProductAggregate struct {
	ProductID        int                     `json:"productId"`
	Name             string                  `json:"name"`
	Weight           int                     `json:"weight"`
	Recommendations  []RecommendationSummary `json:"recommendations"`
	Reviews          []ReviewSummary         `json:"reviews"`
	ServiceAddresses *ServiceAddresses       `json:"serviceAddresses,omitempty"`
}

// NewProductAggregate assembles the aggregate view. Rec and Rev addresses are
// sampled from the first element of each list; an empty list leaves them blank.
func NewProductAggregate(product Product, recommendations []Recommendation, reviews []Review, compositeAddress string) *ProductAggregate {
	agg := &ProductAggregate{
		ProductID:       product.ProductID,
		Name:            product.Name,
		Weight:          product.Weight,
		Recommendations: make([]RecommendationSummary, 0, len(recommendations)),
		Reviews:         make([]ReviewSummary, 0, len(reviews)),
	}
	for _, r := range recommendations {
		agg.Recommendations = append(agg.Recommendations, RecommendationSummary{
			RecommendationID: r.RecommendationID,
			Author:           r.Author,
			Rate:             r.Rating,
			Content:          r.Content,
		})
	}
	for _, r := range reviews {
		agg.Reviews = append(agg.Reviews, ReviewSummary{
			ReviewID: r.ReviewID,
			Author:   r.Author,
			Subject:  r.Subject,
			Content:  r.Content,
		})
	}

	addrs := &ServiceAddresses{Cmp: compositeAddress, Pro: product.ServiceAddress}
	if len(recommendations) > 0 {
		addrs.Rec = recommendations[0].ServiceAddress
	}
	if len(reviews) > 0 {
		addrs.Rev = reviews[0].ServiceAddress
	}
	agg.ServiceAddresses = addrs
	return agg
}

// Product returns the product part of the aggregate.
func (a ProductAggregate) Product() Product {
	return Product{ProductID: a.ProductID, Name: a.Name, Weight: a.Weight}
}

// RecommendationEntities expands the summaries back into recommendations of the aggregate's product.
func (a ProductAggregate) RecommendationEntities() []Recommendation {
	out := make([]Recommendation, 0, len(a.Recommendations))
	for _, s := range a.Recommendations {
		out = append(out, Recommendation{
			ProductID:        a.ProductID,
			RecommendationID: s.RecommendationID,
			Author:           s.Author,
			Rating:           s.Rate,
			Content:          s.Content,
		})
	}
	return out
}

// ReviewEntities expands the summaries back into reviews of the aggregate's product.
func (a ProductAggregate) ReviewEntities() []Review {
	out := make([]Review, 0, len(a.Reviews))
	for _, s := range a.Reviews {
		out = append(out, Review{
			ProductID: a.ProductID,
			ReviewID:  s.ReviewID,
			Author:    s.Author,
			Subject:   s.Subject,
			Content:   s.Content,
		})
	}
	return out
}
