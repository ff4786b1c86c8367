package domain

// Product is the root entity of the platform, identified by ProductID.
type Product struct {
	ProductID      int    `json:"productId"`
	Name           string `json:"name"`
	Weight         int    `json:"weight"`
	ServiceAddress string `json:"serviceAddress"`
	Version        int    `json:"-"`
}

// Recommendation belongs to a product and is unique per (ProductID, RecommendationID).
type Recommendation struct {
	ProductID        int    `json:"productId"`
	RecommendationID int    `json:"recommendationId"`
	Author           string `json:"author"`
	Rating           int    `json:"rating"`
	Content          string `json:"content"`
	ServiceAddress   string `json:"serviceAddress"`
	Version          int    `json:"-"`
}

// Review belongs to a product and is unique per (ProductID, ReviewID).
type Review struct {
	ProductID      int    `json:"productId"`
	ReviewID       int    `json:"reviewId"`
	Author         string `json:"author"`
	Subject        string `json:"subject"`
	Content        string `json:"content"`
	ServiceAddress string `json:"serviceAddress"`
	Version        int    `json:"-"`
}

// AnyVersion lets an update apply over whatever version is currently stored.
const AnyVersion = -1
