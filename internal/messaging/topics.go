package messaging

// Topics carrying the events of each core service.
const (
	TopicProducts        = "products"
	TopicRecommendations = "recommendations"
	TopicReviews         = "reviews"
)
