package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/composite/api/handler"
	"github.com/fastygo/composite/internal/config"
)

type Middleware func(fasthttp.RequestHandler) fasthttp.RequestHandler

// CompositeHandlers are the handlers served by cmd/composite.
type CompositeHandlers struct {
	Composite *apiHandler.CompositeHandler
	Health    *apiHandler.HealthHandler
}

// CoreHandlers are the handlers served by cmd/core. Only the one matching the
// service kind needs to be set.
type CoreHandlers struct {
	Product        *apiHandler.ProductHandler
	Recommendation *apiHandler.RecommendationHandler
	Review         *apiHandler.ReviewHandler
	Health         *apiHandler.HealthHandler
	DeadLetter     *apiHandler.DeadLetterHandler
}

func NewComposite(handlers CompositeHandlers, authMiddleware Middleware) *router.Router {
	r := router.New()

	r.GET("/actuator/health", handlers.Health.Check)

	// Protected routes
	r.GET("/product-composite/{productId}", authMiddleware(handlers.Composite.GetAggregate))
	r.POST("/product-composite", authMiddleware(handlers.Composite.CreateAggregate))
	r.DELETE("/product-composite/{productId}", authMiddleware(handlers.Composite.DeleteAggregate))

	return r
}

func NewCore(kind string, handlers CoreHandlers) *router.Router {
	r := router.New()

	r.GET("/actuator/health", handlers.Health.Check)
	if handlers.DeadLetter != nil {
		r.GET("/actuator/deadletters", handlers.DeadLetter.List)
		r.DELETE("/actuator/deadletters/{id}", handlers.DeadLetter.Remove)
	}

	switch kind {
	case config.KindProduct:
		r.GET("/product/{productId}", handlers.Product.GetProduct)
		r.POST("/product", handlers.Product.CreateProduct)
		r.PUT("/product/{productId}", handlers.Product.UpdateProduct)
		r.DELETE("/product/{productId}", handlers.Product.DeleteProduct)
	case config.KindRecommendation:
		r.GET("/recommendation", handlers.Recommendation.GetRecommendations)
		r.POST("/recommendation", handlers.Recommendation.CreateRecommendation)
		r.PUT("/recommendation", handlers.Recommendation.UpdateRecommendation)
		r.DELETE("/recommendation", handlers.Recommendation.DeleteRecommendations)
	case config.KindReview:
		r.GET("/review", handlers.Review.GetReviews)
		r.POST("/review", handlers.Review.CreateReview)
		r.PUT("/review", handlers.Review.UpdateReview)
		r.DELETE("/review", handlers.Review.DeleteReviews)
	}

	return r
}
