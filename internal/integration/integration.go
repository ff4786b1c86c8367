// Package integration is how the composite talks to the core services:
// synchronous HTTP reads and event publication for writes.
package integration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/composite/domain"
	"github.com/fastygo/composite/internal/messaging"
	"github.com/fastygo/composite/pkg/logger"
	"github.com/fastygo/composite/usecase"
)

// Config locates the core services.
type Config struct {
	ProductURL        string
	RecommendationURL string
	ReviewURL         string
	CallTimeout       time.Duration
	MaxConnsPerHost   int
}

// Names accepted by Health.
const (
	ServiceProduct        = "product"
	ServiceRecommendation = "recommendation"
	ServiceReview         = "review"
)

type Integration struct {
	http      *httpClient
	urls      map[string]string
	publisher messaging.Publisher
	logger    *zap.Logger
}

func New(cfg Config, publisher messaging.Publisher, logger *zap.Logger) *Integration {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Integration{
		http: newHTTPClient(cfg.CallTimeout, cfg.MaxConnsPerHost),
		urls: map[string]string{
			ServiceProduct:        strings.TrimRight(cfg.ProductURL, "/"),
			ServiceRecommendation: strings.TrimRight(cfg.RecommendationURL, "/"),
			ServiceReview:         strings.TrimRight(cfg.ReviewURL, "/"),
		},
		publisher: publisher,
		logger:    logger,
	}
}

func (i *Integration) GetProduct(ctx context.Context, productID, delay, faultPercent int) (*domain.Product, error) {
	q := url.Values{}
	q.Set("delay", strconv.Itoa(delay))
	q.Set("faultPercent", strconv.Itoa(faultPercent))
	uri := fmt.Sprintf("%s/product/%d?%s", i.urls[ServiceProduct], productID, q.Encode())

	logger.WithRequestID(ctx, i.logger).Debug("will call the getProduct API", zap.String("url", uri))

	var product domain.Product
	if err := i.http.getJSON(ctx, uri, &product); err != nil {
		return nil, i.handleError(ctx, ServiceProduct, err)
	}
	return &product, nil
}

// GetRecommendations never fails: any error degrades to an empty list.
func (i *Integration) GetRecommendations(ctx context.Context, productID int) []domain.Recommendation {
	uri := fmt.Sprintf("%s/recommendation?productId=%d", i.urls[ServiceRecommendation], productID)

	recommendations := make([]domain.Recommendation, 0)
	if err := i.http.getJSON(ctx, uri, &recommendations); err != nil {
		logger.WithRequestID(ctx, i.logger).Warn("got an exception while requesting recommendations, return zero recommendations",
			zap.Int("product_id", productID), zap.Error(err))
		return []domain.Recommendation{}
	}
	return recommendations
}

// GetReviews never fails: any error degrades to an empty list.
func (i *Integration) GetReviews(ctx context.Context, productID int) []domain.Review {
	uri := fmt.Sprintf("%s/review?productId=%d", i.urls[ServiceReview], productID)

	reviews := make([]domain.Review, 0)
	if err := i.http.getJSON(ctx, uri, &reviews); err != nil {
		logger.WithRequestID(ctx, i.logger).Warn("got an exception while requesting reviews, return zero reviews",
			zap.Int("product_id", productID), zap.Error(err))
		return []domain.Review{}
	}
	return reviews
}

func (i *Integration) CreateProduct(ctx context.Context, product domain.Product) error {
	return publish(ctx, i, messaging.TopicProducts, domain.NewCreateEvent(product.ProductID, product))
}

func (i *Integration) DeleteProduct(ctx context.Context, productID int) error {
	return publish(ctx, i, messaging.TopicProducts, domain.NewDeleteEvent[domain.Product](productID))
}

func (i *Integration) CreateRecommendation(ctx context.Context, rec domain.Recommendation) error {
	return publish(ctx, i, messaging.TopicRecommendations, domain.NewCreateEvent(rec.ProductID, rec))
}

func (i *Integration) DeleteRecommendations(ctx context.Context, productID int) error {
	return publish(ctx, i, messaging.TopicRecommendations, domain.NewDeleteEvent[domain.Recommendation](productID))
}

func (i *Integration) CreateReview(ctx context.Context, review domain.Review) error {
	return publish(ctx, i, messaging.TopicReviews, domain.NewCreateEvent(review.ProductID, review))
}

func (i *Integration) DeleteReviews(ctx context.Context, productID int) error {
	return publish(ctx, i, messaging.TopicReviews, domain.NewDeleteEvent[domain.Review](productID))
}

// publish sends ev keyed by its product id, in the body and as partitionKey.
func publish[T any](ctx context.Context, i *Integration, topic string, ev domain.Event[T]) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return domain.WrapError(domain.ErrCodeInternal, "encode event", err)
	}
	msg := messaging.NewMessage(strconv.Itoa(ev.Key()), body)

	log := logger.WithRequestID(ctx, i.logger).With(
		zap.String("topic", topic),
		zap.Int("key", ev.Key()),
		zap.String("event_type", string(ev.Type())),
	)
	if err := i.publisher.Publish(ctx, topic, msg); err != nil {
		log.Warn("failed to publish event", zap.Error(err))
		if domain.CodeOf(err) != "" {
			return err
		}
		return domain.WrapError(domain.ErrCodeUnavailable, "event channel unavailable", err)
	}
	log.Debug("event published", zap.String("message_id", msg.ID))
	return nil
}

// Health asks a core service for its state; failures of any kind report DOWN.
func (i *Integration) Health(ctx context.Context, service string) domain.HealthStatus {
	base, ok := i.urls[service]
	if !ok || base == "" {
		return domain.HealthDown
	}
	var payload struct {
		Status domain.HealthStatus `json:"status"`
	}
	if err := i.http.getJSON(ctx, base+"/actuator/health", &payload); err != nil {
		i.logger.Debug("health check failed", zap.String("service", service), zap.Error(err))
		return domain.HealthDown
	}
	if payload.Status != domain.HealthUp {
		return domain.HealthDown
	}
	return domain.HealthUp
}

// HealthProbe adapts Health to the monitor's probe signature.
func (i *Integration) HealthProbe(service string) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if i.Health(ctx, service) != domain.HealthUp {
			return fmt.Errorf("%s service is down", service)
		}
		return nil
	}
}

// handleError maps a failed call: 404 and 422 become domain errors with the
// downstream message, any other status is passed through with status and body.
func (i *Integration) handleError(ctx context.Context, service string, err error) error {
	log := logger.WithRequestID(ctx, i.logger).With(zap.String("service", service))

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		log.Warn("call to core service failed", zap.Error(err))
		return domain.WrapError(domain.ErrCodeUnavailable, fmt.Sprintf("%s service unavailable", service), err)
	}

	switch httpErr.StatusCode {
	case http.StatusNotFound:
		return domain.WrapError(domain.ErrCodeNotFound, httpErr.Message, httpErr)
	case http.StatusUnprocessableEntity:
		return domain.WrapError(domain.ErrCodeInvalid, httpErr.Message, httpErr)
	default:
		log.Warn("got an unexpected HTTP error, will rethrow it",
			zap.Int("status", httpErr.StatusCode),
			zap.String("body", httpErr.Body))
		return domain.NewUpstreamError(httpErr.StatusCode, httpErr.Body, httpErr)
	}
}

var _ usecase.CoreIntegration = (*Integration)(nil)
