package integration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fastygo/composite/domain"
	"github.com/fastygo/composite/internal/messaging"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func errorInfo(status int, message string) map[string]any {
	return map[string]any{
		"timestamp": time.Now().UTC(),
		"path":      "/product/1",
		"status":    status,
		"error":     http.StatusText(status),
		"message":   message,
	}
}

func newIntegration(t *testing.T, handler http.Handler, bus messaging.Publisher, log *zap.Logger) *Integration {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{
		ProductURL:        srv.URL,
		RecommendationURL: srv.URL,
		ReviewURL:         srv.URL,
		CallTimeout:       200 * time.Millisecond,
	}, bus, log)
}

func TestGetProductSuccessForwardsFaultParameters(t *testing.T) {
	var query string
	mux := http.NewServeMux()
	mux.HandleFunc("/product/", func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		writeJSON(w, http.StatusOK, domain.Product{ProductID: 1, Name: "name", Weight: 3, ServiceAddress: "pro:1"})
	})
	in := newIntegration(t, mux, nil, nil)

	product, err := in.GetProduct(context.Background(), 1, 2, 30)
	require.NoError(t, err)
	assert.Equal(t, domain.Product{ProductID: 1, Name: "name", Weight: 3, ServiceAddress: "pro:1"}, *product)
	assert.Equal(t, "delay=2&faultPercent=30", query)
}

func TestGetProductErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		body     any
		wantCode domain.ErrorCode
		wantMsg  string
	}{
		{name: "not found", status: http.StatusNotFound, body: errorInfo(404, "No product found for productId: 13"),
			wantCode: domain.ErrCodeNotFound, wantMsg: "No product found for productId: 13"},
		{name: "invalid", status: http.StatusUnprocessableEntity, body: errorInfo(422, "Invalid productId: -1"),
			wantCode: domain.ErrCodeInvalid, wantMsg: "Invalid productId: -1"},
		{name: "server error", status: http.StatusInternalServerError, body: errorInfo(500, "Something went wrong"),
			wantCode: domain.ErrCodeUnexpected},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			core, logs := observer.New(zap.WarnLevel)
			in := newIntegration(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tc.status, tc.body)
			}), nil, zap.New(core))

			_, err := in.GetProduct(context.Background(), 13, 0, 0)
			require.Error(t, err)

			var dErr *domain.Error
			require.True(t, errors.As(err, &dErr))
			assert.Equal(t, tc.wantCode, dErr.Code)
			if tc.wantMsg != "" {
				assert.Equal(t, tc.wantMsg, dErr.Message)
			}
			if tc.wantCode == domain.ErrCodeUnexpected {
				assert.Equal(t, tc.status, dErr.Status)
				assert.Contains(t, dErr.Body, "Something went wrong")
				require.Equal(t, 1, logs.Len())
				fields := logs.All()[0].ContextMap()
				assert.EqualValues(t, tc.status, fields["status"])
				assert.Contains(t, fields["body"], "Something went wrong")
			}
		})
	}
}

func TestGetProductTransportFailureIsUnavailable(t *testing.T) {
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
		writeJSON(w, http.StatusOK, domain.Product{})
	})
	in := newIntegration(t, slow, nil, nil)

	start := time.Now()
	_, err := in.GetProduct(context.Background(), 1, 0, 0)
	assert.Less(t, time.Since(start), 900*time.Millisecond)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnavailable))
}

func TestGetProductHonoursCancellation(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	in := newIntegration(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := in.GetProduct(ctx, 1, 0, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestChildReadsDegradeToEmpty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/recommendation", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, errorInfo(500, "boom"))
	})
	mux.HandleFunc("/review", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("not json"))
	})
	in := newIntegration(t, mux, nil, nil)

	recs := in.GetRecommendations(context.Background(), 1)
	assert.NotNil(t, recs)
	assert.Empty(t, recs)

	reviews := in.GetReviews(context.Background(), 1)
	assert.NotNil(t, reviews)
	assert.Empty(t, reviews)
}

func TestChildReadsReturnDownstreamLists(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/recommendation", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "4", r.URL.Query().Get("productId"))
		writeJSON(w, http.StatusOK, []domain.Recommendation{{ProductID: 4, RecommendationID: 1, Rating: 5}})
	})
	mux.HandleFunc("/review", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []domain.Review{{ProductID: 4, ReviewID: 1}, {ProductID: 4, ReviewID: 2}})
	})
	in := newIntegration(t, mux, nil, nil)

	assert.Len(t, in.GetRecommendations(context.Background(), 4), 1)
	assert.Len(t, in.GetReviews(context.Background(), 4), 2)
}

func TestPublishKeysEventsByProductID(t *testing.T) {
	bus := messaging.NewMemoryBus(2, 0)
	in := New(Config{}, bus, nil)
	ctx := context.Background()

	require.NoError(t, in.CreateProduct(ctx, domain.Product{ProductID: 5, Name: "p"}))
	require.NoError(t, in.CreateRecommendation(ctx, domain.Recommendation{ProductID: 5, RecommendationID: 1}))
	require.NoError(t, in.DeleteReviews(ctx, 5))

	for _, topic := range []string{messaging.TopicProducts, messaging.TopicRecommendations, messaging.TopicReviews} {
		msgs := bus.Published(topic)
		require.Len(t, msgs, 1, topic)
		assert.Equal(t, "5", msgs[0].Key)
		assert.Equal(t, "5", msgs[0].Headers[messaging.HeaderPartitionKey])
	}

	ev, err := domain.DecodeEvent[domain.Review](bus.Published(messaging.TopicReviews)[0].Body)
	require.NoError(t, err)
	assert.Equal(t, domain.EventDelete, ev.Type())
	assert.Equal(t, 5, ev.Key())
	assert.Nil(t, ev.Data())
}

func TestPublishFailureIsReturned(t *testing.T) {
	bus := messaging.NewMemoryBus(1, 0)
	bus.FailPublishes(errors.New("broker down"))
	in := New(Config{}, bus, nil)

	err := in.DeleteProduct(context.Background(), 1)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnavailable))
}

func TestHealth(t *testing.T) {
	up := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "UP"})
	})
	down := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "DOWN"})
	})
	upSrv := httptest.NewServer(up)
	defer upSrv.Close()
	downSrv := httptest.NewServer(down)
	defer downSrv.Close()

	in := New(Config{
		ProductURL:        upSrv.URL,
		RecommendationURL: downSrv.URL,
		ReviewURL:         fmt.Sprintf("http://127.0.0.1:%d", 1),
		CallTimeout:       200 * time.Millisecond,
	}, nil, nil)
	ctx := context.Background()

	assert.Equal(t, domain.HealthUp, in.Health(ctx, ServiceProduct))
	assert.Equal(t, domain.HealthDown, in.Health(ctx, ServiceRecommendation))
	assert.Equal(t, domain.HealthDown, in.Health(ctx, ServiceReview))
	assert.Equal(t, domain.HealthDown, in.Health(ctx, "inventory"))

	assert.NoError(t, in.HealthProbe(ServiceProduct)(ctx))
	assert.Error(t, in.HealthProbe(ServiceReview)(ctx))
}
