package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/composite/api/transport"
	"github.com/fastygo/composite/domain"
	"github.com/fastygo/composite/internal/infrastructure/deadletter"
	"github.com/fastygo/composite/internal/infrastructure/monitor"
	"github.com/fastygo/composite/pkg/httpcontext"
	"github.com/fastygo/composite/pkg/workpool"
	"github.com/fastygo/composite/repository/memory"
	compositeUC "github.com/fastygo/composite/usecase/composite"
	productUC "github.com/fastygo/composite/usecase/product"
	recommendationUC "github.com/fastygo/composite/usecase/recommendation"
)

func newRequest(method, uri string, body string) *fasthttp.RequestCtx {
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	if body != "" {
		ctx.Request.SetBodyString(body)
	}
	return &ctx
}

func decodeError(t *testing.T, ctx *fasthttp.RequestCtx) transport.ErrorInfo {
	t.Helper()
	var info transport.ErrorInfo
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &info))
	return info
}

func TestMapError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{domain.NewError(domain.ErrCodeBadRequest, "bad"), http.StatusBadRequest, "bad"},
		{domain.InvalidProductID(0), http.StatusUnprocessableEntity, "Invalid productId: 0"},
		{domain.NewError(domain.ErrCodeNotFound, "gone"), http.StatusNotFound, "gone"},
		{domain.NewError(domain.ErrCodeConflict, "stale"), http.StatusConflict, "stale"},
		{domain.NewError(domain.ErrCodeUnavailable, "down"), http.StatusServiceUnavailable, "down"},
		{domain.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{domain.ErrForbidden, http.StatusForbidden, "forbidden"},
		{domain.NewUpstreamError(502, `{"message":"bad gateway upstream"}`, nil), 502, "bad gateway upstream"},
		{domain.NewUpstreamError(500, "boom", nil), 500, "boom"},
		{errors.New("plain"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tc := range cases {
		status, msg := mapError(tc.err)
		assert.Equal(t, tc.status, status, tc.err.Error())
		assert.Equal(t, tc.msg, msg, tc.err.Error())
	}
}

func TestProductHandlerLifecycle(t *testing.T) {
	uc := productUC.New(memory.NewProductStore(), "pro:8080", nil)
	h := NewProductHandler(uc, httpcontext.NewAdapter(time.Second), nil)

	create := newRequest(http.MethodPost, "/product", `{"productId":1,"name":"n","weight":3}`)
	h.CreateProduct(create)
	require.Equal(t, http.StatusOK, create.Response.StatusCode())

	get := newRequest(http.MethodGet, "/product/1", "")
	get.SetUserValue("productId", "1")
	h.GetProduct(get)
	require.Equal(t, http.StatusOK, get.Response.StatusCode())
	var product domain.Product
	require.NoError(t, json.Unmarshal(get.Response.Body(), &product))
	assert.Equal(t, "n", product.Name)
	assert.Equal(t, "pro:8080", product.ServiceAddress)

	del := newRequest(http.MethodDelete, "/product/1", "")
	del.SetUserValue("productId", "1")
	h.DeleteProduct(del)
	assert.Equal(t, http.StatusOK, del.Response.StatusCode())

	missing := newRequest(http.MethodGet, "/product/1", "")
	missing.SetUserValue("productId", "1")
	h.GetProduct(missing)
	assert.Equal(t, http.StatusNotFound, missing.Response.StatusCode())
	info := decodeError(t, missing)
	assert.Equal(t, "/product/1", info.Path)
	assert.Equal(t, "No product found for productId: 1", info.Message)
}

func TestProductHandlerRejectsBadInput(t *testing.T) {
	h := NewProductHandler(productUC.New(memory.NewProductStore(), "pro", nil), nil, nil)

	malformed := newRequest(http.MethodGet, "/product/no-integer", "")
	malformed.SetUserValue("productId", "no-integer")
	h.GetProduct(malformed)
	assert.Equal(t, http.StatusBadRequest, malformed.Response.StatusCode())

	invalid := newRequest(http.MethodGet, "/product/-1", "")
	invalid.SetUserValue("productId", "-1")
	h.GetProduct(invalid)
	assert.Equal(t, http.StatusUnprocessableEntity, invalid.Response.StatusCode())
	assert.Equal(t, "Invalid productId: -1", decodeError(t, invalid).Message)

	body := newRequest(http.MethodPost, "/product", `{not json`)
	h.CreateProduct(body)
	assert.Equal(t, http.StatusBadRequest, body.Response.StatusCode())
}

func TestRecommendationHandlerUsesQueryKey(t *testing.T) {
	uc := recommendationUC.New(memory.NewRecommendationStore(), "rec", nil)
	h := NewRecommendationHandler(uc, nil, nil)

	create := newRequest(http.MethodPost, "/recommendation", `{"productId":1,"recommendationId":1,"author":"a","rating":5,"content":"c"}`)
	h.CreateRecommendation(create)
	require.Equal(t, http.StatusOK, create.Response.StatusCode())

	dup := newRequest(http.MethodPost, "/recommendation", `{"productId":1,"recommendationId":1}`)
	h.CreateRecommendation(dup)
	assert.Equal(t, http.StatusUnprocessableEntity, dup.Response.StatusCode())

	list := newRequest(http.MethodGet, "/recommendation?productId=1", "")
	h.GetRecommendations(list)
	require.Equal(t, http.StatusOK, list.Response.StatusCode())
	var recs []domain.Recommendation
	require.NoError(t, json.Unmarshal(list.Response.Body(), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, 5, recs[0].Rating)

	del := newRequest(http.MethodDelete, "/recommendation?productId=1", "")
	h.DeleteRecommendations(del)
	assert.Equal(t, http.StatusOK, del.Response.StatusCode())

	missingKey := newRequest(http.MethodGet, "/recommendation", "")
	h.GetRecommendations(missingKey)
	assert.Equal(t, http.StatusBadRequest, missingKey.Response.StatusCode())
}

type staticStatus monitor.Status

func (s staticStatus) GetStatus() monitor.Status { return monitor.Status(s) }

func TestHealthHandler(t *testing.T) {
	up := staticStatus{
		Components: map[string]monitor.Component{"redis": {Status: domain.HealthUp}},
		LastCheck:  time.Now(),
	}
	ctx := newRequest(http.MethodGet, "/actuator/health", "")
	NewHealthHandler(up, nil, nil).Check(ctx)
	assert.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), `"status":"UP"`)

	down := staticStatus{
		Components: map[string]monitor.Component{
			"redis":  {Status: domain.HealthUp},
			"review": {Status: domain.HealthDown, Error: "review service is down"},
		},
		LastCheck: time.Now(),
	}
	ctx = newRequest(http.MethodGet, "/actuator/health", "")
	NewHealthHandler(down, nil, nil).Check(ctx)
	assert.Equal(t, http.StatusServiceUnavailable, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), `"status":"DOWN"`)
}

type stubCore struct {
	product *domain.Product
	err     error
	deleted []int
}

func (s *stubCore) GetProduct(context.Context, int, int, int) (*domain.Product, error) {
	return s.product, s.err
}
func (s *stubCore) GetRecommendations(context.Context, int) []domain.Recommendation { return nil }
func (s *stubCore) GetReviews(context.Context, int) []domain.Review                 { return nil }
func (s *stubCore) CreateProduct(context.Context, domain.Product) error             { return nil }
func (s *stubCore) DeleteProduct(_ context.Context, id int) error {
	s.deleted = append(s.deleted, id)
	return nil
}
func (s *stubCore) CreateRecommendation(context.Context, domain.Recommendation) error { return nil }
func (s *stubCore) DeleteRecommendations(context.Context, int) error                  { return nil }
func (s *stubCore) CreateReview(context.Context, domain.Review) error                 { return nil }
func (s *stubCore) DeleteReviews(context.Context, int) error                          { return nil }

func TestCompositeHandler(t *testing.T) {
	core := &stubCore{product: &domain.Product{ProductID: 1, Name: "n", ServiceAddress: "pro"}}
	h := NewCompositeHandler(compositeUC.New(core, workpool.New(1), "cmp", nil), nil, nil)

	get := newRequest(http.MethodGet, "/product-composite/1?delay=0&faultPercent=0", "")
	get.SetUserValue("productId", "1")
	h.GetAggregate(get)
	require.Equal(t, http.StatusOK, get.Response.StatusCode())
	var agg domain.ProductAggregate
	require.NoError(t, json.Unmarshal(get.Response.Body(), &agg))
	assert.Equal(t, "n", agg.Name)
	assert.Equal(t, "cmp", agg.ServiceAddresses.Cmp)

	badQuery := newRequest(http.MethodGet, "/product-composite/1?delay=soon", "")
	badQuery.SetUserValue("productId", "1")
	h.GetAggregate(badQuery)
	assert.Equal(t, http.StatusBadRequest, badQuery.Response.StatusCode())

	create := newRequest(http.MethodPost, "/product-composite", `{"productId":1,"name":"n","weight":1}`)
	h.CreateAggregate(create)
	assert.Equal(t, http.StatusAccepted, create.Response.StatusCode())

	del := newRequest(http.MethodDelete, "/product-composite/1", "")
	del.SetUserValue("productId", "1")
	h.DeleteAggregate(del)
	assert.Equal(t, http.StatusAccepted, del.Response.StatusCode())
	assert.Equal(t, []int{1}, core.deleted)

	core.err = domain.NewError(domain.ErrCodeNotFound, "No product found for productId: 2")
	missing := newRequest(http.MethodGet, "/product-composite/2", "")
	missing.SetUserValue("productId", "2")
	h.GetAggregate(missing)
	assert.Equal(t, http.StatusNotFound, missing.Response.StatusCode())
	info := decodeError(t, missing)
	assert.Equal(t, "/product-composite/2", info.Path)
	assert.Equal(t, "Not Found", info.Error)
}

func TestDeadLetterHandler(t *testing.T) {
	store, err := deadletter.Open(filepath.Join(t.TempDir(), "dl.db"), "")
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Park(deadletter.Entry{ID: "e1", Topic: "products", Key: "1"}))

	h := NewDeadLetterHandler(store, nil, nil)
	list := newRequest(http.MethodGet, "/actuator/deadletters", "")
	h.List(list)
	require.Equal(t, http.StatusOK, list.Response.StatusCode())
	assert.Contains(t, string(list.Response.Body()), `"id":"e1"`)

	del := newRequest(http.MethodDelete, "/actuator/deadletters/e1", "")
	del.SetUserValue("id", "e1")
	h.Remove(del)
	assert.Equal(t, http.StatusNoContent, del.Response.StatusCode())

	size, err := store.Size()
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestProductHandlerReplaceHonorsIfMatch(t *testing.T) {
	h := NewProductHandler(productUC.New(memory.NewProductStore(), "pro", nil), nil, nil)

	h.CreateProduct(newRequest(http.MethodPost, "/product", `{"productId":1,"name":"n","weight":1}`))

	get := newRequest(http.MethodGet, "/product/1", "")
	get.SetUserValue("productId", "1")
	h.GetProduct(get)
	assert.Equal(t, `"0"`, string(get.Response.Header.Peek("ETag")))

	put := newRequest(http.MethodPut, "/product/1", `{"name":"m","weight":2}`)
	put.SetUserValue("productId", "1")
	put.Request.Header.Set("If-Match", `"0"`)
	h.UpdateProduct(put)
	require.Equal(t, http.StatusOK, put.Response.StatusCode())
	assert.Equal(t, `"1"`, string(put.Response.Header.Peek("ETag")))

	stale := newRequest(http.MethodPut, "/product/1", `{"name":"x"}`)
	stale.SetUserValue("productId", "1")
	stale.Request.Header.Set("If-Match", `"0"`)
	h.UpdateProduct(stale)
	assert.Equal(t, http.StatusConflict, stale.Response.StatusCode())
	assert.Equal(t, "/product/1", decodeError(t, stale).Path)

	malformed := newRequest(http.MethodPut, "/product/1", `{"name":"x"}`)
	malformed.SetUserValue("productId", "1")
	malformed.Request.Header.Set("If-Match", "yesterday")
	h.UpdateProduct(malformed)
	assert.Equal(t, http.StatusBadRequest, malformed.Response.StatusCode())
}
