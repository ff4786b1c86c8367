package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/composite/api/transport"
	"github.com/fastygo/composite/domain"
	"github.com/fastygo/composite/pkg/httpcontext"
	recommendationUC "github.com/fastygo/composite/usecase/recommendation"
)

type RecommendationHandler struct {
	baseHandler
	uc *recommendationUC.UseCase
}

func NewRecommendationHandler(uc *recommendationUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *RecommendationHandler {
	return &RecommendationHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List recommendations of a product
// @Tags recommendation
// @Router /recommendation [get]
func (h *RecommendationHandler) GetRecommendations(ctx *fasthttp.RequestCtx) {
	productID, err := transport.ParseProductID(string(ctx.QueryArgs().Peek("productId")))
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	items, err := h.uc.GetRecommendations(stdCtx, productID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, items)
}

// @Summary Create recommendation
// @Tags recommendation
// @Router /recommendation [post]
func (h *RecommendationHandler) CreateRecommendation(ctx *fasthttp.RequestCtx) {
	var body domain.Recommendation
	if err := decodeBody(ctx, &body); err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.CreateRecommendation(stdCtx, body)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, created)
}

// @Summary Replace recommendation
// @Tags recommendation
// @Router /recommendation [put]
func (h *RecommendationHandler) UpdateRecommendation(ctx *fasthttp.RequestCtx) {
	version, err := transport.ParseIfMatch(string(ctx.Request.Header.Peek("If-Match")))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	var body domain.Recommendation
	if err := decodeBody(ctx, &body); err != nil {
		h.respondError(ctx, err)
		return
	}
	body.Version = version

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.UpdateRecommendation(stdCtx, body)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.Response.Header.Set("ETag", transport.ETag(updated.Version))
	h.respondJSON(ctx, http.StatusOK, updated)
}

// @Summary Delete all recommendations of a product
// @Tags recommendation
// @Router /recommendation [delete]
func (h *RecommendationHandler) DeleteRecommendations(ctx *fasthttp.RequestCtx) {
	productID, err := transport.ParseProductID(string(ctx.QueryArgs().Peek("productId")))
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.DeleteRecommendations(stdCtx, productID); err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.SetStatusCode(http.StatusOK)
}
