package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/composite/api/transport"
	"github.com/fastygo/composite/domain"
	"github.com/fastygo/composite/pkg/httpcontext"
	reviewUC "github.com/fastygo/composite/usecase/review"
)

type ReviewHandler struct {
	baseHandler
	uc *reviewUC.UseCase
}

func NewReviewHandler(uc *reviewUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *ReviewHandler {
	return &ReviewHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List reviews of a product
// @Tags review
// @Router /review [get]
func (h *ReviewHandler) GetReviews(ctx *fasthttp.RequestCtx) {
	productID, err := transport.ParseProductID(string(ctx.QueryArgs().Peek("productId")))
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	items, err := h.uc.GetReviews(stdCtx, productID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, items)
}

// @Summary Create review
// @Tags review
// @Router /review [post]
func (h *ReviewHandler) CreateReview(ctx *fasthttp.RequestCtx) {
	var body domain.Review
	if err := decodeBody(ctx, &body); err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.CreateReview(stdCtx, body)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, created)
}

// @Summary Replace review
// @Tags review
// @Router /review [put]
func (h *ReviewHandler) UpdateReview(ctx *fasthttp.RequestCtx) {
	version, err := transport.ParseIfMatch(string(ctx.Request.Header.Peek("If-Match")))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	var body domain.Review
	if err := decodeBody(ctx, &body); err != nil {
		h.respondError(ctx, err)
		return
	}
	body.Version = version

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.UpdateReview(stdCtx, body)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.Response.Header.Set("ETag", transport.ETag(updated.Version))
	h.respondJSON(ctx, http.StatusOK, updated)
}

// @Summary Delete all reviews of a product
// @Tags review
// @Router /review [delete]
func (h *ReviewHandler) DeleteReviews(ctx *fasthttp.RequestCtx) {
	productID, err := transport.ParseProductID(string(ctx.QueryArgs().Peek("productId")))
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.DeleteReviews(stdCtx, productID); err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.SetStatusCode(http.StatusOK)
}
