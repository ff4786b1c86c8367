package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/composite/api/transport"
	"github.com/fastygo/composite/domain"
	"github.com/fastygo/composite/pkg/httpcontext"
	compositeUC "github.com/fastygo/composite/usecase/composite"
)

type CompositeHandler struct {
	baseHandler
	uc *compositeUC.UseCase
}

func NewCompositeHandler(uc *compositeUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *CompositeHandler {
	return &CompositeHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Get composite product
// @Tags product-composite
// @Router /product-composite/{productId} [get]
func (h *CompositeHandler) GetAggregate(ctx *fasthttp.RequestCtx) {
	productID, err := transport.ParseProductID(pathParam(ctx, "productId"))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	delay, err := transport.QueryInt(ctx.QueryArgs(), "delay", 0)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	faultPercent, err := transport.QueryInt(ctx.QueryArgs(), "faultPercent", 0)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	aggregate, err := h.uc.GetAggregate(stdCtx, productID, delay, faultPercent)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, aggregate)
}

// @Summary Create composite product
// @Tags product-composite
// @Router /product-composite [post]
func (h *CompositeHandler) CreateAggregate(ctx *fasthttp.RequestCtx) {
	var body domain.ProductAggregate
	if err := decodeBody(ctx, &body); err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.CreateAggregate(stdCtx, body); err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.SetStatusCode(http.StatusAccepted)
}

// @Summary Delete composite product
// @Tags product-composite
// @Router /product-composite/{productId} [delete]
func (h *CompositeHandler) DeleteAggregate(ctx *fasthttp.RequestCtx) {
	productID, err := transport.ParseProductID(pathParam(ctx, "productId"))
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.DeleteAggregate(stdCtx, productID); err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.SetStatusCode(http.StatusAccepted)
}
