package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/composite/api/transport"
	"github.com/fastygo/composite/domain"
	"github.com/fastygo/composite/pkg/httpcontext"
	productUC "github.com/fastygo/composite/usecase/product"
)

type ProductHandler struct {
	baseHandler
	uc *productUC.UseCase
}

func NewProductHandler(uc *productUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Get product
// @Tags product
// @Router /product/{productId} [get]
func (h *ProductHandler) GetProduct(ctx *fasthttp.RequestCtx) {
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

	product, err := h.uc.GetProduct(stdCtx, productID, delay, faultPercent)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.Response.Header.Set("ETag", transport.ETag(product.Version))
	h.respondJSON(ctx, http.StatusOK, product)
}

// @Summary Create product
// @Tags product
// @Router /product [post]
func (h *ProductHandler) CreateProduct(ctx *fasthttp.RequestCtx) {
	var body domain.Product
	if err := decodeBody(ctx, &body); err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.CreateProduct(stdCtx, body)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, created)
}

// @Summary Replace product
// @Tags product
// @Router /product/{productId} [put]
func (h *ProductHandler) UpdateProduct(ctx *fasthttp.RequestCtx) {
	productID, err := transport.ParseProductID(pathParam(ctx, "productId"))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	version, err := transport.ParseIfMatch(string(ctx.Request.Header.Peek("If-Match")))
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	var body domain.Product
	if err := decodeBody(ctx, &body); err != nil {
		h.respondError(ctx, err)
		return
	}
	body.ProductID = productID
	body.Version = version

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.UpdateProduct(stdCtx, body)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.Response.Header.Set("ETag", transport.ETag(updated.Version))
	h.respondJSON(ctx, http.StatusOK, updated)
}

// @Summary Delete product
// @Tags product
// @Router /product/{productId} [delete]
func (h *ProductHandler) DeleteProduct(ctx *fasthttp.RequestCtx) {
	productID, err := transport.ParseProductID(pathParam(ctx, "productId"))
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.DeleteProduct(stdCtx, productID); err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.SetStatusCode(http.StatusOK)
}
