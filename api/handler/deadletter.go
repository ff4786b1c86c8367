package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/composite/api/transport"
	"github.com/fastygo/composite/domain"
	"github.com/fastygo/composite/internal/infrastructure/deadletter"
	"github.com/fastygo/composite/pkg/httpcontext"
)

// DeadLetterHandler lets operators inspect and discard parked messages.
type DeadLetterHandler struct {
	baseHandler
	store *deadletter.Store
}

func NewDeadLetterHandler(store *deadletter.Store, adapter *httpcontext.Adapter, logger *zap.Logger) *DeadLetterHandler {
	return &DeadLetterHandler{
		baseHandler: newBaseHandler(adapter, logger),
		store:       store,
	}
}

// @Summary List parked messages
// @Tags deadletter
// @Router /actuator/deadletters [get]
func (h *DeadLetterHandler) List(ctx *fasthttp.RequestCtx) {
	limit, err := transport.QueryInt(ctx.QueryArgs(), "limit", 50)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	entries, err := h.store.List(limit)
	if err != nil {
		h.respondError(ctx, domain.WrapError(domain.ErrCodeUnavailable, "dead-letter store unavailable", err))
		return
	}
	h.respondJSON(ctx, http.StatusOK, entries)
}

// @Summary Discard a parked message
// @Tags deadletter
// @Router /actuator/deadletters/{id} [delete]
func (h *DeadLetterHandler) Remove(ctx *fasthttp.RequestCtx) {
	if err := h.store.Remove(pathParam(ctx, "id")); err != nil {
		h.respondError(ctx, domain.WrapError(domain.ErrCodeUnavailable, "dead-letter store unavailable", err))
		return
	}
	ctx.SetStatusCode(http.StatusNoContent)
}
