package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/composite/api/transport"
	"github.com/fastygo/composite/domain"
	"github.com/fastygo/composite/internal/infrastructure/monitor"
	"github.com/fastygo/composite/pkg/httpcontext"
)

// StatusSource reports the last observed health of the process dependencies.
type StatusSource interface {
	GetStatus() monitor.Status
}

type HealthHandler struct {
	baseHandler
	monitor StatusSource
}

func NewHealthHandler(mon StatusSource, adapter *httpcontext.Adapter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		monitor:     mon,
	}
}

// @Summary Health check
// @Tags health
// @Router /actuator/health [get]
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	status := h.monitor.GetStatus()
	components := make(map[string]any, len(status.Components))
	for name, c := range status.Components {
		components[name] = c
	}
	payload := transport.Health{Status: status.Overall(), Components: components}

	if payload.Status == domain.HealthUp {
		h.respondJSON(ctx, http.StatusOK, payload)
		return
	}
	h.respondJSON(ctx, http.StatusServiceUnavailable, payload)
}
