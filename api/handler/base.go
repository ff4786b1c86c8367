package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/composite/api/transport"
	"github.com/fastygo/composite/domain"
	"github.com/fastygo/composite/pkg/httpcontext"
)

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{adapter: adapter, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.Attach(ctx)
	}
	return context.WithCancel(context.Background())
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload any) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	if payload == nil {
		return
	}
	body, _ := json.Marshal(payload)
	ctx.SetBody(body)
}

func (h baseHandler) respondError(ctx *fasthttp.RequestCtx, err error) {
	status, message := mapError(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", string(ctx.Path())),
			zap.ByteString("request_id", ctx.Response.Header.Peek("X-Request-ID")),
			zap.Error(err))
	}
	h.respondJSON(ctx, status, transport.NewErrorInfo(string(ctx.Path()), status, message))
}

// decodeBody unmarshals the request body; malformed JSON is a bad request.
func decodeBody(ctx *fasthttp.RequestCtx, dst any) error {
	if err := json.Unmarshal(ctx.PostBody(), dst); err != nil {
		return domain.WrapError(domain.ErrCodeBadRequest, "Malformed request body", err)
	}
	return nil
}

func pathParam(ctx *fasthttp.RequestCtx, name string) string {
	if v, ok := ctx.UserValue(name).(string); ok {
		return v
	}
	return ""
}

func mapError(err error) (int, string) {
	var dErr *domain.Error
	if !errors.As(err, &dErr) {
		return http.StatusInternalServerError, "Internal server error"
	}
	switch dErr.Code {
	case domain.ErrCodeBadRequest:
		return http.StatusBadRequest, dErr.Message
	case domain.ErrCodeInvalid:
		return http.StatusUnprocessableEntity, dErr.Message
	case domain.ErrCodeNotFound:
		return http.StatusNotFound, dErr.Message
	case domain.ErrCodeConflict:
		return http.StatusConflict, dErr.Message
	case domain.ErrCodeUnavailable:
		return http.StatusServiceUnavailable, dErr.Message
	case domain.ErrCodeUnauthorized:
		return http.StatusUnauthorized, dErr.Message
	case domain.ErrCodeForbidden:
		return http.StatusForbidden, dErr.Message
	case domain.ErrCodeUnexpected:
		if dErr.Status >= http.StatusBadRequest {
			if msg := transport.UpstreamMessage(dErr.Body); msg != "" {
				return dErr.Status, msg
			}
			return dErr.Status, dErr.Message
		}
		return http.StatusInternalServerError, dErr.Message
	default:
		return http.StatusInternalServerError, dErr.Message
	}
}
