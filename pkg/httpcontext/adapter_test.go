package httpcontext

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/composite/pkg/logger"
)

func TestAttachKeepsIncomingRequestID(t *testing.T) {
	var rc fasthttp.RequestCtx
	rc.Request.SetRequestURI("/product-composite/1")
	rc.Request.Header.Set("X-Request-ID", "req-1")
	rc.Request.Header.SetUserAgent("composite-test")

	ctx, cancel := NewAdapter(time.Second).Attach(&rc)
	defer cancel()

	assert.Equal(t, "req-1", appLogger.RequestIDFromContext(ctx))
	assert.Equal(t, "req-1", string(rc.Response.Header.Peek("X-Request-ID")))
	assert.Equal(t, "composite-test", ctx.Value(KeyUserAgent))
}

func TestAttachGeneratesRequestIDAndDeadline(t *testing.T) {
	var rc fasthttp.RequestCtx
	rc.Request.SetRequestURI("/product/1")

	ctx, cancel := NewAdapter(0).Attach(&rc)
	defer cancel()

	assert.NotEmpty(t, appLogger.RequestIDFromContext(ctx))
	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(5*time.Second), deadline, time.Second)
}
