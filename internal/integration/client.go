package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/composite/pkg/logger"
)

// HTTPError is a non-2xx answer from a core service.
type HTTPError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("http %d", e.StatusCode)
}

// errorBody is the error payload written by the core services.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func parseHTTPError(status int, body []byte) *HTTPError {
	httpErr := &HTTPError{StatusCode: status, Body: string(body)}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		httpErr.Message = eb.Message
		if httpErr.Message == "" {
			httpErr.Message = eb.Error
		}
	}
	return httpErr
}

type httpClient struct {
	client  *fasthttp.Client
	timeout time.Duration
}

func newHTTPClient(timeout time.Duration, maxConnsPerHost int) *httpClient {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if maxConnsPerHost <= 0 {
		maxConnsPerHost = fasthttp.DefaultMaxConnsPerHost
	}
	return &httpClient{
		client: &fasthttp.Client{
			Name:                "product-composite",
			MaxConnsPerHost:     maxConnsPerHost,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: 30 * time.Second,
		},
		timeout: timeout,
	}
}

type result struct {
	status int
	body   []byte
	err    error
}

// get performs a GET bounded by both the call timeout and ctx. When ctx ends
// first the request keeps running in the background and its result is dropped.
func (c *httpClient) get(ctx context.Context, uri string) (int, []byte, error) {
	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	reqID := logger.RequestIDFromContext(ctx)

	ch := make(chan result, 1)
	go func() {
		req := fasthttp.AcquireRequest()
		resp := fasthttp.AcquireResponse()
		defer fasthttp.ReleaseRequest(req)
		defer fasthttp.ReleaseResponse(resp)

		req.SetRequestURI(uri)
		req.Header.SetMethod(fasthttp.MethodGet)
		req.Header.Set("Accept", "application/json")
		if reqID != "" {
			req.Header.Set("X-Request-ID", reqID)
		}

		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			ch <- result{err: err}
			return
		}
		ch <- result{status: resp.StatusCode(), body: append([]byte(nil), resp.Body()...)}
	}()

	select {
	case <-ctx.Done():
		return 0, nil, ctx.Err()
	case r := <-ch:
		return r.status, r.body, r.err
	}
}

// getJSON decodes a 2xx body into out and turns anything else into *HTTPError.
func (c *httpClient) getJSON(ctx context.Context, uri string, out any) error {
	status, body, err := c.get(ctx, uri)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return parseHTTPError(status, body)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response of %s: %w", uri, err)
	}
	return nil
}
