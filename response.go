package rest

import (
	"context"
	"net/http"
	"time"
)

// Response is the outcome of a single invocation: a status code and body,
// or a typed failure in Err (errors.ConnectionError, errors.TimeoutError or
// errors.HTTPError). Responses are never shared between rows except
// through a ResultCache, which treats them as read-only.
type Response struct {
	StatusCode int
	Body       []byte
	Err        error
}

// OK returns true iff the invocation succeeded with a 2xx status
func (r *Response) OK() bool {
	return r.Err == nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Invoker issues one request for one row
type Invoker interface {
	Invoke(ctx context.Context, row InputRow) *Response
}

// InvokerFunc adapts a function to the Invoker interface
type InvokerFunc func(ctx context.Context, row InputRow) *Response

// Invoke calls fn
func (fn InvokerFunc) Invoke(ctx context.Context, row InputRow) *Response {
	return fn(ctx, row)
}

// Transport sends a single HTTP request. It is the minimal contract between the
// engine and the HTTP stack: no retries, and both timeouts are honoured per call.
type Transport interface {
	Send(ctx context.Context, method string, url string, headers http.Header, body []byte, connectTimeout, readTimeout time.Duration) (status int, respBody []byte, err error)
}
