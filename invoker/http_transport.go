package invoker

import (
	"bytes"
	"context"
	"crypto/tls"
	goerrors "errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-sif/sif-rest/errors"
	"golang.org/x/net/context/ctxhttp"
)

type connectTimeoutKey struct{}

// HTTPTransportConfig configures an HTTPTransport
type HTTPTransportConfig struct {
	MaxIdleConnsPerHost int               // idle connections retained per host. Defaults to 16.
	InsecureSkipVerify  bool              // iff true, TLS certificates are not verified
	RoundTripper        http.RoundTripper // optional; replaces the default *http.Transport (timeouts then rely on the request context only)
}

// HTTPTransport is the default rest.Transport, built on net/http. Connection and
// read timeouts are applied per call: the dial is bounded by the connection
// timeout, and the whole exchange by the sum of both.
type HTTPTransport struct {
	client    *http.Client
	transport *http.Transport
}

// NewHTTPTransport is a factory for HTTPTransports
func NewHTTPTransport(conf *HTTPTransportConfig) *HTTPTransport {
	if conf == nil {
		conf = &HTTPTransportConfig{}
	}
	if conf.MaxIdleConnsPerHost == 0 {
		conf.MaxIdleConnsPerHost = 16
	}
	res := &HTTPTransport{}
	if conf.RoundTripper != nil {
		res.client = &http.Client{Transport: conf.RoundTripper}
		return res
	}
	res.transport = &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialWithConnectTimeout,
		MaxIdleConnsPerHost: conf.MaxIdleConnsPerHost,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: conf.InsecureSkipVerify, //nolint:gosec // explicitly configurable
		},
	}
	res.client = &http.Client{Transport: res.transport}
	return res
}

// dialWithConnectTimeout dials with the connection timeout carried by the request context
func dialWithConnectTimeout(ctx context.Context, network, addr string) (net.Conn, error) {
	d := net.Dialer{KeepAlive: 30 * time.Second}
	if timeout, ok := ctx.Value(connectTimeoutKey{}).(time.Duration); ok {
		d.Timeout = timeout
	}
	return d.DialContext(ctx, network, addr)
}

// Send issues a single request and reads the complete response body
func (t *HTTPTransport) Send(ctx context.Context, method string, url string, headers http.Header, body []byte, connectTimeout, readTimeout time.Duration) (int, []byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, connectTimeout+readTimeout)
	defer cancel()
	reqCtx = context.WithValue(reqCtx, connectTimeoutKey{}, connectTimeout)

	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return 0, nil, errors.ConnectionError{URL: url, Cause: err}
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	resp, err := ctxhttp.Do(reqCtx, t.client, req)
	if err != nil {
		return 0, nil, classifyTransportError(ctx, url, err, connectTimeout, readTimeout)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, classifyTransportError(ctx, url, err, connectTimeout, readTimeout)
	}
	return resp.StatusCode, respBody, nil
}

// Close releases idle connections held by this HTTPTransport
func (t *HTTPTransport) Close() {
	if t.transport != nil {
		t.transport.CloseIdleConnections()
	}
}

func classifyTransportError(ctx context.Context, url string, err error, connectTimeout, readTimeout time.Duration) error {
	// the job itself was cancelled, which is not a row failure
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var opErr *net.OpError
	isDial := goerrors.As(err, &opErr) && opErr.Op == "dial"
	var ne net.Error
	if goerrors.Is(err, context.DeadlineExceeded) || (goerrors.As(err, &ne) && ne.Timeout()) {
		if isDial {
			return errors.TimeoutError{URL: url, Timeout: connectTimeout, Cause: err}
		}
		return errors.TimeoutError{URL: url, Timeout: connectTimeout + readTimeout, Cause: err}
	}
	return errors.ConnectionError{URL: url, Cause: err}
}
