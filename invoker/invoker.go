package invoker

import (
	"context"
	"encoding/base64"
	goerrors "errors"
	"net"
	"net/http"

	rest "github.com/go-sif/sif-rest"
	"github.com/go-sif/sif-rest/errors"
)

// restInvoker turns rows into requests according to a RequestSpec
type restInvoker struct {
	spec      *rest.RequestSpec
	transport rest.Transport
}

// New returns an Invoker which sends one request per row through transport.
// There is no retry: each call is a single attempt.
func New(spec *rest.RequestSpec, transport rest.Transport) rest.Invoker {
	return &restInvoker{spec: spec, transport: transport}
}

// Invoke sends the request for a single row
func (inv *restInvoker) Invoke(ctx context.Context, row rest.InputRow) *rest.Response {
	target, body, headers, err := inv.buildRequest(row)
	if err != nil {
		return &rest.Response{Err: errors.ConnectionError{URL: inv.spec.URL, Cause: err}}
	}
	status, respBody, err := inv.transport.Send(ctx, inv.spec.Method, target, headers, body, inv.spec.ConnectionTimeout, inv.spec.ReadTimeout)
	if err != nil {
		return &rest.Response{Err: inv.classify(ctx, target, err)}
	}
	if status < 200 || status >= 300 {
		return &rest.Response{StatusCode: status, Body: respBody, Err: errors.HTTPError{StatusCode: status, Body: respBody}}
	}
	return &rest.Response{StatusCode: status, Body: respBody}
}

// buildRequest produces the target url, body and headers for row
func (inv *restInvoker) buildRequest(row rest.InputRow) (string, []byte, http.Header, error) {
	expanded, consumed := expandTemplate(inv.spec.URL, row)
	params := remainingValues(row, consumed)
	headers := http.Header{}
	for k, vs := range inv.spec.Headers {
		for _, v := range vs {
			headers.Add(k, v)
		}
	}
	if inv.spec.HasBasicAuth() {
		headers.Set("Authorization", basicAuth(inv.spec.UserID, inv.spec.UserPassword))
	}

	var body []byte
	if inv.spec.Method == http.MethodPost {
		encoded, contentType, err := encodeBody(params, inv.spec.BodyEncoding)
		if err != nil {
			return "", nil, nil, err
		}
		body = encoded
		headers.Set("Content-Type", contentType)
		target, err := appendQuery(expanded, nil)
		return target, body, headers, err
	}
	target, err := appendQuery(expanded, params)
	return target, nil, headers, err
}

// classify maps a transport error onto the typed failures. Errors which are already
// typed pass through, as does cancellation of the job itself.
func (inv *restInvoker) classify(ctx context.Context, target string, err error) error {
	var te errors.TimeoutError
	var ce errors.ConnectionError
	if goerrors.As(err, &te) || goerrors.As(err, &ce) {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var ne net.Error
	if goerrors.Is(err, context.DeadlineExceeded) || (goerrors.As(err, &ne) && ne.Timeout()) {
		return errors.TimeoutError{URL: target, Timeout: inv.spec.ConnectionTimeout + inv.spec.ReadTimeout, Cause: err}
	}
	return errors.ConnectionError{URL: target, Cause: err}
}

func basicAuth(user, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+password))
}
