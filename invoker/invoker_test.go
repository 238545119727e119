package invoker

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	rest "github.com/go-sif/sif-rest"
	"github.com/go-sif/sif-rest/errors"
	"github.com/stretchr/testify/require"
)

func createSpec(url string, method string) *rest.RequestSpec {
	return &rest.RequestSpec{
		URL:               url,
		Method:            method,
		ConnectionTimeout: time.Second,
		ReadTimeout:       2 * time.Second,
		BodyEncoding:      rest.JSONEncoding,
	}
}

func TestInvokeGetEncodesQuery(t *testing.T) {
	var seen *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()
	transport := NewHTTPTransport(nil)
	defer transport.Close()

	inv := New(createSpec(srv.URL+"/lookup?fixed=1", http.MethodGet), transport)
	resp := inv.Invoke(context.Background(), rest.InputRow{"region": "Northern California", "n": float64(3)})
	require.Nil(t, resp.Err)
	require.True(t, resp.OK())
	require.Equal(t, `{"ok":true}`, string(resp.Body))
	require.Equal(t, http.MethodGet, seen.Method)
	require.Equal(t, "/lookup", seen.URL.Path)
	require.Equal(t, "Northern California", seen.URL.Query().Get("region"))
	require.Equal(t, "3", seen.URL.Query().Get("n"))
	require.Equal(t, "1", seen.URL.Query().Get("fixed"))
}

func TestInvokeExpandsTemplate(t *testing.T) {
	var seen *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()
	transport := NewHTTPTransport(nil)
	defer transport.Close()

	inv := New(createSpec(srv.URL+"/regions/{region}/{missing}", http.MethodGet), transport)
	resp := inv.Invoke(context.Background(), rest.InputRow{"region": "Virgin Islands", "source": "pr"})
	require.Nil(t, resp.Err)
	require.Equal(t, "/regions/Virgin Islands/{missing}", seen.URL.Path)
	require.Equal(t, "", seen.URL.Query().Get("region"))
	require.Equal(t, "pr", seen.URL.Query().Get("source"))
}

func TestInvokePostJSON(t *testing.T) {
	var body map[string]interface{}
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		json.Unmarshal(b, &body)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()
	transport := NewHTTPTransport(nil)
	defer transport.Close()

	inv := New(createSpec(srv.URL, http.MethodPost), transport)
	resp := inv.Invoke(context.Background(), rest.InputRow{"region": "Nevada", "count": 2})
	require.Nil(t, resp.Err)
	require.Equal(t, "application/json", contentType)
	require.Equal(t, "Nevada", body["region"])
	require.Equal(t, float64(2), body["count"])
}

func TestInvokePostForm(t *testing.T) {
	var region, contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		r.ParseForm()
		region = r.PostForm.Get("region")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()
	transport := NewHTTPTransport(nil)
	defer transport.Close()

	spec := createSpec(srv.URL, http.MethodPost)
	spec.BodyEncoding = rest.FormEncoding
	resp := New(spec, transport).Invoke(context.Background(), rest.InputRow{"region": "Nevada"})
	require.Nil(t, resp.Err)
	require.Equal(t, "application/x-www-form-urlencoded", contentType)
	require.Equal(t, "Nevada", region)
}

func TestInvokeBasicAuthAndHeaders(t *testing.T) {
	var user, password, custom string
	var hasAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, password, hasAuth = r.BasicAuth()
		custom = r.Header.Get("X-Custom")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()
	transport := NewHTTPTransport(nil)
	defer transport.Close()

	spec := createSpec(srv.URL, http.MethodGet)
	spec.UserID = "alice"
	spec.UserPassword = "s3cret"
	spec.Headers = http.Header{"X-Custom": []string{"yes"}}
	resp := New(spec, transport).Invoke(context.Background(), rest.InputRow{"a": "b"})
	require.Nil(t, resp.Err)
	require.True(t, hasAuth)
	require.Equal(t, "alice", user)
	require.Equal(t, "s3cret", password)
	require.Equal(t, "yes", custom)
}

func TestInvokeHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()
	transport := NewHTTPTransport(nil)
	defer transport.Close()

	resp := New(createSpec(srv.URL, http.MethodGet), transport).Invoke(context.Background(), rest.InputRow{"a": "b"})
	require.False(t, resp.OK())
	httpErr, ok := resp.Err.(errors.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
	require.Equal(t, "boom", string(httpErr.Body))
	require.Equal(t, "HTTP 500: boom", httpErr.Error())
}

func TestInvokeConnectionError(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.Nil(t, err)
	addr := lis.Addr().String()
	require.Nil(t, lis.Close())
	transport := NewHTTPTransport(nil)
	defer transport.Close()

	resp := New(createSpec("http://"+addr, http.MethodGet), transport).Invoke(context.Background(), rest.InputRow{"a": "b"})
	_, ok := resp.Err.(errors.ConnectionError)
	require.True(t, ok, "expected ConnectionError, got %T: %v", resp.Err, resp.Err)
}

func TestInvokeTimeoutError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-time.After(2 * time.Second):
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()
	defer close(release)
	transport := NewHTTPTransport(nil)
	defer transport.Close()

	spec := createSpec(srv.URL, http.MethodGet)
	spec.ConnectionTimeout = 50 * time.Millisecond
	spec.ReadTimeout = 50 * time.Millisecond
	resp := New(spec, transport).Invoke(context.Background(), rest.InputRow{"a": "b"})
	_, ok := resp.Err.(errors.TimeoutError)
	require.True(t, ok, "expected TimeoutError, got %T: %v", resp.Err, resp.Err)
}

func TestInvokeCancelledJob(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()
	transport := NewHTTPTransport(nil)
	defer transport.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	resp := New(createSpec(srv.URL, http.MethodGet), transport).Invoke(ctx, rest.InputRow{"a": "b"})
	require.Equal(t, context.Canceled, resp.Err)
}

func TestInvokeClassifiesCustomTransportErrors(t *testing.T) {
	transport := &funcTransport{err: &net.DNSError{Err: "no such host", Name: "example.invalid", IsTimeout: true}}
	resp := New(createSpec("http://example.invalid", http.MethodGet), transport).Invoke(context.Background(), rest.InputRow{})
	_, ok := resp.Err.(errors.TimeoutError)
	require.True(t, ok)

	transport = &funcTransport{err: io.ErrUnexpectedEOF}
	resp = New(createSpec("http://example.invalid", http.MethodGet), transport).Invoke(context.Background(), rest.InputRow{})
	_, ok = resp.Err.(errors.ConnectionError)
	require.True(t, ok)
}

type funcTransport struct {
	err error
}

func (f *funcTransport) Send(ctx context.Context, method string, url string, headers http.Header, body []byte, connectTimeout, readTimeout time.Duration) (int, []byte, error) {
	return 0, nil, f.err
}
