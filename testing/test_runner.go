// Package testing provides utilities for running REST jobs against scripted local endpoints
package testing

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"

	rest "github.com/go-sif/sif-rest"
	"github.com/go-sif/sif-rest/datasource/memory"
	"github.com/go-sif/sif-rest/job"
	jsoniter "github.com/json-iterator/go"
)

// MockRequest is a request received by a MockEndpoint, with its parameters decoded
// from the query string, a form body or a JSON body
type MockRequest struct {
	Method string
	Path   string
	Params url.Values
	Header http.Header
}

// MockHandler scripts the answer of a MockEndpoint to a request
type MockHandler func(req *MockRequest) (status int, body string)

// MockEndpoint is a local HTTP server which answers requests with a MockHandler,
// and counts the requests it receives per distinct set of parameters
type MockEndpoint struct {
	server  *httptest.Server
	handler MockHandler
	lock    sync.Mutex
	calls   map[string]int
	total   int
}

// CreateMockEndpoint starts a MockEndpoint
func CreateMockEndpoint(handler MockHandler) *MockEndpoint {
	m := &MockEndpoint{handler: handler, calls: make(map[string]int)}
	m.server = httptest.NewServer(http.HandlerFunc(m.serve))
	return m
}

func (m *MockEndpoint) serve(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	m.lock.Lock()
	m.calls[callKey(req.Path, req.Params)]++
	m.total++
	m.lock.Unlock()
	status, body := m.handler(req)
	w.WriteHeader(status)
	io.WriteString(w, body)
}

func decodeRequest(r *http.Request) (*MockRequest, error) {
	req := &MockRequest{Method: r.Method, Path: r.URL.Path, Params: r.URL.Query(), Header: r.Header}
	if r.Method != http.MethodPost {
		return req, nil
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		form, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, err
		}
		for k, vs := range form {
			req.Params[k] = vs
		}
		return req, nil
	}
	if len(body) > 0 {
		decoded := make(map[string]interface{})
		if err := jsoniter.Unmarshal(body, &decoded); err != nil {
			return nil, err
		}
		for k, v := range decoded {
			req.Params.Set(k, fmt.Sprint(v))
		}
	}
	return req, nil
}

func callKey(path string, params url.Values) string {
	return path + "?" + params.Encode()
}

// URL returns the base url of this MockEndpoint
func (m *MockEndpoint) URL() string {
	return m.server.URL
}

// Calls returns the total number of requests received
func (m *MockEndpoint) Calls() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.total
}

// CallsFor returns the number of requests received for a path and set of parameters
func (m *MockEndpoint) CallsFor(path string, params url.Values) int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.calls[callKey(path, params)]
}

// MaxCallsPerRequest returns the highest number of requests received for any single set of parameters
func (m *MockEndpoint) MaxCallsPerRequest() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	max := 0
	for _, n := range m.calls {
		if n > max {
			max = n
		}
	}
	return max
}

// Close shuts down this MockEndpoint
func (m *MockEndpoint) Close() {
	m.server.Close()
}

// LocalRunJob runs a job over rows, which are supplied via an in-memory source
// unless opts already names an Input
func LocalRunJob(ctx context.Context, opts *rest.Options, rows []rest.InputRow) (result *job.Result, err error) {
	// handle panics
	defer func() {
		if r := recover(); r != nil {
			if anErr, ok := r.(error); ok {
				err = anErr
			} else {
				panic(r)
			}
		}
	}()
	runOpts := rest.CloneOptions(opts)
	if runOpts.Input == nil {
		runOpts.Input = memory.CreateSource(rows)
	}
	return job.Run(ctx, runOpts)
}
