// Package httputil holds the JSON-over-HTTP plumbing shared by the debug API
// and the remote tile provider.
package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

// maxResponseBytes caps how much of an upstream body is read.
const maxResponseBytes = 32 << 20

// ErrStatus is returned, wrapped in a *StatusError, for non-2xx responses.
var ErrStatus = errors.New("unexpected http status")

// StatusError records a non-2xx upstream response.
type StatusError struct {
	URL    string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d: %s", e.URL, e.Status, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrStatus }

// Doer sends a single HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// JSONClient issues GET requests against a base URL and decodes JSON bodies.
type JSONClient struct {
	base *url.URL
	doer Doer
}

// NewJSONClient parses base and wraps doer. A nil doer uses http.DefaultClient.
func NewJSONClient(base string, doer Doer) (*JSONClient, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", base, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", base)
	}
	if doer == nil {
		doer = http.DefaultClient
	}
	return &JSONClient{base: u, doer: doer}, nil
}

// URL resolves path and query against the base URL.
func (c *JSONClient) URL(path string, query url.Values) string {
	u := *c.base
	u.Path = c.base.Path + "/" + strings.TrimLeft(path, "/")
	u.RawQuery = query.Encode()
	return u.String()
}

// GetJSON fetches path and decodes the body into out.
func (c *JSONClient) GetJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	target := c.URL(path, query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.doer.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read %s: %w", target, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{URL: target, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", target, err)
	}
	return nil
}

// MockDoer replays scripted responses and records every request it sees.
type MockDoer struct {
	mu        sync.Mutex
	requests  []*http.Request
	responses []mockResponse
	next      int
}

type mockResponse struct {
	status int
	body   string
	err    error
}

// NewMockDoer returns an empty MockDoer. Unscripted requests get 200 with "{}".
func NewMockDoer() *MockDoer {
	return &MockDoer{}
}

// Respond queues a response body with the given status.
func (m *MockDoer) Respond(status int, body string) *MockDoer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, mockResponse{status: status, body: body})
	return m
}

// RespondJSON queues a 200 response holding v encoded as JSON.
func (m *MockDoer) RespondJSON(v interface{}) *MockDoer {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("httputil: marshal mock response: %v", err))
	}
	return m.Respond(http.StatusOK, string(b))
}

// Fail queues a transport error.
func (m *MockDoer) Fail(err error) *MockDoer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, mockResponse{err: err})
	return m
}

// Do implements Doer.
func (m *MockDoer) Do(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)

	r := mockResponse{status: http.StatusOK, body: "{}"}
	if m.next < len(m.responses) {
		r = m.responses[m.next]
		m.next++
	}
	if r.err != nil {
		return nil, r.err
	}
	return &http.Response{
		StatusCode: r.status,
		Body:       io.NopCloser(bytes.NewBufferString(r.body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Request:    req,
	}, nil
}

// Requests returns a copy of the recorded requests.
func (m *MockDoer) Requests() []*http.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*http.Request(nil), m.requests...)
}
