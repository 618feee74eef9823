// Package gateway is the single path the console uses to talk to the
// institute's REST API. It attaches the caller's bearer token, chooses a
// JSON or multipart body and normalizes failures into *Error.
package gateway

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/procodebh/crm-console/logger"
	"github.com/procodebh/crm-console/util/metrics"
	"github.com/valyala/fasthttp"
)

// ErrUnsupportedMethod is returned before any I/O for methods other than
// GET, POST, PUT and DELETE.
var ErrUnsupportedMethod = errors.New("unsupported method")

// Method is an HTTP method the backend accepts.
type Method string

const (
	GET    Method = "GET"
	POST   Method = "POST"
	PUT    Method = "PUT"
	DELETE Method = "DELETE"
)

func (m Method) valid() bool {
	switch m {
	case GET, POST, PUT, DELETE:
		return true
	}
	return false
}

// ParseMethod accepts a method name in any case.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(s)))
	if !m.valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMethod, s)
	}
	return m, nil
}

// TokenSource yields the current bearer token. It is consulted on every
// call; an empty token sends no Authorization header.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// Tokens is the default token source. WithToken overrides it per session.
	Tokens TokenSource
}

// Client calls the backend at a fixed base address.
type Client struct {
	base    string
	timeout time.Duration
	tokens  TokenSource
	http    *fasthttp.Client
}

// NewClient creates a Client. A zero timeout means 15 seconds.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		base:    strings.TrimRight(opts.BaseURL, "/"),
		timeout: timeout,
		tokens:  opts.Tokens,
		http: &fasthttp.Client{
			Name:                "procode-console",
			MaxConnsPerHost:     64,
			MaxIdleConnDuration: 30 * time.Second,
		},
	}
}

// BaseURL returns the backend base address.
func (c *Client) BaseURL() string {
	return c.base
}

// WithToken returns a Client sharing c's transport that reads its bearer
// token from tokens.
func (c *Client) WithToken(tokens TokenSource) *Client {
	cp := *c
	cp.tokens = tokens
	return &cp
}

// Call performs one request against endpoint (a path relative to the base
// address, e.g. "/students/42").
//
// payload may be nil, a Form (always multipart), a Payload or map[string]any
// (multipart when it holds a *File at any depth, JSON otherwise), or any
// other JSON-encodable value.
func (c *Client) Call(ctx context.Context, endpoint string, method Method, payload any) (*Response, error) {
	if !method.valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMethod, string(method))
	}
	if ctx == nil {
		ctx = context.Background()
	}

	body, contentType, err := encodeBody(payload)
	if err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.url(endpoint))
	req.Header.SetMethod(string(method))
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	if contentType != "" {
		req.Header.SetContentType(contentType)
		req.SetBody(body)
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+token)
		}
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}

	start := time.Now()
	err = c.http.DoDeadline(req, resp, deadline)
	metrics.BackendCallDuration.WithLabelValues(string(method)).Observe(time.Since(start).Seconds())

	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		metrics.BackendCallsTotal.WithLabelValues(string(method), "network_error").Inc()
		logger.Warningf("backend %s %s failed: %v", method, endpoint, err)
		return nil, networkError(err)
	}

	status := resp.StatusCode()
	metrics.BackendCallsTotal.WithLabelValues(string(method), statusClass(status)).Inc()

	raw := append([]byte(nil), resp.Body()...)
	env := decodeEnvelope(raw)

	if status < 200 || status > 299 {
		logger.Debugf("backend %s %s returned %d", method, endpoint, status)
		msg, generic := env.failureMessage(status)
		return nil, &Error{Status: status, Message: msg, Body: raw, generic: generic}
	}
	return &Response{
		Status:  status,
		Message: env.Message,
		Data:    env.Data,
		Raw:     raw,
	}, nil
}

// statusClass buckets a status code for metrics, e.g. 404 -> "4xx".
func statusClass(status int) string {
	return fmt.Sprintf("%dxx", status/100)
}

// Get, Post, Put and Delete are shorthands for Call.
func (c *Client) Get(ctx context.Context, endpoint string) (*Response, error) {
	return c.Call(ctx, endpoint, GET, nil)
}

func (c *Client) Post(ctx context.Context, endpoint string, payload any) (*Response, error) {
	return c.Call(ctx, endpoint, POST, payload)
}

func (c *Client) Put(ctx context.Context, endpoint string, payload any) (*Response, error) {
	return c.Call(ctx, endpoint, PUT, payload)
}

func (c *Client) Delete(ctx context.Context, endpoint string) (*Response, error) {
	return c.Call(ctx, endpoint, DELETE, nil)
}

func (c *Client) url(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	return c.base + endpoint
}

func encodeBody(payload any) ([]byte, string, error) {
	switch p := payload.(type) {
	case nil:
		return nil, "", nil
	case Form:
		return encodeMultipart(p)
	case Payload:
		if p == nil {
			return nil, "", nil
		}
		if containsFile(p) {
			return encodeMultipart(p)
		}
	case map[string]any:
		if p == nil {
			return nil, "", nil
		}
		if containsFile(p) {
			return encodeMultipart(p)
		}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, "", fmt.Errorf("encode request body: %w", err)
	}
	return body, "application/json", nil
}

// envelope is the backend's response shape.
type envelope struct {
	Message string          `json:"message"`
	Error   any             `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(raw []byte) envelope {
	var env envelope
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return env
	}
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return envelope{}
	}
	return env
}

// failureMessage picks the backend's message, then its error, then a
// generic text. generic is true for the last.
func (e envelope) failureMessage(status int) (msg string, generic bool) {
	if e.Message != "" {
		return e.Message, false
	}
	switch v := e.Error.(type) {
	case string:
		if v != "" {
			return v, false
		}
	case map[string]any:
		if msg, ok := v["message"].(string); ok && msg != "" {
			return msg, false
		}
	}
	return fmt.Sprintf("Request failed with status code %d", status), true
}
