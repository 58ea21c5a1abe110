// Package client implements the authenticated API dispatcher: one HTTP call
// per operation against the SASE base URL, bearer token attached, JSON in and
// out. It has no retry policy on purpose.
package client

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/vladracs/prismasase/core"
)

// Request describes a single API call. Path is joined to the configured base
// URL; Body is marshalled to JSON when present.
type Request struct {
	Method core.Method
	Path   string
	Query  map[string]string
	Body   any
}

// Result is the decoded outcome of a successful call. Payload is the decoded
// JSON tree (map, slice, or scalar); Raw keeps the undecoded bytes for callers
// that want typed unmarshalling.
type Result struct {
	StatusCode int
	Payload    any
	Raw        []byte
}

// Decode unmarshals the raw response body into out.
func (r Result) Decode(out any) error {
	if len(r.Raw) == 0 {
		return nil
	}
	return json.Unmarshal(r.Raw, out)
}

// Config carries the client's slice of the runtime configuration plus the
// tenant id used for scoping headers.
type Config struct {
	BaseURL        string
	TSGID          string
	Region         string
	RequestTimeout time.Duration
	PageLimit      int
}

// Client dispatches authenticated requests. A request is never sent without a
// previously obtained, non-empty token.
type Client struct {
	config    Config
	tokens    core.TokenSource
	transport core.TransportAdapter
	logger    core.Logger
}

// New validates wiring and returns a dispatcher.
func New(cfg Config, tokens core.TokenSource, transport core.TransportAdapter, logger core.Logger) (*Client, error) {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		return nil, core.NewBadInputError("client: base url is required")
	}
	if tokens == nil {
		return nil, core.NewBadInputError("client: token source is required")
	}
	if transport == nil {
		return nil, core.NewBadInputError("client: transport adapter is required")
	}
	if cfg.PageLimit <= 0 {
		cfg.PageLimit = 200
	}
	return &Client{
		config:    cfg,
		tokens:    tokens,
		transport: transport,
		logger:    core.ResolveLogger("client", nil, logger),
	}, nil
}

// Do issues exactly one call and decodes the JSON response. Non-2xx statuses
// and transport failures come back as RequestError values; dependent calls
// must check the error before touching the result.
func (c *Client) Do(ctx context.Context, req Request) (Result, error) {
	if !req.Method.Valid() {
		return Result{}, core.NewBadInputError("client: method is outside the supported set")
	}
	path := strings.TrimSpace(req.Path)
	if path == "" {
		return Result{}, core.NewBadInputError("client: endpoint path is required")
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if req.Method == core.MethodGet && req.Body != nil {
		return Result{}, core.NewBadInputError("client: GET requests must not carry a body")
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return Result{}, err
	}

	headers := map[string]string{
		"Accept":        "application/json",
		"Authorization": "Bearer " + token.AccessToken,
	}
	if tsgID := strings.TrimSpace(c.config.TSGID); tsgID != "" {
		headers["X-PAN-TSG-ID"] = tsgID
	}
	if region := strings.TrimSpace(c.config.Region); region != "" {
		headers["x-panw-region"] = region
	}

	var body []byte
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return Result{}, core.NewBadInputError("client: request body is not json-encodable")
		}
		body = encoded
		headers["Content-Type"] = "application/json"
	}

	res, err := c.transport.Do(ctx, core.TransportRequest{
		Method:  req.Method,
		URL:     c.config.BaseURL + path,
		Headers: headers,
		Query:   req.Query,
		Body:    body,
		Timeout: c.config.RequestTimeout,
	})
	if err != nil {
		return Result{}, core.WrapRequestError(err, path)
	}
	if !res.Success() {
		c.logger.Error("api request failed",
			"endpoint", path,
			"method", req.Method.String(),
			"status", res.StatusCode,
		)
		return Result{}, core.NewRequestError(path, res.StatusCode, snippet(res.Body))
	}

	result := Result{StatusCode: res.StatusCode, Raw: res.Body}
	if len(res.Body) > 0 {
		var payload any
		if err := json.Unmarshal(res.Body, &payload); err != nil {
			return Result{}, core.WrapRequestError(err, path)
		}
		result.Payload = payload
	}
	return result, nil
}

// Get issues a GET with optional query parameters.
func (c *Client) Get(ctx context.Context, path string, query map[string]string) (Result, error) {
	return c.Do(ctx, Request{Method: core.MethodGet, Path: path, Query: query})
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (Result, error) {
	return c.Do(ctx, Request{Method: core.MethodPost, Path: path, Body: body})
}

// Put issues a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (Result, error) {
	return c.Do(ctx, Request{Method: core.MethodPut, Path: path, Body: body})
}

// Delete issues a DELETE. The API accepts both query parameters and an
// optional JSON body on deletes.
func (c *Client) Delete(ctx context.Context, path string, query map[string]string, body any) (Result, error) {
	return c.Do(ctx, Request{Method: core.MethodDelete, Path: path, Query: query, Body: body})
}

// PageLimit exposes the configured page size for list traversals.
func (c *Client) PageLimit() int {
	return c.config.PageLimit
}

func snippet(body []byte) string {
	const limit = 200
	if len(body) > limit {
		body = body[:limit]
	}
	return string(body)
}
