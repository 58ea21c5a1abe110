package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vladracs/prismasase/core"
	"github.com/vladracs/prismasase/transport"
)

type staticTokens struct {
	token    core.Token
	err      error
	requests int
}

func (s *staticTokens) Token(context.Context) (core.Token, error) {
	s.requests++
	if s.err != nil {
		return core.Token{}, s.err
	}
	return s.token, nil
}

func (s *staticTokens) Invalidate() {}

func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()
	c, err := New(Config{
		BaseURL:        server.URL,
		TSGID:          "1234567",
		Region:         "de",
		RequestTimeout: 5 * time.Second,
	}, &staticTokens{token: core.Token{AccessToken: "tok"}}, transport.NewRESTAdapter(server.Client()), nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestClient_AttachesAuthHeadersOnEveryMethod(t *testing.T) {
	var captured []*http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = append(captured, r.Clone(context.Background()))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := newTestClient(t, server)
	ctx := context.Background()

	if _, err := c.Get(ctx, "/x", nil); err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, err := c.Post(ctx, "/x", map[string]string{"k": "v"}); err != nil {
		t.Fatalf("post: %v", err)
	}
	if _, err := c.Put(ctx, "/x", map[string]string{"k": "v"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := c.Delete(ctx, "/x", nil, nil); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if len(captured) != 4 {
		t.Fatalf("expected 4 calls, got %d", len(captured))
	}
	for _, r := range captured {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Fatalf("%s: expected bearer header, got %q", r.Method, got)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Fatalf("%s: expected accept header, got %q", r.Method, got)
		}
		if got := r.Header.Get("X-PAN-TSG-ID"); got != "1234567" {
			t.Fatalf("%s: expected tenant header, got %q", r.Method, got)
		}
		if got := r.Header.Get("x-panw-region"); got != "de" {
			t.Fatalf("%s: expected region header, got %q", r.Method, got)
		}
	}
}

func TestClient_GetPassesQueryWithoutBody(t *testing.T) {
	var captured *http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.Clone(context.Background())
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := newTestClient(t, server)
	if _, err := c.Get(context.Background(), "/x", map[string]string{"a": "1"}); err != nil {
		t.Fatalf("get: %v", err)
	}
	if captured.URL.Path != "/x" || captured.URL.Query().Get("a") != "1" {
		t.Fatalf("expected /x?a=1, got %s", captured.URL.String())
	}
	if captured.ContentLength != 0 {
		t.Fatalf("GET must not carry a body")
	}
}

func TestClient_GetWithBodyRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := newTestClient(t, server)
	_, err := c.Do(context.Background(), Request{Method: core.MethodGet, Path: "/x", Body: map[string]string{"a": "1"}})
	if err == nil {
		t.Fatalf("expected bad input error")
	}
}

func TestClient_NotFoundReturnsRequestError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"_error":"no such resource"}`, http.StatusNotFound)
	}))
	defer server.Close()

	c := newTestClient(t, server)
	result, err := c.Get(context.Background(), "/missing", nil)
	if err == nil {
		t.Fatalf("expected request error")
	}
	if !core.IsRequestError(err) {
		t.Fatalf("expected request error classification, got %v", err)
	}
	if result.Payload != nil {
		t.Fatalf("failed call must not produce a payload")
	}
}

func TestClient_TokenFailurePreventsDispatch(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	tokens := &staticTokens{err: core.NewAuthError("auth: token endpoint returned status 403", nil)}
	c, err := New(Config{BaseURL: server.URL}, tokens, transport.NewRESTAdapter(server.Client()), nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if _, err := c.Get(context.Background(), "/x", nil); !core.IsAuthError(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("request must not be dispatched without a token")
	}
}

func TestClient_PostMarshalsJSONBody(t *testing.T) {
	var body []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected json content type, got %q", ct)
		}
		_, _ = w.Write([]byte(`{"id":"op-1"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server)
	result, err := c.Post(context.Background(), "/ops", map[string]string{"action": "reboot"})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if string(body) != `{"action":"reboot"}` {
		t.Fatalf("unexpected body %q", body)
	}
	payload, ok := result.Payload.(map[string]any)
	if !ok || payload["id"] != "op-1" {
		t.Fatalf("unexpected payload %v", result.Payload)
	}
}
