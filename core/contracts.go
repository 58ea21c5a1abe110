package core

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// Method is the closed set of HTTP methods the dispatcher can issue. Using a
// dedicated type instead of raw strings keeps unknown methods out of the
// request path entirely.
type Method string

const (
	MethodGet    Method = http.MethodGet
	MethodPost   Method = http.MethodPost
	MethodPut    Method = http.MethodPut
	MethodDelete Method = http.MethodDelete
)

// ParseMethod normalizes a method string into the closed Method set.
func ParseMethod(value string) (Method, error) {
	switch Method(strings.ToUpper(strings.TrimSpace(value))) {
	case MethodGet:
		return MethodGet, nil
	case MethodPost:
		return MethodPost, nil
	case MethodPut:
		return MethodPut, nil
	case MethodDelete:
		return MethodDelete, nil
	default:
		return "", fmt.Errorf("core: unsupported http method %q", value)
	}
}

func (m Method) String() string {
	return string(m)
}

// Valid reports whether the method belongs to the closed set.
func (m Method) Valid() bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodDelete:
		return true
	}
	return false
}

// Credential is the client-credentials triple read from the environment.
// Immutable once resolved; lifetime is one process run.
type Credential struct {
	ClientID     string
	ClientSecret string
	TSGID        string
}

// Token is a bearer token issued by the authorization server. ExpiresAt is
// zero when the server did not report a lease.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}

// Fresh reports whether the token is usable at the given instant, leaving a
// renew-before window so callers re-authenticate before the lease lapses.
func (t Token) Fresh(now time.Time, renewBefore time.Duration) bool {
	if strings.TrimSpace(t.AccessToken) == "" {
		return false
	}
	if t.ExpiresAt.IsZero() {
		return true
	}
	return t.ExpiresAt.After(now.Add(renewBefore))
}

// TokenSource hands out bearer tokens, re-acquiring them when stale.
type TokenSource interface {
	Token(ctx context.Context) (Token, error)
	// Invalidate drops any cached token so the next Token call re-authenticates.
	Invalidate()
}

// TransportRequest is a protocol-neutral request handed to a transport
// adapter.
type TransportRequest struct {
	Method               Method
	URL                  string
	Headers              map[string]string
	Query                map[string]string
	Body                 []byte
	Timeout              time.Duration
	MaxResponseBodyBytes int64
}

// TransportResponse is the raw outcome of a transport dispatch.
type TransportResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	Metadata   map[string]any
}

// Success reports whether the response carries a 2xx status.
func (r TransportResponse) Success() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// TransportAdapter dispatches exactly one request and returns the raw
// response. Implementations must not retry.
type TransportAdapter interface {
	Kind() string
	Do(ctx context.Context, req TransportRequest) (TransportResponse, error)
}

// JobExecutionMessage describes a unit of monitor work handed to an external
// job queue.
type JobExecutionMessage struct {
	JobID          string
	Parameters     map[string]any
	IdempotencyKey string
	DedupPolicy    string
}

// JobEnqueuer submits monitor runs to a queue-backed worker pool.
type JobEnqueuer interface {
	Enqueue(ctx context.Context, msg *JobExecutionMessage) error
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

// ResolveLogger resolves the effective logger with the provider > logger > nop
// precedence used across goliatone modules.
func ResolveLogger(name string, provider LoggerProvider, logger Logger) Logger {
	resolvedProvider, resolved := glog.Resolve(name, provider, logger)
	resolved = glog.Ensure(resolved)
	if resolvedProvider != nil {
		if named := resolvedProvider.GetLogger(name); named != nil {
			resolved = glog.Ensure(named)
		}
	}
	return resolved
}
