package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/vladracs/prismasase/core"
)

const defaultRenewBefore = 2 * time.Minute

// TokenProviderConfig wires the token provider. TokenURL and the transport
// are required; Now is injectable for tests.
type TokenProviderConfig struct {
	TokenURL    string
	Resolver    *CredentialResolver
	Transport   core.TransportAdapter
	RenewBefore time.Duration
	Timeout     time.Duration
	Logger      core.Logger
	Now         func() time.Time
}

// TokenProvider exchanges resolved credentials for a bearer token and keeps
// the token for reuse until it nears expiry. Safe for concurrent use.
type TokenProvider struct {
	config TokenProviderConfig

	mu    sync.Mutex
	token core.Token
}

// NewTokenProvider validates wiring and returns a provider. No network call
// happens until Token is invoked.
func NewTokenProvider(cfg TokenProviderConfig) (*TokenProvider, error) {
	cfg.TokenURL = strings.TrimSpace(cfg.TokenURL)
	if cfg.TokenURL == "" {
		return nil, core.NewBadInputError("auth: token url is required")
	}
	if cfg.Transport == nil {
		return nil, core.NewBadInputError("auth: transport adapter is required")
	}
	if cfg.Resolver == nil {
		cfg.Resolver = NewCredentialResolver(nil)
	}
	if cfg.RenewBefore <= 0 {
		cfg.RenewBefore = defaultRenewBefore
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	cfg.Logger = core.ResolveLogger("auth", nil, cfg.Logger)
	return &TokenProvider{config: cfg}, nil
}

// Token returns the cached token while it is fresh, re-authenticating
// otherwise.
func (p *TokenProvider) Token(ctx context.Context) (core.Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token.Fresh(p.config.Now(), p.config.RenewBefore) {
		return p.token, nil
	}
	token, err := p.acquire(ctx)
	if err != nil {
		return core.Token{}, err
	}
	p.token = token
	return token, nil
}

// Invalidate drops the cached token. The next Token call re-authenticates.
func (p *TokenProvider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = core.Token{}
}

// acquire performs one client-credentials exchange. Callers hold the mutex.
func (p *TokenProvider) acquire(ctx context.Context) (core.Token, error) {
	credential, err := p.config.Resolver.Resolve()
	if err != nil {
		return core.Token{}, err
	}

	form := url.Values{}
	form.Set("client_id", credential.ClientID)
	form.Set("client_secret", credential.ClientSecret)
	form.Set("scope", "tsg_id:"+credential.TSGID)
	form.Set("grant_type", "client_credentials")

	res, err := p.config.Transport.Do(ctx, core.TransportRequest{
		Method: core.MethodPost,
		URL:    p.config.TokenURL,
		Headers: map[string]string{
			"Content-Type": "application/x-www-form-urlencoded",
			"Accept":       "application/json",
		},
		Body:    []byte(form.Encode()),
		Timeout: p.config.Timeout,
	})
	if err != nil {
		return core.Token{}, core.WrapAuthError(err, "auth: token exchange failed", map[string]any{
			"token_url": p.config.TokenURL,
		})
	}
	if !res.Success() {
		p.config.Logger.Error("token exchange rejected",
			"status", res.StatusCode,
			"token_url", p.config.TokenURL,
		)
		return core.Token{}, core.NewAuthError(
			fmt.Sprintf("auth: token endpoint returned status %d", res.StatusCode),
			map[string]any{
				"token_url": p.config.TokenURL,
				"status":    res.StatusCode,
				"response":  bodySnippet(res.Body),
			},
		)
	}

	var payload struct {
		AccessToken    string `json:"access_token"`
		AccessTokenAlt string `json:"accessToken"`
		TokenType      string `json:"token_type"`
		ExpiresIn      int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(res.Body, &payload); err != nil {
		return core.Token{}, core.NewAuthMalformedError("auth: token response is not valid json", map[string]any{
			"token_url": p.config.TokenURL,
			"response":  bodySnippet(res.Body),
		})
	}

	accessToken := strings.TrimSpace(payload.AccessToken)
	if accessToken == "" {
		// Some tenants return the camelCase key.
		accessToken = strings.TrimSpace(payload.AccessTokenAlt)
	}
	if accessToken == "" {
		return core.Token{}, core.NewAuthMalformedError("auth: token response has no access_token field", map[string]any{
			"token_url": p.config.TokenURL,
			"response":  bodySnippet(res.Body),
		})
	}

	token := core.Token{AccessToken: accessToken}
	if payload.ExpiresIn > 0 {
		token.ExpiresAt = p.config.Now().Add(time.Duration(payload.ExpiresIn) * time.Second)
	}
	p.config.Logger.Debug("token acquired", "expires_at", token.ExpiresAt)
	return token, nil
}

func bodySnippet(body []byte) string {
	const limit = 200
	if len(body) > limit {
		body = body[:limit]
	}
	return string(body)
}

var _ core.TokenSource = (*TokenProvider)(nil)
