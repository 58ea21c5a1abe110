package core

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig_Validates(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	if cfg.AuthURL != DefaultAuthURL {
		t.Fatalf("unexpected auth url %q", cfg.AuthURL)
	}
	if cfg.PageLimit != 200 {
		t.Fatalf("expected page limit 200, got %d", cfg.PageLimit)
	}
}

func TestConfig_ValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing auth url", func(c *Config) { c.AuthURL = " " }, "auth_url"},
		{"relative base url", func(c *Config) { c.BaseAPIURL = "/api" }, "base_api_url"},
		{"negative timeout", func(c *Config) { c.RequestTimeout = -time.Second }, "request_timeout"},
		{"zero page limit", func(c *Config) { c.PageLimit = 0 }, "page_limit"},
		{"bad driver", func(c *Config) { c.Persistence.Driver = "oracle" }, "persistence.driver"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestParseMethod(t *testing.T) {
	for _, input := range []string{"get", " GET ", "Get"} {
		method, err := ParseMethod(input)
		if err != nil {
			t.Fatalf("parse %q: %v", input, err)
		}
		if method != MethodGet {
			t.Fatalf("expected GET, got %q", method)
		}
	}
	if _, err := ParseMethod("PATCH"); err == nil {
		t.Fatalf("expected PATCH to be rejected")
	}
	if MethodDelete.Valid() != true {
		t.Fatalf("DELETE must be valid")
	}
	if Method("TRACE").Valid() {
		t.Fatalf("TRACE must be invalid")
	}
}

func TestToken_Fresh(t *testing.T) {
	now := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

	if (Token{}).Fresh(now, 0) {
		t.Fatalf("empty token must not be fresh")
	}
	noLease := Token{AccessToken: "t"}
	if !noLease.Fresh(now, time.Hour) {
		t.Fatalf("token without lease is assumed fresh")
	}
	leased := Token{AccessToken: "t", ExpiresAt: now.Add(10 * time.Minute)}
	if !leased.Fresh(now, 2*time.Minute) {
		t.Fatalf("token inside lease must be fresh")
	}
	if leased.Fresh(now, 15*time.Minute) {
		t.Fatalf("token within renew window must not be fresh")
	}
}

func TestResolveConfig_LayerPrecedence(t *testing.T) {
	defaults := DefaultConfig()
	loaded := Config{BaseAPIURL: "https://stage.example.com", Region: "de"}
	runtime := Config{Region: "us"}

	resolved, err := ResolveConfig(defaults, loaded, runtime)
	if err != nil {
		t.Fatalf("resolve config: %v", err)
	}
	if resolved.BaseAPIURL != "https://stage.example.com" {
		t.Fatalf("expected loaded base url to win over defaults, got %q", resolved.BaseAPIURL)
	}
	if resolved.Region != "us" {
		t.Fatalf("expected runtime region to win, got %q", resolved.Region)
	}
	if resolved.AuthURL != DefaultAuthURL {
		t.Fatalf("expected default auth url to survive, got %q", resolved.AuthURL)
	}
}
