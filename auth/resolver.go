// Package auth resolves client credentials from the process environment and
// exchanges them for bearer tokens via the OAuth2 client-credentials grant.
package auth

import (
	"os"
	"strings"

	"github.com/vladracs/prismasase/core"
)

// Environment variables read by the resolver. The first three are required;
// the rest override production defaults.
const (
	EnvClientID     = "PRISMASASE_CLIENT_ID"
	EnvClientSecret = "PRISMASASE_CLIENT_SECRET"
	EnvTSGID        = "PRISMASASE_TSG_ID"
	EnvAuthURL      = "PRISMASASE_AUTH_URL"
	EnvBaseAPIURL   = "SASE_BASE_URL"
	EnvRegion       = "PRISMASASE_REGION"
)

// EnvLookup abstracts os.LookupEnv so tests can inject fixtures.
type EnvLookup func(name string) (string, bool)

// CredentialResolver reads the client-credentials triple from process-wide
// configuration state. It performs no network calls.
type CredentialResolver struct {
	lookup EnvLookup
}

// NewCredentialResolver builds a resolver; a nil lookup falls back to
// os.LookupEnv.
func NewCredentialResolver(lookup EnvLookup) *CredentialResolver {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return &CredentialResolver{lookup: lookup}
}

// Require returns the named setting or a ConfigurationError when it is absent
// or empty.
func (r *CredentialResolver) Require(name string) (string, error) {
	value, ok := r.lookup(name)
	value = strings.TrimSpace(value)
	if !ok || value == "" {
		return "", core.NewConfigurationError(name)
	}
	return value, nil
}

// Optional returns the named setting or the provided fallback.
func (r *CredentialResolver) Optional(name string, fallback string) string {
	value, ok := r.lookup(name)
	value = strings.TrimSpace(value)
	if !ok || value == "" {
		return fallback
	}
	return value
}

// Resolve reads the full credential triple. A missing value fails before any
// network activity happens.
func (r *CredentialResolver) Resolve() (core.Credential, error) {
	clientID, err := r.Require(EnvClientID)
	if err != nil {
		return core.Credential{}, err
	}
	clientSecret, err := r.Require(EnvClientSecret)
	if err != nil {
		return core.Credential{}, err
	}
	tsgID, err := r.Require(EnvTSGID)
	if err != nil {
		return core.Credential{}, err
	}
	return core.Credential{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TSGID:        tsgID,
	}, nil
}

// ApplyOverrides layers environment URL/region overrides onto a config. The
// config file stays authoritative for anything the environment does not set.
func (r *CredentialResolver) ApplyOverrides(cfg core.Config) core.Config {
	cfg.AuthURL = r.Optional(EnvAuthURL, cfg.AuthURL)
	cfg.BaseAPIURL = r.Optional(EnvBaseAPIURL, cfg.BaseAPIURL)
	cfg.Region = r.Optional(EnvRegion, cfg.Region)
	return cfg
}
