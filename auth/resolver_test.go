package auth

import (
	"testing"

	"github.com/vladracs/prismasase/core"
)

func fixtureLookup(values map[string]string) EnvLookup {
	return func(name string) (string, bool) {
		value, ok := values[name]
		return value, ok
	}
}

func validEnv() map[string]string {
	return map[string]string{
		EnvClientID:     "svc-client",
		EnvClientSecret: "svc-secret",
		EnvTSGID:        "1234567",
	}
}

func TestCredentialResolver_Resolve(t *testing.T) {
	resolver := NewCredentialResolver(fixtureLookup(validEnv()))
	credential, err := resolver.Resolve()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if credential.ClientID != "svc-client" || credential.ClientSecret != "svc-secret" || credential.TSGID != "1234567" {
		t.Fatalf("unexpected credential %+v", credential)
	}
}

func TestCredentialResolver_MissingVariables(t *testing.T) {
	for _, missing := range []string{EnvClientID, EnvClientSecret, EnvTSGID} {
		t.Run(missing, func(t *testing.T) {
			values := validEnv()
			delete(values, missing)
			resolver := NewCredentialResolver(fixtureLookup(values))
			_, err := resolver.Resolve()
			if err == nil {
				t.Fatalf("expected error for missing %s", missing)
			}
			if !core.IsConfigurationError(err) {
				t.Fatalf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestCredentialResolver_EmptyValueIsMissing(t *testing.T) {
	values := validEnv()
	values[EnvTSGID] = "   "
	resolver := NewCredentialResolver(fixtureLookup(values))
	if _, err := resolver.Resolve(); !core.IsConfigurationError(err) {
		t.Fatalf("expected configuration error for blank value, got %v", err)
	}
}

func TestCredentialResolver_ApplyOverrides(t *testing.T) {
	values := validEnv()
	values[EnvBaseAPIURL] = "https://api.stage.example.com"
	values[EnvRegion] = "de"
	resolver := NewCredentialResolver(fixtureLookup(values))

	cfg := resolver.ApplyOverrides(core.DefaultConfig())
	if cfg.BaseAPIURL != "https://api.stage.example.com" {
		t.Fatalf("expected base url override, got %q", cfg.BaseAPIURL)
	}
	if cfg.Region != "de" {
		t.Fatalf("expected region override, got %q", cfg.Region)
	}
	if cfg.AuthURL != core.DefaultAuthURL {
		t.Fatalf("auth url must keep its default, got %q", cfg.AuthURL)
	}
}
