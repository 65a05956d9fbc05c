package authsession

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestConfigResolveDefaults(t *testing.T) {
	cfg, err := testConfig().Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.Preset != PresetB2C {
		t.Fatalf("unexpected preset: %q", cfg.Preset)
	}
	if !reflect.DeepEqual(cfg.Scopes, []string{"openid", "email", "profile"}) {
		t.Fatalf("unexpected scopes: %v", cfg.Scopes)
	}
	if cfg.AdminClaim != "extension_IsAdmin" || !reflect.DeepEqual(cfg.AdminDomains, []string{"@slider.la"}) {
		t.Fatalf("unexpected admin rules: %q %v", cfg.AdminClaim, cfg.AdminDomains)
	}
	if cfg.DefaultEmail != "usuario@slider.cloud" || cfg.Locale != "es" {
		t.Fatalf("unexpected defaults: %q %q", cfg.DefaultEmail, cfg.Locale)
	}
	if cfg.LogoutDelay != time.Second {
		t.Fatalf("unexpected logout delay: %v", cfg.LogoutDelay)
	}
	if cfg.PostLogoutRedirectURI != "https://dashboard.slider.test" {
		t.Fatalf("unexpected post logout redirect: %q", cfg.PostLogoutRedirectURI)
	}
}

func TestConfigResolveKeepsExplicitEmptyDomains(t *testing.T) {
	cfg := testConfig()
	cfg.AdminDomains = []string{}
	resolved, err := cfg.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(resolved.AdminDomains) != 0 {
		t.Fatalf("explicit empty domains should stay empty, got %v", resolved.AdminDomains)
	}
}

func TestConfigResolveDoesNotMutateInput(t *testing.T) {
	cfg := testConfig()
	cfg.Scopes = []string{"openid"}
	if _, err := cfg.Resolve(); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.Preset != "" || cfg.Locale != "" {
		t.Fatalf("input mutated: %+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing client id", func(c *Config) { c.ClientID = "" }},
		{"missing redirect", func(c *Config) { c.RedirectURI = "" }},
		{"relative redirect", func(c *Config) { c.RedirectURI = "/callback" }},
		{"b2c without tenant", func(c *Config) { c.Tenant = "" }},
		{"b2c without flow", func(c *Config) { c.UserFlow = "" }},
		{"unknown preset", func(c *Config) { c.Preset = "okta" }},
		{"custom without urls", func(c *Config) { c.Preset = PresetCustom }},
		{"custom relative logout", func(c *Config) {
			c.Preset = PresetCustom
			c.AuthorizeURL = "https://id.example.com/authorize"
			c.LogoutURL = "/logout"
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)
			_, err := cfg.Resolve()
			if CodeOf(err) != ErrCodeInvalidConfig {
				t.Fatalf("expected invalid_config, got %v", err)
			}
			if _, err := New(cfg); err == nil {
				t.Fatal("New should reject the configuration")
			}
		})
	}
}

func TestConfigPresets(t *testing.T) {
	google := Config{Preset: "Google", ClientID: "client", RedirectURI: "http://localhost:8080/callback"}
	resolved, err := google.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	ep := EndpointsFor(resolved)
	if ep.AuthorizeURL != "https://accounts.google.com/o/oauth2/v2/auth" || ep.LogoutURL != "https://accounts.google.com/Logout" {
		t.Fatalf("unexpected google endpoints: %+v", ep)
	}

	custom := Config{
		Preset:       PresetCustom,
		ClientID:     "client",
		RedirectURI:  "https://app.example.com/cb",
		AuthorizeURL: "https://id.example.com/authorize",
		LogoutURL:    "https://id.example.com/logout",
	}
	resolved, err = custom.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if ep := EndpointsFor(resolved); ep.AuthorizeURL != custom.AuthorizeURL || ep.LogoutURL != custom.LogoutURL {
		t.Fatalf("unexpected custom endpoints: %+v", ep)
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := testConfig()
	err := ApplyEnv(&cfg, map[string]string{
		"AUTHSESSION_PRESET":        "custom",
		"AUTHSESSION_AUTHORIZE_URL": "https://id.example.com/authorize",
		"AUTHSESSION_LOGOUT_URL":    "https://id.example.com/logout",
		"AUTHSESSION_SCOPES":        "openid email",
		"AUTHSESSION_ADMIN_DOMAINS": "@a.test,@b.test",
		"AUTHSESSION_LOGOUT_DELAY":  "250ms",
		"AUTHSESSION_LOCALE":        "en",
		"UNRELATED":                 "x",
	})
	if err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.Preset != "custom" || cfg.AuthorizeURL != "https://id.example.com/authorize" {
		t.Fatalf("unexpected provider settings: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.Scopes, []string{"openid", "email"}) {
		t.Fatalf("unexpected scopes: %v", cfg.Scopes)
	}
	if !reflect.DeepEqual(cfg.AdminDomains, []string{"@a.test", "@b.test"}) {
		t.Fatalf("unexpected admin domains: %v", cfg.AdminDomains)
	}
	if cfg.LogoutDelay != 250*time.Millisecond || cfg.Locale != "en" {
		t.Fatalf("unexpected delay or locale: %v %q", cfg.LogoutDelay, cfg.Locale)
	}
	if cfg.ClientID != testConfig().ClientID {
		t.Fatalf("unset variables must keep existing values, got %q", cfg.ClientID)
	}
}

func TestApplyEnvInvalidDuration(t *testing.T) {
	var cfg Config
	if err := ApplyEnv(&cfg, map[string]string{"AUTHSESSION_LOGOUT_DELAY": "soon"}); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "authsession.yaml")
	data := []byte(`preset: b2c
client_id: 4839f7dd-535e-4b41-acd1-582129be660a
tenant: sliderexid
user_flow: SliderMainFlow
redirect_uri: https://dashboard.slider.test/callback
namespace: slider_
admin_domains:
  - "@slider.la"
  - "@slider.cloud"
logout_delay: 2s
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if cfg.Tenant != "sliderexid" || cfg.Namespace != "slider_" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if len(cfg.AdminDomains) != 2 || cfg.LogoutDelay != 2*time.Second {
		t.Fatalf("unexpected lists or durations: %v %v", cfg.AdminDomains, cfg.LogoutDelay)
	}
	if _, err := cfg.Resolve(); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestLoadConfigLayersEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "authsession.yaml")
	if err := os.WriteFile(path, []byte("client_id: from-file\ntenant: file-tenant\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("AUTHSESSION_TENANT", "env-tenant")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.ClientID != "from-file" || cfg.Tenant != "env-tenant" {
		t.Fatalf("unexpected layering: %q %q", cfg.ClientID, cfg.Tenant)
	}
}
