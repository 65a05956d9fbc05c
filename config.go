package authsession

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	PresetB2C    = "b2c"
	PresetGoogle = "google"
	PresetCustom = "custom"

	defaultAdminClaim   = "extension_IsAdmin"
	defaultAdminDomain  = "@slider.la"
	defaultEmail        = "usuario@slider.cloud"
	defaultLocale       = "es"
	defaultLogoutDelay  = time.Second
	defaultGoogleAuth   = "https://accounts.google.com/o/oauth2/v2/auth"
	defaultGoogleLogout = "https://accounts.google.com/Logout"
)

var defaultScopes = []string{"openid", "email", "profile"}

// Config describes the identity provider and the claim rules for a dashboard session.
type Config struct {
	Preset                string        `yaml:"preset" env:"PRESET"`
	ClientID              string        `yaml:"client_id" env:"CLIENT_ID"`
	Tenant                string        `yaml:"tenant" env:"TENANT"`
	UserFlow              string        `yaml:"user_flow" env:"USER_FLOW"`
	AuthorizeURL          string        `yaml:"authorize_url" env:"AUTHORIZE_URL"`
	LogoutURL             string        `yaml:"logout_url" env:"LOGOUT_URL"`
	RedirectURI           string        `yaml:"redirect_uri" env:"REDIRECT_URI"`
	PostLogoutRedirectURI string        `yaml:"post_logout_redirect_uri" env:"POST_LOGOUT_REDIRECT_URI"`
	Scopes                []string      `yaml:"scopes" env:"SCOPES" envSeparator:" "`
	Namespace             string        `yaml:"namespace" env:"NAMESPACE"`
	AdminClaim            string        `yaml:"admin_claim" env:"ADMIN_CLAIM"`
	AdminDomains          []string      `yaml:"admin_domains" env:"ADMIN_DOMAINS" envSeparator:","`
	DefaultEmail          string        `yaml:"default_email" env:"DEFAULT_EMAIL"`
	Locale                string        `yaml:"locale" env:"LOCALE"`
	LogoutDelay           time.Duration `yaml:"logout_delay" env:"LOGOUT_DELAY"`
}

// normalize sets default values for optional fields.
func (c *Config) normalize() {
	c.Preset = strings.ToLower(strings.TrimSpace(c.Preset))
	if c.Preset == "" {
		c.Preset = PresetB2C
	}
	if c.Preset == PresetGoogle {
		if c.AuthorizeURL == "" {
			c.AuthorizeURL = defaultGoogleAuth
		}
		if c.LogoutURL == "" {
			c.LogoutURL = defaultGoogleLogout
		}
	}
	if len(c.Scopes) == 0 {
		c.Scopes = append([]string(nil), defaultScopes...)
	}
	if c.AdminClaim == "" {
		c.AdminClaim = defaultAdminClaim
	}
	if c.AdminDomains == nil {
		c.AdminDomains = []string{defaultAdminDomain}
	}
	if c.DefaultEmail == "" {
		c.DefaultEmail = defaultEmail
	}
	if c.Locale == "" {
		c.Locale = defaultLocale
	}
	if c.LogoutDelay <= 0 {
		c.LogoutDelay = defaultLogoutDelay
	}
	if c.PostLogoutRedirectURI == "" {
		c.PostLogoutRedirectURI = origin(c.RedirectURI)
	}
}

// validate ensures the configuration is usable.
func (c Config) validate() error {
	switch {
	case c.ClientID == "":
		return errors.New("client id is required")
	case c.RedirectURI == "":
		return errors.New("redirect uri is required")
	case !isAbsoluteURL(c.RedirectURI):
		return fmt.Errorf("redirect uri %q must be absolute", c.RedirectURI)
	}
	switch c.Preset {
	case PresetB2C:
		if c.Tenant == "" || c.UserFlow == "" {
			return errors.New("b2c preset requires tenant and user flow")
		}
	case PresetGoogle:
	case PresetCustom:
		if !isAbsoluteURL(c.AuthorizeURL) || !isAbsoluteURL(c.LogoutURL) {
			return errors.New("custom preset requires absolute authorize and logout urls")
		}
	default:
		return fmt.Errorf("unknown preset %q", c.Preset)
	}
	return nil
}

// Resolve returns a normalized copy of the configuration or an invalid_config error.
func (c Config) Resolve() (Config, error) {
	clone := c
	clone.Scopes = append([]string(nil), c.Scopes...)
	if c.AdminDomains != nil {
		clone.AdminDomains = append([]string{}, c.AdminDomains...)
	}
	clone.normalize()
	if err := clone.validate(); err != nil {
		return Config{}, newError(ErrCodeInvalidConfig, err)
	}
	return clone, nil
}

// Policy returns the claim rules derived from the configuration.
func (c Config) Policy(defaultName string) ClaimPolicy {
	return ClaimPolicy{
		DefaultEmail: c.DefaultEmail,
		DefaultName:  defaultName,
		AdminClaim:   c.AdminClaim,
		AdminDomains: append([]string(nil), c.AdminDomains...),
	}
}

func origin(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}
