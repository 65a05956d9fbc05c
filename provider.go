package authsession

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
)

// Endpoints are the identity provider URLs used by the implicit flow.
type Endpoints struct {
	AuthorizeURL string
	LogoutURL    string
}

// EndpointsFor resolves the provider endpoints for a normalized configuration.
func EndpointsFor(cfg Config) Endpoints {
	if cfg.Preset == PresetB2C {
		base := fmt.Sprintf("https://%s.b2clogin.com/%s.onmicrosoft.com/%s/oauth2/v2.0",
			cfg.Tenant, cfg.Tenant, cfg.UserFlow)
		return Endpoints{
			AuthorizeURL: base + "/authorize",
			LogoutURL:    base + "/logout",
		}
	}
	return Endpoints{
		AuthorizeURL: cfg.AuthorizeURL,
		LogoutURL:    cfg.LogoutURL,
	}
}

// AuthorizeURL builds the implicit-flow authorization request carrying nonce.
func AuthorizeURL(cfg Config, nonce string) string {
	oc := oauth2.Config{
		ClientID:    cfg.ClientID,
		Endpoint:    oauth2.Endpoint{AuthURL: EndpointsFor(cfg).AuthorizeURL},
		RedirectURL: cfg.RedirectURI,
		Scopes:      cfg.Scopes,
	}
	return oc.AuthCodeURL("",
		oauth2.SetAuthURLParam("response_type", "id_token"),
		oauth2.SetAuthURLParam("response_mode", "fragment"),
		oauth2.SetAuthURLParam("nonce", nonce),
	)
}

// LogoutURL builds the end-session request with post_logout_redirect_uri.
func LogoutURL(cfg Config) (string, error) {
	raw := EndpointsFor(cfg).LogoutURL
	u, err := url.Parse(raw)
	if err != nil {
		return "", newError(ErrCodeInvalidConfig, fmt.Errorf("logout url: %w", err))
	}
	q := u.Query()
	if cfg.PostLogoutRedirectURI != "" {
		q.Set("post_logout_redirect_uri", cfg.PostLogoutRedirectURI)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ParseFragment reads redirect parameters from "#a=b", "a=b" or a full URL with a fragment.
func ParseFragment(raw string) (url.Values, error) {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw = raw[i+1:]
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, newError(ErrCodeDecode, fmt.Errorf("parse fragment: %w", err))
	}
	return values, nil
}

// sessionTokenSource exposes the current session as an oauth2 bearer token.
type sessionTokenSource struct {
	auth *Authenticator
}

func (s sessionTokenSource) Token() (*oauth2.Token, error) {
	sess, err := s.auth.valid()
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{
		AccessToken: sess.Token,
		TokenType:   "Bearer",
		Expiry:      sess.ExpiresAt,
	}, nil
}
