package authsession

import (
	"errors"
	"net/url"
	"testing"
)

func TestAuthorizeURL(t *testing.T) {
	cfg, err := testConfig().Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	raw := AuthorizeURL(cfg, "n-123")
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if u.Scheme != "https" || u.Host != "sliderexid.b2clogin.com" {
		t.Fatalf("unexpected host: %s", raw)
	}
	q := u.Query()
	if q.Get("nonce") != "n-123" || q.Get("response_type") != "id_token" || q.Get("response_mode") != "fragment" {
		t.Fatalf("unexpected query: %v", q)
	}
	if len(q["response_type"]) != 1 {
		t.Fatalf("response_type must appear once: %v", q["response_type"])
	}
}

func TestLogoutURLKeepsExistingQuery(t *testing.T) {
	cfg := Config{
		Preset:       PresetCustom,
		ClientID:     "client",
		RedirectURI:  "https://app.example.com/cb",
		AuthorizeURL: "https://id.example.com/authorize",
		LogoutURL:    "https://id.example.com/logout?client_id=client",
	}
	resolved, err := cfg.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	raw, err := LogoutURL(resolved)
	if err != nil {
		t.Fatalf("LogoutURL: %v", err)
	}
	u, _ := url.Parse(raw)
	if u.Query().Get("client_id") != "client" || u.Query().Get("post_logout_redirect_uri") != "https://app.example.com" {
		t.Fatalf("unexpected logout url: %s", raw)
	}
}

func TestParseFragment(t *testing.T) {
	for _, raw := range []string{
		"#id_token=abc&state=s",
		"id_token=abc&state=s",
		"https://dashboard.slider.test/callback#id_token=abc&state=s",
	} {
		values, err := ParseFragment(raw)
		if err != nil {
			t.Fatalf("ParseFragment(%q): %v", raw, err)
		}
		if values.Get("id_token") != "abc" || values.Get("state") != "s" {
			t.Fatalf("ParseFragment(%q) = %v", raw, values)
		}
	}

	values, err := ParseFragment("#error=access_denied&error_description=AADB2C90091%3A+cancelled")
	if err != nil {
		t.Fatalf("ParseFragment: %v", err)
	}
	if values.Get("error_description") != "AADB2C90091: cancelled" {
		t.Fatalf("unexpected description: %q", values.Get("error_description"))
	}

	if _, err := ParseFragment("#id_token=%zz"); !errors.Is(err, ErrDecode) {
		t.Fatalf("expected decode error, got %v", err)
	}
}
