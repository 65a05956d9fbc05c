package authsession

import (
	"testing"

	"golang.org/x/text/language"
)

func TestLocalizer(t *testing.T) {
	cases := []struct {
		locale string
		tag    language.Tag
		name   string
	}{
		{"es", language.Spanish, "Usuario"},
		{"es-MX", language.Spanish, "Usuario"},
		{"en", language.English, "User"},
		{"en-GB", language.English, "User"},
		{"not a locale!", language.Spanish, "Usuario"},
		{"", language.Spanish, "Usuario"},
	}
	for _, tc := range cases {
		l := NewLocalizer(tc.locale)
		if l.Tag() != tc.tag {
			t.Fatalf("NewLocalizer(%q).Tag() = %v, want %v", tc.locale, l.Tag(), tc.tag)
		}
		if got := l.Text(MsgDefaultName); got != tc.name {
			t.Fatalf("NewLocalizer(%q) default name = %q, want %q", tc.locale, got, tc.name)
		}
	}
}

func TestLocalizerMessages(t *testing.T) {
	es := NewLocalizer("es")
	if got := es.Text(MsgAdminForbidden); got != "No tienes permisos para acceder al panel de administración" {
		t.Fatalf("unexpected forbidden text: %q", got)
	}
	if got := es.Text(MsgSigningOut); got != "Cerrando sesión..." {
		t.Fatalf("unexpected signing out text: %q", got)
	}

	var zero Localizer
	if got := zero.Text(MsgDefaultName); got != "Usuario" {
		t.Fatalf("zero localizer should fall back to Spanish, got %q", got)
	}
}

func TestEnglishAuthenticatorDefaults(t *testing.T) {
	cfg := testConfig()
	cfg.Locale = "en"
	auth, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if view := auth.View(); view.DisplayName != "User" || view.Initials != "U" {
		t.Fatalf("unexpected english defaults: %+v", view)
	}
}
