package authsession

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys for user-visible text.
const (
	MsgDefaultName      = "session.default_name"
	MsgAdminForbidden   = "portal.admin_forbidden"
	MsgPortalError      = "portal.error"
	MsgSigningOut       = "session.signing_out"
	MsgLoading          = "session.loading"
	MsgPortalConnecting = "portal.connecting"
	MsgPortalRestricted = "portal.restricted"
)

var supportedLocales = []language.Tag{language.Spanish, language.English}

var localeMatcher = language.NewMatcher(supportedLocales)

var messages = mustBuildCatalog(map[language.Tag]map[string]string{
	language.Spanish: {
		MsgDefaultName:      "Usuario",
		MsgAdminForbidden:   "No tienes permisos para acceder al panel de administración",
		MsgPortalError:      "Error al acceder al portal. Inténtalo nuevamente.",
		MsgSigningOut:       "Cerrando sesión...",
		MsgLoading:          "Cargando...",
		MsgPortalConnecting: "Conectando...",
		MsgPortalRestricted: "Sin permisos",
	},
	language.English: {
		MsgDefaultName:      "User",
		MsgAdminForbidden:   "You do not have permission to access the admin panel",
		MsgPortalError:      "Could not open the portal. Please try again.",
		MsgSigningOut:       "Signing out...",
		MsgLoading:          "Loading...",
		MsgPortalConnecting: "Connecting...",
		MsgPortalRestricted: "No permission",
	},
})

func mustBuildCatalog(entries map[language.Tag]map[string]string) *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.Spanish))
	for tag, msgs := range entries {
		for key, text := range msgs {
			if err := b.SetString(tag, key, text); err != nil {
				panic(err)
			}
		}
	}
	return b
}

// Localizer renders user-visible text for one locale.
type Localizer struct {
	tag     language.Tag
	printer *message.Printer
}

// NewLocalizer picks the closest supported locale; unknown input falls back to Spanish.
func NewLocalizer(locale string) Localizer {
	tag := language.Spanish
	if parsed, err := language.Parse(locale); err == nil {
		_, idx, conf := localeMatcher.Match(parsed)
		if conf != language.No {
			tag = supportedLocales[idx]
		}
	}
	return Localizer{tag: tag, printer: message.NewPrinter(tag, message.Catalog(messages))}
}

// Tag returns the resolved locale.
func (l Localizer) Tag() language.Tag {
	return l.tag
}

// Text returns the message for key.
func (l Localizer) Text(key string) string {
	if l.printer == nil {
		return NewLocalizer(defaultLocale).Text(key)
	}
	return l.printer.Sprintf(key)
}
