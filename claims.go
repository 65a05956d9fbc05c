package authsession

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Identity is the decoded claim set of an identity token.
type Identity map[string]any

// Extractor pulls one candidate value out of an identity.
// An empty result means "try the next one".
type Extractor func(Identity) string

// FirstOf returns the first non-empty extractor result.
func FirstOf(id Identity, extractors ...Extractor) string {
	for _, extract := range extractors {
		if v := extract(id); v != "" {
			return v
		}
	}
	return ""
}

// Claim returns an extractor for a string claim.
func Claim(name string) Extractor {
	return func(id Identity) string {
		return id.String(name)
	}
}

// FirstElement returns an extractor for the first element of an array claim.
func FirstElement(name string) Extractor {
	return func(id Identity) string {
		values := id.Strings(name)
		if len(values) == 0 {
			return ""
		}
		return values[0]
	}
}

// Constant returns an extractor that always yields value.
func Constant(value string) Extractor {
	return func(Identity) string {
		return value
	}
}

var (
	emailExtractors = []Extractor{FirstElement("emails"), Claim("email"), Claim("preferred_username")}
	nameExtractors  = []Extractor{Claim("name"), Claim("given_name")}
)

// String returns a trimmed string claim, or "" when absent or not a string.
func (id Identity) String(name string) string {
	if id == nil {
		return ""
	}
	s, ok := id[name].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// Strings returns a claim as a list of non-empty strings.
func (id Identity) Strings(name string) []string {
	if id == nil {
		return nil
	}
	switch v := id[name].(type) {
	case []string:
		out := make([]string, 0, len(v))
		for _, s := range v {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return []string{s}
		}
	}
	return nil
}

// Bool reports whether a claim is set to a truthy value.
func (id Identity) Bool(name string) bool {
	if id == nil {
		return false
	}
	switch v := id[name].(type) {
	case bool:
		return v
	case string:
		s := strings.TrimSpace(v)
		return strings.EqualFold(s, "true") || s == "1"
	case json.Number:
		f, err := v.Float64()
		return err == nil && f != 0
	case float64:
		return v != 0
	case int:
		return v != 0
	case int64:
		return v != 0
	}
	return false
}

// Time reads a NumericDate claim such as exp or iat.
func (id Identity) Time(name string) (time.Time, bool) {
	if id == nil {
		return time.Time{}, false
	}
	var seconds float64
	switch v := id[name].(type) {
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return time.Time{}, false
		}
		seconds = f
	case float64:
		seconds = v
	case int64:
		seconds = float64(v)
	case int:
		seconds = float64(v)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return time.Time{}, false
		}
		seconds = f
	default:
		return time.Time{}, false
	}
	if seconds <= 0 {
		return time.Time{}, false
	}
	return time.Unix(int64(seconds), 0).UTC(), true
}

// Subject returns the sub claim.
func (id Identity) Subject() string {
	return id.String("sub")
}

// ClaimPolicy holds the defaults and admin rules used to derive profile data.
type ClaimPolicy struct {
	DefaultEmail string
	DefaultName  string
	AdminClaim   string
	AdminDomains []string
}

// Email returns emails[0], email or preferred_username, else the default.
func (p ClaimPolicy) Email(id Identity) string {
	if v := FirstOf(id, emailExtractors...); v != "" {
		return v
	}
	return p.DefaultEmail
}

// DisplayName returns name or given_name, else the default.
func (p ClaimPolicy) DisplayName(id Identity) string {
	if v := FirstOf(id, nameExtractors...); v != "" {
		return v
	}
	return p.DefaultName
}

// Initials derives up to two uppercase letters for an avatar.
func (p ClaimPolicy) Initials(id Identity) string {
	parts := strings.Fields(FirstOf(id, nameExtractors...))
	switch {
	case len(parts) >= 2:
		return firstLetter(parts[0]) + firstLetter(parts[1])
	case len(parts) == 1:
		return firstLetter(parts[0])
	}
	return firstLetter(p.Email(id))
}

// IsAdmin reports whether the identity carries an admin claim or an allow-listed email domain.
func (p ClaimPolicy) IsAdmin(id Identity) bool {
	if id == nil {
		return false
	}
	if p.AdminClaim != "" && id.Bool(p.AdminClaim) {
		return true
	}
	if id.Bool("isAdmin") {
		return true
	}
	email := strings.ToLower(FirstOf(id, emailExtractors...))
	if email == "" {
		return false
	}
	for _, domain := range p.AdminDomains {
		if domain != "" && strings.HasSuffix(email, strings.ToLower(domain)) {
			return true
		}
	}
	return false
}

func firstLetter(s string) string {
	for _, r := range s {
		return string(unicode.ToUpper(r))
	}
	return ""
}
