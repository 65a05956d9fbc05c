package authsession

import "time"

// Session is the unit of authentication state: token, identity and expiry.
type Session struct {
	ID        string
	Token     string
	Identity  Identity
	ExpiresAt time.Time
}

// Valid reports whether the session is usable at now.
func (s *Session) Valid(now time.Time) bool {
	return s != nil && s.Token != "" && s.ExpiresAt.After(now)
}

// View is what the rendering layer needs to draw the signed-in user.
type View struct {
	DisplayName  string `json:"displayName"`
	Email        string `json:"email"`
	Initials     string `json:"initials"`
	IsAdmin      bool   `json:"isAdmin"`
	SessionValid bool   `json:"sessionValid"`
}

// Portal is a dashboard destination that receives the session token.
type Portal struct {
	Name      string
	URL       string
	AdminOnly bool
}

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time { return f() }
