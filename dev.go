package authsession

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
)

// DevIdentity holds attributes used when minting synthetic tokens for local development.
type DevIdentity struct {
	Subject  string
	Issuer   string
	Audience string
	Name     string
	Email    string
	Admin    bool
	TTL      time.Duration
}

// ToIdentity converts the dev attributes into a claim set issued at now.
func (d DevIdentity) ToIdentity(now time.Time) Identity {
	ttl := d.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	id := Identity{
		"sub":    d.Subject,
		"iss":    d.Issuer,
		"aud":    d.Audience,
		"iat":    json.Number(fmt.Sprint(now.Unix())),
		"exp":    json.Number(fmt.Sprint(now.Add(ttl).Unix())),
		"emails": []any{d.Email},
		"name":   d.Name,
	}
	if d.Admin {
		id[defaultAdminClaim] = true
	}
	return id
}

// DefaultDevIdentity returns a baseline B2C-shaped identity suitable for local development.
func DefaultDevIdentity(clientID string) DevIdentity {
	aud := clientID
	if aud == "" {
		aud = "dev-client"
	}
	return DevIdentity{
		Subject:  "dev-user",
		Issuer:   "authsession.dev",
		Audience: aud,
		Name:     "Dev User",
		Email:    "dev@localhost",
		TTL:      time.Hour,
	}
}

// MintDevToken signs the identity with HS256 so it round-trips through DecodePayload.
// The signature is never checked by this package.
func MintDevToken(id Identity, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("secret is required")
	}
	payload, err := json.Marshal(id)
	if err != nil {
		return "", fmt.Errorf("encode claims: %w", err)
	}
	signed, err := jws.Sign(payload, jws.WithKey(jwa.HS256, secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return string(signed), nil
}
