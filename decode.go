package authsession

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lestrrat-go/jwx/v2/jws"
	"google.golang.org/api/idtoken"
)

// PayloadDecoder turns a compact token into its claim set without verifying it.
type PayloadDecoder func(token string) (Identity, error)

var googleParsePayload = idtoken.ParsePayload

// DecodePayload decodes the payload segment of a compact JWS and parses it as JSON.
// Tokens jws cannot parse, such as "header.payload", fall back to decoding the
// second segment directly.
func DecodePayload(token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, newError(ErrCodeDecode, errors.New("token is empty"))
	}
	msg, err := jws.Parse([]byte(token), jws.WithCompact())
	if err != nil {
		payload, segErr := payloadSegment(token)
		if segErr != nil {
			return nil, newError(ErrCodeDecode, errors.Join(err, segErr))
		}
		return parseIdentity(payload)
	}
	return parseIdentity(msg.Payload())
}

func payloadSegment(token string) ([]byte, error) {
	parts := strings.Split(token, ".")
	if len(parts) < 2 || parts[1] == "" {
		return nil, errors.New("payload segment missing")
	}
	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return nil, fmt.Errorf("decode payload segment: %w", err)
	}
	return payload, nil
}

// DecodeGooglePayload reads a Google ID token payload through idtoken. Claims
// are re-parsed so numbers come back as json.Number, as they do on restore.
func DecodeGooglePayload(token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, newError(ErrCodeDecode, errors.New("token is empty"))
	}
	payload, err := googleParsePayload(token)
	if err != nil {
		return nil, newError(ErrCodeDecode, err)
	}
	if len(payload.Claims) == 0 {
		return nil, newError(ErrCodeDecode, errors.New("payload has no claims"))
	}
	data, err := json.Marshal(payload.Claims)
	if err != nil {
		return nil, newError(ErrCodeDecode, fmt.Errorf("encode claims: %w", err))
	}
	return parseIdentity(data)
}

// parseIdentity parses a JSON object, keeping numbers as json.Number.
func parseIdentity(data []byte) (Identity, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var id Identity
	if err := dec.Decode(&id); err != nil {
		return nil, newError(ErrCodeDecode, fmt.Errorf("parse claims: %w", err))
	}
	if id == nil {
		return nil, newError(ErrCodeDecode, errors.New("claims are not a JSON object"))
	}
	return id, nil
}

func encodeIdentity(id Identity) (string, error) {
	data, err := json.Marshal(id)
	if err != nil {
		return "", fmt.Errorf("encode identity: %w", err)
	}
	return string(data), nil
}

func decoderFor(preset string) PayloadDecoder {
	if preset == PresetGoogle {
		return DecodeGooglePayload
	}
	return DecodePayload
}
