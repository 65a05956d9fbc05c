package authsession

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

const nonceSize = 16

func newNonce() (string, error) {
	var raw [nonceSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}
