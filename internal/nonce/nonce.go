// Package nonce issues per-order return-URL tokens. The redirect-back
// endpoints refuse to act on any query parameter until the nonce checks out,
// so a crafted return link cannot probe or annotate arbitrary orders.
package nonce

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// New derives a URL-safe token binding scope to the shared secret.
func New(secret, scope string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(scope))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Verify is constant-time.
func Verify(secret, scope, value string) bool {
	return hmac.Equal([]byte(New(secret, scope)), []byte(value))
}
