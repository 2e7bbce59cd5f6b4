package oauth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

// S256Challenge computes the PKCE S256 challenge for a verifier:
// BASE64URL-ENCODE(SHA256(ASCII(verifier))) without padding (RFC 7636).
func S256Challenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// VerifyPKCE reports whether the presented verifier hashes to the stored
// challenge. Comparison is constant-time.
func VerifyPKCE(verifier, challenge string) bool {
	computed := S256Challenge(verifier)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(challenge)) == 1
}

// randomToken returns a URL-safe random string with n bytes of entropy
func randomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
