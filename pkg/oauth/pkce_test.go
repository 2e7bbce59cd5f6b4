package oauth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lazaroMB/mcp-to-api/pkg/oauth"
)

func TestS256Challenge(t *testing.T) {
	// known vector from RFC 7636 appendix B
	verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	assert.Equal(t, "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM", oauth.S256Challenge(verifier))
}

func TestVerifyPKCE(t *testing.T) {
	verifier := "some-high-entropy-verifier-string-0123456789"
	challenge := oauth.S256Challenge(verifier)

	assert.True(t, oauth.VerifyPKCE(verifier, challenge))
	assert.False(t, oauth.VerifyPKCE("a-different-verifier", challenge))
	assert.False(t, oauth.VerifyPKCE(verifier, "not-the-challenge"))
	assert.False(t, oauth.VerifyPKCE("", challenge))
}
