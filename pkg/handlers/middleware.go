package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/render"

	"github.com/lazaroMB/mcp-to-api/pkg/mcp/protocol"
	"github.com/lazaroMB/mcp-to-api/pkg/oauth"
)

// ContextKey is the type for context keys
type ContextKey string

const (
	// ContextKeyClaims is the context key for validated token claims
	ContextKeyClaims ContextKey = "tokenClaims"
)

// BearerToken extracts the bearer token from the Authorization header,
// returning an empty string when absent or malformed
func BearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// ClaimsFromContext retrieves validated token claims from the request context
func ClaimsFromContext(ctx context.Context) *oauth.Claims {
	claims, ok := ctx.Value(ContextKeyClaims).(*oauth.Claims)
	if !ok {
		return nil
	}
	return claims
}

// withClaims stores validated claims on the request context
func withClaims(r *http.Request, claims *oauth.Claims) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ContextKeyClaims, claims))
}

// unauthorized writes a 401 with a WWW-Authenticate challenge pointing at
// the resource's discovery metadata (RFC 9728 §5.1). The body is a JSON-RPC
// error so protocol clients can surface it without sniffing content types.
func unauthorized(w http.ResponseWriter, r *http.Request, metadataURL string) {
	w.Header().Set("WWW-Authenticate", `Bearer resource_metadata="`+metadataURL+`"`)
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, protocol.NewError(nil, protocol.InvalidRequest, "Missing or invalid bearer token"))
}
