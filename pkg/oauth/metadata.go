package oauth

// Discovery document names served under /.well-known/
const (
	DiscoveryProtectedResource   = "oauth-protected-resource"
	DiscoveryAuthorizationServer = "oauth-authorization-server"
	DiscoveryOpenIDConfiguration = "openid-configuration"
	DiscoveryJWKS                = "jwks.json"
)

// Scopes supported by every resource
var SupportedScopes = []string{"mcp:tools", "mcp:resources"}

// ProtectedResourceMetadata is the RFC 9728 discovery document
type ProtectedResourceMetadata struct {
	Resource               string   `json:"resource"`
	AuthorizationServers   []string `json:"authorization_servers"`
	ScopesSupported        []string `json:"scopes_supported,omitempty"`
	BearerMethodsSupported []string `json:"bearer_methods_supported,omitempty"`
}

// AuthorizationServerMetadata is the RFC 8414 discovery document. It is
// served both as oauth-authorization-server and openid-configuration.
type AuthorizationServerMetadata struct {
	Issuer                            string   `json:"issuer"`
	AuthorizationEndpoint             string   `json:"authorization_endpoint"`
	TokenEndpoint                     string   `json:"token_endpoint"`
	IntrospectionEndpoint             string   `json:"introspection_endpoint"`
	RegistrationEndpoint              string   `json:"registration_endpoint"`
	JWKSURI                           string   `json:"jwks_uri"`
	ResponseTypesSupported            []string `json:"response_types_supported"`
	GrantTypesSupported               []string `json:"grant_types_supported"`
	CodeChallengeMethodsSupported     []string `json:"code_challenge_methods_supported"`
	TokenEndpointAuthMethodsSupported []string `json:"token_endpoint_auth_methods_supported"`
	ScopesSupported                   []string `json:"scopes_supported,omitempty"`
}

// JWKSDocument is the key-set document. Under the shared-secret signing
// scheme there is no public key material, so the set is always empty and
// callers must not assume keys are available.
type JWKSDocument struct {
	Keys []interface{} `json:"keys"`
}

// IssuerURL derives the per-resource issuer from the public base URL
func IssuerURL(baseURL, slug string) string {
	return baseURL + "/api/oauth/" + slug
}

// ResourceURL derives the canonical protected-resource URI
func ResourceURL(baseURL, slug string) string {
	return baseURL + "/api/mcp/" + slug
}

// NewProtectedResourceMetadata builds the RFC 9728 document for a resource
func NewProtectedResourceMetadata(baseURL, slug string) ProtectedResourceMetadata {
	return ProtectedResourceMetadata{
		Resource:               ResourceURL(baseURL, slug),
		AuthorizationServers:   []string{IssuerURL(baseURL, slug)},
		ScopesSupported:        SupportedScopes,
		BearerMethodsSupported: []string{"header"},
	}
}

// NewAuthorizationServerMetadata builds the RFC 8414 document for a resource
func NewAuthorizationServerMetadata(baseURL, slug string) AuthorizationServerMetadata {
	issuer := IssuerURL(baseURL, slug)
	return AuthorizationServerMetadata{
		Issuer:                            issuer,
		AuthorizationEndpoint:             issuer + "/authorize",
		TokenEndpoint:                     issuer + "/token",
		IntrospectionEndpoint:             issuer + "/introspect",
		RegistrationEndpoint:              issuer + "/register",
		JWKSURI:                           issuer + "/.well-known/jwks.json",
		ResponseTypesSupported:            []string{"code"},
		GrantTypesSupported:               []string{"authorization_code", "refresh_token"},
		CodeChallengeMethodsSupported:     []string{"S256"},
		TokenEndpointAuthMethodsSupported: []string{"none", "client_secret_post"},
		ScopesSupported:                   SupportedScopes,
	}
}

// NewJWKSDocument returns the empty key set used in symmetric-signing mode
func NewJWKSDocument() JWKSDocument {
	return JWKSDocument{Keys: []interface{}{}}
}
