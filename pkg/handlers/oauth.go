package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/d4l-data4life/go-svc/pkg/logging"

	"github.com/lazaroMB/mcp-to-api/pkg/models"
	"github.com/lazaroMB/mcp-to-api/pkg/oauth"
	"github.com/lazaroMB/mcp-to-api/pkg/registry"
)

// OAuthHandler serves the per-resource authorization server endpoints
type OAuthHandler struct {
	db       *gorm.DB
	registry *registry.Registry
	svc      *oauth.Service
	baseURL  string
}

// NewOAuthHandler creates a new OAuth handler
func NewOAuthHandler(db *gorm.DB, reg *registry.Registry, svc *oauth.Service, baseURL string) *OAuthHandler {
	return &OAuthHandler{db: db, registry: reg, svc: svc, baseURL: baseURL}
}

// Routes returns the routes mounted at /api/oauth/{slug}
func (h *OAuthHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/.well-known/oauth-protected-resource", h.ProtectedResourceMetadata)
	r.Get("/.well-known/oauth-authorization-server", h.ServerMetadata)
	r.Get("/.well-known/openid-configuration", h.ServerMetadata)
	r.Get("/.well-known/jwks.json", h.JWKS)

	r.Get("/authorize", h.Authorize)
	r.Post("/token", h.Token)
	r.Post("/introspect", h.Introspect)
	r.Post("/register", h.Register)

	return r
}

// resolve loads the enabled resource for the slug URL parameter, writing a
// 404 when it does not resolve
func (h *OAuthHandler) resolve(w http.ResponseWriter, r *http.Request) *models.MCP {
	slug := chi.URLParam(r, "slug")
	mcp, err := h.registry.ResolveEnabled(slug)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, map[string]string{"error": "invalid_resource", "error_description": "Unknown MCP: " + slug})
			return nil
		}
		logging.LogErrorf(err, "Failed to resolve mcp %s", slug)
		oauthError(w, r, http.StatusInternalServerError, "server_error", "")
		return nil
	}
	return mcp
}

func oauthError(w http.ResponseWriter, r *http.Request, status int, code, description string) {
	render.Status(r, status)
	body := map[string]string{"error": code}
	if description != "" {
		body["error_description"] = description
	}
	render.JSON(w, r, body)
}

// ProtectedResourceMetadata serves the RFC 9728 discovery document
func (h *OAuthHandler) ProtectedResourceMetadata(w http.ResponseWriter, r *http.Request) {
	mcp := h.resolve(w, r)
	if mcp == nil {
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")
	render.JSON(w, r, oauth.NewProtectedResourceMetadata(h.baseURL, mcp.Slug))
}

// ServerMetadata serves the RFC 8414 document; the same payload answers
// both oauth-authorization-server and openid-configuration
func (h *OAuthHandler) ServerMetadata(w http.ResponseWriter, r *http.Request) {
	mcp := h.resolve(w, r)
	if mcp == nil {
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")
	render.JSON(w, r, oauth.NewAuthorizationServerMetadata(h.baseURL, mcp.Slug))
}

// JWKS serves the key set, which is empty in symmetric-signing mode
func (h *OAuthHandler) JWKS(w http.ResponseWriter, r *http.Request) {
	mcp := h.resolve(w, r)
	if mcp == nil {
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")
	render.JSON(w, r, oauth.NewJWKSDocument())
}

// Authorize issues an authorization code and redirects back to the client.
// The requesting user authenticates with a session token (Authorization
// header or "session" cookie); login itself is outside this service.
func (h *OAuthHandler) Authorize(w http.ResponseWriter, r *http.Request) {
	mcp := h.resolve(w, r)
	if mcp == nil {
		return
	}

	q := r.URL.Query()
	if rt := q.Get("response_type"); rt != "" && rt != "code" {
		oauthError(w, r, http.StatusBadRequest, "unsupported_response_type", "Only response_type=code is supported")
		return
	}

	sessionToken := BearerToken(r)
	if sessionToken == "" {
		if cookie, err := r.Cookie("session"); err == nil {
			sessionToken = cookie.Value
		}
	}
	userID, err := h.svc.ParseSessionToken(sessionToken)
	if err != nil {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, map[string]string{"error": "access_denied", "error_description": "Authentication required"})
		return
	}

	req := oauth.CodeRequest{
		ClientID:            q.Get("client_id"),
		RedirectURI:         q.Get("redirect_uri"),
		CodeChallenge:       q.Get("code_challenge"),
		CodeChallengeMethod: q.Get("code_challenge_method"),
		Scope:               q.Get("scope"),
		Resource:            q.Get("resource"),
	}

	// registered clients may only use their registered redirect URIs
	var client models.OAuthClient
	if err := h.db.Where("client_id = ?", req.ClientID).First(&client).Error; err == nil {
		if !client.AllowsRedirectURI(req.RedirectURI) {
			oauthError(w, r, http.StatusBadRequest, "invalid_request", "redirect_uri is not registered for this client")
			return
		}
	}

	code, err := h.svc.IssueCode(mcp, userID, req)
	if err != nil {
		switch {
		case errors.Is(err, oauth.ErrInvalidRequest):
			oauthError(w, r, http.StatusBadRequest, "invalid_request", "Missing required authorization parameters")
		case errors.Is(err, oauth.ErrAccessDenied):
			oauthError(w, r, http.StatusForbidden, "access_denied", "No access grant for this resource")
		default:
			logging.LogErrorf(err, "Failed to issue authorization code for mcp %s", mcp.Slug)
			oauthError(w, r, http.StatusInternalServerError, "server_error", "")
		}
		return
	}

	redirect, err := url.Parse(req.RedirectURI)
	if err != nil {
		oauthError(w, r, http.StatusBadRequest, "invalid_request", "Malformed redirect_uri")
		return
	}
	params := redirect.Query()
	params.Set("code", code.Code)
	if state := q.Get("state"); state != "" {
		params.Set("state", state)
	}
	redirect.RawQuery = params.Encode()

	http.Redirect(w, r, redirect.String(), http.StatusFound)
}

// Token exchanges an authorization code or refresh token for a token pair
func (h *OAuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	mcp := h.resolve(w, r)
	if mcp == nil {
		return
	}
	if err := r.ParseForm(); err != nil {
		oauthError(w, r, http.StatusBadRequest, "invalid_request", "Malformed form body")
		return
	}

	clientID := r.PostFormValue("client_id")
	if !h.authenticateClient(clientID, r.PostFormValue("client_secret")) {
		oauthError(w, r, http.StatusUnauthorized, "invalid_client", "Client authentication failed")
		return
	}

	var (
		tokens *oauth.TokenResponse
		err    error
	)
	switch r.PostFormValue("grant_type") {
	case "authorization_code":
		tokens, err = h.svc.ExchangeCode(
			mcp,
			r.PostFormValue("code"),
			r.PostFormValue("code_verifier"),
			clientID,
			r.PostFormValue("redirect_uri"),
		)
	case "refresh_token":
		tokens, err = h.svc.Refresh(mcp, r.PostFormValue("refresh_token"), clientID)
	default:
		oauthError(w, r, http.StatusBadRequest, "unsupported_grant_type", "Unsupported grant_type")
		return
	}

	if err != nil {
		switch {
		case errors.Is(err, oauth.ErrInvalidRequest):
			oauthError(w, r, http.StatusBadRequest, "invalid_request", "Missing required token parameters")
		case errors.Is(err, oauth.ErrInvalidGrant):
			oauthError(w, r, http.StatusBadRequest, "invalid_grant", "Invalid, expired or already used grant")
		default:
			logging.LogErrorf(err, "Token exchange failed for mcp %s", mcp.Slug)
			oauthError(w, r, http.StatusInternalServerError, "server_error", "")
		}
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	render.JSON(w, r, tokens)
}

// authenticateClient verifies client credentials for registered
// confidential clients. Unregistered and public clients pass; the access
// grant model remains the real gate on token issuance.
func (h *OAuthHandler) authenticateClient(clientID, clientSecret string) bool {
	if clientID == "" {
		return false
	}
	var client models.OAuthClient
	if err := h.db.Where("client_id = ?", clientID).First(&client).Error; err != nil {
		return errors.Is(err, gorm.ErrRecordNotFound)
	}
	if client.TokenEndpointAuthMethod == models.AuthMethodNone {
		return true
	}
	return client.CheckSecret(clientSecret)
}

// Introspect implements RFC 7662. The response is always 200 with an
// active boolean; a storage failure fails closed with 500.
func (h *OAuthHandler) Introspect(w http.ResponseWriter, r *http.Request) {
	mcp := h.resolve(w, r)
	if mcp == nil {
		return
	}
	if err := r.ParseForm(); err != nil {
		oauthError(w, r, http.StatusBadRequest, "invalid_request", "Malformed form body")
		return
	}

	// a caller identifying as a registered confidential client must prove it
	if clientID := r.PostFormValue("client_id"); clientID != "" {
		if !h.authenticateClient(clientID, r.PostFormValue("client_secret")) {
			oauthError(w, r, http.StatusUnauthorized, "invalid_client", "Client authentication failed")
			return
		}
	}

	response, err := h.svc.Introspect(r.PostFormValue("token"), mcp.ID)
	if err != nil {
		logging.LogErrorf(err, "Introspection failed for mcp %s", mcp.Slug)
		oauthError(w, r, http.StatusInternalServerError, "server_error", "")
		return
	}
	render.JSON(w, r, response)
}

// RegisterRequest is the dynamic client registration request (RFC 7591 subset)
type RegisterRequest struct {
	RedirectURIs            []string `json:"redirect_uris"`
	ClientName              string   `json:"client_name,omitempty"`
	TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method,omitempty"`
}

// Register creates an OAuth client. Confidential clients get a generated
// secret returned exactly once.
func (h *OAuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	mcp := h.resolve(w, r)
	if mcp == nil {
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.RedirectURIs) == 0 {
		oauthError(w, r, http.StatusBadRequest, "invalid_client_metadata", "redirect_uris is required")
		return
	}
	authMethod := req.TokenEndpointAuthMethod
	if authMethod == "" {
		authMethod = models.AuthMethodNone
	}
	if authMethod != models.AuthMethodNone && authMethod != models.AuthMethodSecretPost {
		oauthError(w, r, http.StatusBadRequest, "invalid_client_metadata", "Unsupported token_endpoint_auth_method")
		return
	}

	uris, err := json.Marshal(req.RedirectURIs)
	if err != nil {
		oauthError(w, r, http.StatusBadRequest, "invalid_client_metadata", "Malformed redirect_uris")
		return
	}

	client := models.OAuthClient{
		ClientID:                "mcp_" + mcp.Slug + "_" + randomSuffix(),
		ClientName:              req.ClientName,
		RedirectURIs:            datatypes.JSON(uris),
		TokenEndpointAuthMethod: authMethod,
	}

	var secret string
	if authMethod == models.AuthMethodSecretPost {
		secret = randomSuffix() + randomSuffix()
		if err := client.SetSecret(secret); err != nil {
			logging.LogErrorf(err, "Failed to hash client secret")
			oauthError(w, r, http.StatusInternalServerError, "server_error", "")
			return
		}
	}

	if err := h.db.Create(&client).Error; err != nil {
		logging.LogErrorf(err, "Failed to store oauth client")
		oauthError(w, r, http.StatusInternalServerError, "server_error", "")
		return
	}

	body := map[string]interface{}{
		"client_id":                  client.ClientID,
		"client_name":                client.ClientName,
		"redirect_uris":              req.RedirectURIs,
		"token_endpoint_auth_method": authMethod,
	}
	if secret != "" {
		body["client_secret"] = secret
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, body)
}
