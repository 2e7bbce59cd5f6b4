package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/pkg/errors"

	"github.com/d4l-data4life/go-svc/pkg/logging"

	"github.com/lazaroMB/mcp-to-api/pkg/gateway"
	"github.com/lazaroMB/mcp-to-api/pkg/mcp/protocol"
	"github.com/lazaroMB/mcp-to-api/pkg/oauth"
	"github.com/lazaroMB/mcp-to-api/pkg/registry"
)

// GatewayHandler serves the JSON-RPC protocol endpoint at /api/mcp/{slug}
type GatewayHandler struct {
	registry   *registry.Registry
	svc        *oauth.Service
	dispatcher *gateway.Dispatcher
	baseURL    string
}

// NewGatewayHandler creates a new gateway handler
func NewGatewayHandler(reg *registry.Registry, svc *oauth.Service, dispatcher *gateway.Dispatcher, baseURL string) *GatewayHandler {
	return &GatewayHandler{registry: reg, svc: svc, dispatcher: dispatcher, baseURL: baseURL}
}

// Routes returns the gateway routes mounted at /api/mcp/{slug}
func (h *GatewayHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Handle)
	return r
}

// Handle authenticates the bearer token and dispatches one JSON-RPC request
func (h *GatewayHandler) Handle(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	mcp, err := h.registry.ResolveEnabled(slug)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, map[string]string{"error": "not_found", "error_description": "Unknown MCP: " + slug})
			return
		}
		logging.LogErrorf(err, "Failed to resolve mcp %s", slug)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]string{"error": "server_error"})
		return
	}

	metadataURL := oauth.IssuerURL(h.baseURL, mcp.Slug) + "/.well-known/" + oauth.DiscoveryProtectedResource

	token := BearerToken(r)
	if token == "" {
		unauthorized(w, r, metadataURL)
		return
	}
	claims, err := h.svc.Validate(token, mcp.ID)
	if err != nil {
		if !errors.Is(err, oauth.ErrInvalidToken) {
			logging.LogErrorf(err, "Token validation failed for mcp %s", mcp.Slug)
		}
		unauthorized(w, r, metadataURL)
		return
	}

	r = withClaims(r, claims)

	var req protocol.JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.JSON(w, r, protocol.NewError(nil, protocol.ParseError, "parse error"))
		return
	}

	resp := h.dispatcher.Dispatch(r.Context(), mcp, clientIP(r), &req)
	if resp == nil {
		// notification: acknowledged without a body
		w.WriteHeader(http.StatusAccepted)
		return
	}
	render.JSON(w, r, resp)
}

// clientIP returns the caller address as set by the RealIP middleware
func clientIP(r *http.Request) string {
	return r.RemoteAddr
}
