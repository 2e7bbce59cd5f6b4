package handlers

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/render"

	"github.com/lazaroMB/mcp-to-api/pkg/oauth"
)

// DiscoveryRedirectHandler forwards discovery requests that arrive at the
// wrong mount point to the canonical per-resource path. OAuth clients
// commonly probe `/.well-known/{type}/api/mcp/{slug}` or
// `/api/mcp/{slug}/.well-known/{type}`; both are 307-redirected to
// `/api/oauth/{slug}/.well-known/{type}`.
type DiscoveryRedirectHandler struct{}

// NewDiscoveryRedirectHandler creates a new discovery redirect handler
func NewDiscoveryRedirectHandler() *DiscoveryRedirectHandler {
	return &DiscoveryRedirectHandler{}
}

var mcpPathPattern = regexp.MustCompile(`/api/mcp/([A-Za-z0-9_-]+)`)

// inferDiscoveryType matches a path fragment against the known discovery
// document names. When nothing matches but a slug is present, the
// protected-resource document is assumed.
func inferDiscoveryType(fragment string) string {
	for _, known := range []string{
		oauth.DiscoveryAuthorizationServer,
		oauth.DiscoveryOpenIDConfiguration,
		oauth.DiscoveryProtectedResource,
		oauth.DiscoveryJWKS,
	} {
		if strings.Contains(fragment, known) {
			return known
		}
	}
	return ""
}

func canonicalDiscoveryPath(slug, discoveryType string) string {
	if discoveryType == "" {
		discoveryType = oauth.DiscoveryProtectedResource
	}
	return "/api/oauth/" + slug + "/.well-known/" + discoveryType
}

// RedirectWellKnown handles `/.well-known/{type}/api/mcp/{slug}` probes
func (h *DiscoveryRedirectHandler) RedirectWellKnown(w http.ResponseWriter, r *http.Request) {
	match := mcpPathPattern.FindStringSubmatch(r.URL.Path)
	if match == nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, map[string]string{
			"error":             "not_found",
			"error_description": "No MCP slug could be parsed from " + r.URL.Path,
		})
		return
	}
	slug := match[1]
	discoveryType := inferDiscoveryType(strings.TrimPrefix(r.URL.Path, "/.well-known/"))
	http.Redirect(w, r, canonicalDiscoveryPath(slug, discoveryType), http.StatusTemporaryRedirect)
}

// RedirectResourceWellKnown handles `/api/mcp/{slug}/.well-known/{type}` probes
func (h *DiscoveryRedirectHandler) RedirectResourceWellKnown(w http.ResponseWriter, r *http.Request) {
	match := mcpPathPattern.FindStringSubmatch(r.URL.Path)
	if match == nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, map[string]string{
			"error":             "not_found",
			"error_description": "No MCP slug could be parsed from " + r.URL.Path,
		})
		return
	}
	slug := match[1]
	idx := strings.Index(r.URL.Path, "/.well-known/")
	discoveryType := inferDiscoveryType(r.URL.Path[idx+len("/.well-known/"):])
	http.Redirect(w, r, canonicalDiscoveryPath(slug, discoveryType), http.StatusTemporaryRedirect)
}

// RedirectAuthorize forwards a bare `/authorize` request to the resource's
// own authorize endpoint, extracting the slug from the `resource` query
// parameter's `/api/mcp/{slug}` path segment.
func (h *DiscoveryRedirectHandler) RedirectAuthorize(w http.ResponseWriter, r *http.Request) {
	resource := r.URL.Query().Get("resource")
	match := mcpPathPattern.FindStringSubmatch(resource)
	if match == nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]string{
			"error":             "invalid_request",
			"error_description": "No MCP slug could be extracted from the resource parameter",
		})
		return
	}
	target := "/api/oauth/" + match[1] + "/authorize"
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}
