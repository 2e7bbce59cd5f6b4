package handlers

import (
	"strings"

	"github.com/go-chi/chi"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/lazaroMB/mcp-to-api/pkg/gateway"
	"github.com/lazaroMB/mcp-to-api/pkg/oauth"
	"github.com/lazaroMB/mcp-to-api/pkg/registry"
)

// RegisterRoutes registers all API routes
func RegisterRoutes(
	r chi.Router,
	db *gorm.DB,
	reg *registry.Registry,
	svc *oauth.Service,
	dispatcher *gateway.Dispatcher,
	baseURL string,
) {
	checksHandler := NewChecksHandler(db)
	r.Mount("/checks", checksHandler.Routes())
	r.Mount("/metrics", promhttp.Handler())

	redirects := NewDiscoveryRedirectHandler()

	// discovery probes arriving at the wrong mount point
	r.Get("/.well-known/*", redirects.RedirectWellKnown)
	r.Get("/api/mcp/{slug}/.well-known/*", redirects.RedirectResourceWellKnown)
	r.Get("/authorize", redirects.RedirectAuthorize)

	// per-resource authorization server
	oauthHandler := NewOAuthHandler(db, reg, svc, baseURL)
	r.Mount("/api/oauth/{slug}", oauthHandler.Routes())

	// protocol gateway
	gatewayHandler := NewGatewayHandler(reg, svc, dispatcher, baseURL)
	r.Mount("/api/mcp/{slug}", gatewayHandler.Routes())
}

// randomSuffix returns a short unique identifier fragment
func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
