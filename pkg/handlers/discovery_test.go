package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lazaroMB/mcp-to-api/internal/testutils"
)

func TestDiscoveryRedirect_WellKnownPrefix(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{
			name: "authorization server metadata",
			path: "/.well-known/oauth-authorization-server/api/mcp/pepe",
			want: "/api/oauth/pepe/.well-known/oauth-authorization-server",
		},
		{
			name: "protected resource metadata",
			path: "/.well-known/oauth-protected-resource/api/mcp/pepe",
			want: "/api/oauth/pepe/.well-known/oauth-protected-resource",
		},
		{
			name: "openid configuration",
			path: "/.well-known/openid-configuration/api/mcp/pepe",
			want: "/api/oauth/pepe/.well-known/openid-configuration",
		},
	}

	srv := testutils.GetTestMockServer(t)
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", test.path, nil)
			w := httptest.NewRecorder()
			srv.Mux.ServeHTTP(w, req)

			assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
			assert.Equal(t, test.want, w.Header().Get("Location"))
		})
	}
}

func TestDiscoveryRedirect_ResourceSuffix(t *testing.T) {
	srv := testutils.GetTestMockServer(t)

	req := httptest.NewRequest("GET", "/api/mcp/pepe/.well-known/oauth-protected-resource", nil)
	w := httptest.NewRecorder()
	srv.Mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "/api/oauth/pepe/.well-known/oauth-protected-resource", w.Header().Get("Location"))
}

func TestDiscoveryRedirect_UnknownTypeDefaultsToProtectedResource(t *testing.T) {
	srv := testutils.GetTestMockServer(t)

	req := httptest.NewRequest("GET", "/.well-known/whatever/api/mcp/pepe", nil)
	w := httptest.NewRecorder()
	srv.Mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "/api/oauth/pepe/.well-known/oauth-protected-resource", w.Header().Get("Location"))
}

func TestDiscoveryRedirect_NoSlug(t *testing.T) {
	srv := testutils.GetTestMockServer(t)

	req := httptest.NewRequest("GET", "/.well-known/oauth-authorization-server", nil)
	w := httptest.NewRecorder()
	srv.Mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "not_found")
}

func TestDiscoveryRedirect_BareAuthorize(t *testing.T) {
	srv := testutils.GetTestMockServer(t)

	req := httptest.NewRequest("GET", "/authorize?resource=http%3A%2F%2Flocalhost%3A8080%2Fapi%2Fmcp%2Fpepe&client_id=abc", nil)
	w := httptest.NewRecorder()
	srv.Mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	location := w.Header().Get("Location")
	assert.Contains(t, location, "/api/oauth/pepe/authorize?")
	// the original query travels with the redirect
	assert.Contains(t, location, "client_id=abc")
}

func TestDiscoveryRedirect_BareAuthorizeWithoutResource(t *testing.T) {
	srv := testutils.GetTestMockServer(t)

	req := httptest.NewRequest("GET", "/authorize?client_id=abc", nil)
	w := httptest.NewRecorder()
	srv.Mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_request")
}
