package server_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lazaroMB/mcp-to-api/internal/testutils"
)

func TestEndpointProtection(t *testing.T) {
	tests := []struct {
		name      string
		method    string
		url       string
		protected bool
	}{
		{"Liveness", http.MethodGet, "/checks/liveness", false},
		{"Readiness", http.MethodGet, "/checks/readiness", false},
		{"Metrics", http.MethodGet, "/metrics", false},
		{"Gateway", http.MethodPost, "/api/mcp/ghost", false}, // 404, not 401
	}

	srv := testutils.GetTestMockServer(t)

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			request := httptest.NewRequest(test.method, test.url, strings.NewReader(""))
			writer := httptest.NewRecorder()
			srv.Mux.ServeHTTP(writer, request)
			assert.Equal(t, test.protected, writer.Code == http.StatusUnauthorized)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := testutils.GetTestMockServer(t)

	request := httptest.NewRequest(http.MethodGet, "/metrics", strings.NewReader(""))
	writer := httptest.NewRecorder()
	srv.Mux.ServeHTTP(writer, request)

	assert.Equal(t, http.StatusOK, writer.Code)
	assert.Contains(t, writer.Body.String(), "go_info")
}

func TestCors(t *testing.T) {
	tests := []struct {
		name                  string
		origin                string
		expectHeaders         bool
		expectedHeader        string
		expectedHeaderContent string
	}{
		{
			name:                  "allowed origin gets Access-Control-Allow-Origin",
			origin:                "https://localhost:3000",
			expectHeaders:         true,
			expectedHeader:        "Access-Control-Allow-Origin",
			expectedHeaderContent: "https://localhost:3000",
		},
		{
			name:                  "allowed origin gets Access-Control-Allow-Credentials",
			origin:                "https://localhost:3000",
			expectHeaders:         true,
			expectedHeader:        "Access-Control-Allow-Credentials",
			expectedHeaderContent: "true",
		},
		{
			name:           "unknown origin gets no CORS headers",
			origin:         "https://evil.example.com",
			expectHeaders:  false,
			expectedHeader: "Access-Control-Allow-Origin",
		},
	}

	srv := testutils.GetTestMockServer(t)

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/checks/liveness", nil)
			request.Header.Set("Origin", test.origin)
			writer := httptest.NewRecorder()
			srv.Mux.ServeHTTP(writer, request)

			if test.expectHeaders {
				assert.Equal(t, test.expectedHeaderContent, writer.Header().Get(test.expectedHeader))
			} else {
				assert.Equal(t, "", writer.Header().Get(test.expectedHeader))
			}
		})
	}
}
