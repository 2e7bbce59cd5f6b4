package transform_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/lazaroMB/mcp-to-api/pkg/models"
	"github.com/lazaroMB/mcp-to-api/pkg/transform"
)

func TestExecutor_GetSendsQueryParams(t *testing.T) {
	var captured *http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.Clone(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	api := models.DownstreamAPI{Name: "test", Method: "GET", URL: server.URL + "/search"}
	executor := transform.NewExecutor(5 * time.Second)

	result, err := executor.Execute(context.Background(), &api, map[string]interface{}{
		"q":    "hello world",
		"page": float64(2),
	})
	require.NoError(t, err)
	assert.True(t, result.Succeeded())
	require.NotNil(t, captured)
	assert.Equal(t, "hello world", captured.URL.Query().Get("q"))
	assert.Equal(t, "2", captured.URL.Query().Get("page"))
}

func TestExecutor_PostSendsJSONBody(t *testing.T) {
	var body map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	api := models.DownstreamAPI{Name: "test", Method: "POST", URL: server.URL + "/items"}
	executor := transform.NewExecutor(5 * time.Second)

	result, err := executor.Execute(context.Background(), &api, map[string]interface{}{"name": "widget"})
	require.NoError(t, err)
	assert.True(t, result.Succeeded())
	assert.Equal(t, "widget", body["name"])
}

func TestExecutor_URLPlaceholderSubstitution(t *testing.T) {
	var path string
	var query string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		query = r.URL.RawQuery
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	api := models.DownstreamAPI{Name: "test", Method: "GET", URL: server.URL + "/users/{id}/posts"}
	executor := transform.NewExecutor(5 * time.Second)

	_, err := executor.Execute(context.Background(), &api, map[string]interface{}{
		"id":    "42",
		"limit": float64(10),
	})
	require.NoError(t, err)
	assert.Equal(t, "/users/42/posts", path)
	// the consumed placeholder field does not leak into the query
	assert.Equal(t, "limit=10", query)
}

func TestExecutor_TemplatedHeadersAndCookies(t *testing.T) {
	var captured *http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.Clone(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	api := models.DownstreamAPI{
		Name:    "test",
		Method:  "POST",
		URL:     server.URL,
		Headers: datatypes.JSON([]byte(`{"X-Api-Key":"static-key","X-Caller":"{caller}"}`)),
		Cookies: datatypes.JSON([]byte(`{"session":"{caller}"}`)),
	}
	executor := transform.NewExecutor(5 * time.Second)

	_, err := executor.Execute(context.Background(), &api, map[string]interface{}{"caller": "alice"})
	require.NoError(t, err)
	require.NotNil(t, captured)
	assert.Equal(t, "static-key", captured.Header.Get("X-Api-Key"))
	assert.Equal(t, "alice", captured.Header.Get("X-Caller"))
	cookie, err := captured.Cookie("session")
	require.NoError(t, err)
	assert.Equal(t, "alice", cookie.Value)
}

func TestExecutor_NonSuccessStatusKeepsBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream exploded"))
	}))
	defer server.Close()

	api := models.DownstreamAPI{Name: "test", Method: "GET", URL: server.URL}
	executor := transform.NewExecutor(5 * time.Second)

	result, err := executor.Execute(context.Background(), &api, nil)
	require.NoError(t, err)
	assert.False(t, result.Succeeded())
	assert.Equal(t, http.StatusBadGateway, result.Status)
	assert.Equal(t, "upstream exploded", string(result.Body))
}

func TestExecutor_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	api := models.DownstreamAPI{Name: "slow", Method: "GET", URL: server.URL}
	executor := transform.NewExecutor(20 * time.Millisecond)

	_, err := executor.Execute(context.Background(), &api, nil)
	assert.Error(t, err)
}

func TestToolContent_JSONBecomesResource(t *testing.T) {
	res := &transform.Result{
		Status:      http.StatusOK,
		Body:        []byte(`{"ok":true}`),
		ContentType: "application/json; charset=utf-8",
	}

	content, isError := transform.ToolContent("mcp://demo/echo", res)
	require.Len(t, content, 1)
	assert.False(t, isError)
	assert.Equal(t, "resource", content[0].Type)
	require.NotNil(t, content[0].Resource)
	assert.Equal(t, "mcp://demo/echo", content[0].Resource.URI)
	assert.Equal(t, `{"ok":true}`, content[0].Resource.Text)
}

func TestToolContent_PlainTextStaysText(t *testing.T) {
	res := &transform.Result{
		Status:      http.StatusOK,
		Body:        []byte("pong"),
		ContentType: "text/plain",
	}

	content, isError := transform.ToolContent("mcp://demo/echo", res)
	require.Len(t, content, 1)
	assert.False(t, isError)
	assert.Equal(t, "text", content[0].Type)
	assert.Equal(t, "pong", content[0].Text)
}
