package testutils

import (
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/lazaroMB/mcp-to-api/pkg/config"
	"github.com/lazaroMB/mcp-to-api/pkg/gateway"
	"github.com/lazaroMB/mcp-to-api/pkg/handlers"
	"github.com/lazaroMB/mcp-to-api/pkg/models"
	"github.com/lazaroMB/mcp-to-api/pkg/oauth"
	"github.com/lazaroMB/mcp-to-api/pkg/registry"
	"github.com/lazaroMB/mcp-to-api/pkg/server"
	"github.com/lazaroMB/mcp-to-api/pkg/transform"
	"github.com/lazaroMB/mcp-to-api/pkg/usage"
)

// TestBaseURL is the public base URL assumed in handler tests
const TestBaseURL = "http://localhost:8080"

// GetRequestPayload converts a given object into a reader of that object as json payload
func GetRequestPayload(payload interface{}) io.Reader {
	bytes, _ := json.Marshal(payload)
	return strings.NewReader(string(bytes))
}

// NewOAuthService builds a token service with short, test-friendly TTLs
func NewOAuthService(db *gorm.DB) *oauth.Service {
	return oauth.NewService(db, oauth.Config{
		Secret:          []byte("test-secret"),
		BaseURL:         TestBaseURL,
		CodeTTL:         10 * time.Minute,
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
	})
}

// TestServer bundles the fully wired router with its collaborators so
// handler tests can reach into any layer.
type TestServer struct {
	Mux      *chi.Mux
	DB       *gorm.DB
	Service  *oauth.Service
	Recorder *usage.Recorder
}

// GetTestMockServer wires a complete router against a fresh in-memory database
func GetTestMockServer(t *testing.T) *TestServer {
	t.Helper()
	db := models.InitializeTestDB(t)
	svc := NewOAuthService(db)
	reg := registry.NewRegistry(db, 50*time.Millisecond)
	executor := transform.NewExecutor(5 * time.Second)
	recorder := usage.NewRecorder(db, 16)
	t.Cleanup(recorder.Close)
	dispatcher := gateway.NewDispatcher(db, executor, recorder)

	corsHosts := strings.Split(config.DefaultCorsHosts, " ")
	srv := server.New(server.Options{
		CORS:                cors.New(config.CorsConfig(corsHosts)),
		MaxParallelRequests: 8,
		RequestTimeout:      30 * time.Second,
	})
	handlers.RegisterRoutes(srv.Mux(), db, reg, svc, dispatcher, TestBaseURL)

	return &TestServer{Mux: srv.Mux(), DB: db, Service: svc, Recorder: recorder}
}

// CreateUser inserts a user and returns it
func CreateUser(t *testing.T, db *gorm.DB) models.User {
	t.Helper()
	user := models.User{ID: uuid.New()}
	require.NoError(t, db.Create(&user).Error)
	return user
}

// CreateMCP inserts an enabled MCP resource owned by a fresh user
func CreateMCP(t *testing.T, db *gorm.DB, slug, visibility string) models.MCP {
	t.Helper()
	owner := CreateUser(t, db)
	mcp := models.MCP{
		Slug:        slug,
		Name:        "Test " + slug,
		Description: "Test resource " + slug,
		Enabled:     true,
		Visibility:  visibility,
		OwnerID:     owner.ID,
	}
	require.NoError(t, db.Create(&mcp).Error)
	return mcp
}

// CreateTool inserts an enabled tool under the given MCP
func CreateTool(t *testing.T, db *gorm.DB, mcp models.MCP, name string) models.Tool {
	t.Helper()
	schema := datatypes.JSON([]byte(`{"type":"object","properties":{"message":{"type":"string"}}}`))
	tool := models.Tool{
		MCPID:       mcp.ID,
		Name:        name,
		Description: "Test tool " + name,
		InputSchema: schema,
		URI:         "mcp://" + mcp.Slug + "/" + name,
		Enabled:     true,
	}
	require.NoError(t, db.Create(&tool).Error)
	return tool
}

// CreateAPI inserts a downstream API record
func CreateAPI(t *testing.T, db *gorm.DB, method, url string) models.DownstreamAPI {
	t.Helper()
	api := models.DownstreamAPI{
		Name:   "test-api-" + uuid.NewString()[:8],
		Method: method,
		URL:    url,
	}
	require.NoError(t, db.Create(&api).Error)
	return api
}

// CreateToolMapping binds a tool to a downstream API with the given config
func CreateToolMapping(t *testing.T, db *gorm.DB, tool models.Tool, api models.DownstreamAPI, cfg models.MappingConfig) models.ToolMapping {
	t.Helper()
	raw, err := json.Marshal(cfg)
	require.NoError(t, err)
	mapping := models.ToolMapping{
		ToolID:        tool.ID,
		APIID:         api.ID,
		MappingConfig: datatypes.JSON(raw),
	}
	require.NoError(t, db.Create(&mapping).Error)
	return mapping
}

// IssueAccessToken runs the full code flow for a user and returns the token response
func IssueAccessToken(t *testing.T, svc *oauth.Service, mcp models.MCP, userID uuid.UUID) *oauth.TokenResponse {
	t.Helper()
	verifier := "test-verifier-test-verifier-test-verifier-123"
	code, err := svc.IssueCode(&mcp, userID, oauth.CodeRequest{
		ClientID:            "test-client",
		RedirectURI:         "http://localhost:3000/callback",
		CodeChallenge:       oauth.S256Challenge(verifier),
		CodeChallengeMethod: models.CodeChallengeMethodS256,
		Scope:               "mcp:tools",
	})
	require.NoError(t, err)
	resp, err := svc.ExchangeCode(&mcp, code.Code, verifier, "test-client", "http://localhost:3000/callback")
	require.NoError(t, err)
	return resp
}
