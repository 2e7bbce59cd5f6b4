package gateway_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/lazaroMB/mcp-to-api/pkg/gateway"
	"github.com/lazaroMB/mcp-to-api/pkg/mcp/protocol"
	"github.com/lazaroMB/mcp-to-api/pkg/models"
	"github.com/lazaroMB/mcp-to-api/pkg/transform"
	"github.com/lazaroMB/mcp-to-api/pkg/usage"
)

type fixture struct {
	db         *gorm.DB
	dispatcher *gateway.Dispatcher
	recorder   *usage.Recorder
	mcp        models.MCP
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := models.InitializeTestDB(t)
	recorder := usage.NewRecorder(db, 16)
	dispatcher := gateway.NewDispatcher(db, transform.NewExecutor(5*time.Second), recorder)

	owner := models.User{}
	require.NoError(t, db.Create(&owner).Error)
	mcp := models.MCP{
		Slug:        "demo",
		Name:        "Demo",
		Description: "Demo tools",
		Enabled:     true,
		Visibility:  models.VisibilityPublic,
		OwnerID:     owner.ID,
	}
	require.NoError(t, db.Create(&mcp).Error)

	return &fixture{db: db, dispatcher: dispatcher, recorder: recorder, mcp: mcp}
}

func (f *fixture) addTool(t *testing.T, name string, enabled bool) models.Tool {
	t.Helper()
	tool := models.Tool{
		MCPID:       f.mcp.ID,
		Name:        name,
		Description: "Tool " + name,
		InputSchema: datatypes.JSON([]byte(`{"type":"object","properties":{"message":{"type":"string"}}}`)),
		URI:         "mcp://demo/" + name,
		Enabled:     enabled,
	}
	require.NoError(t, f.db.Create(&tool).Error)
	return tool
}

func (f *fixture) mapTool(t *testing.T, tool models.Tool, method, url string) {
	t.Helper()
	api := models.DownstreamAPI{Name: "api-" + tool.Name, Method: method, URL: url}
	require.NoError(t, f.db.Create(&api).Error)

	cfg := models.MappingConfig{
		FieldMappings: []models.FieldMapping{
			{ToolField: "message", APIField: "msg", Transformation: models.TransformDirect},
		},
	}
	raw, err := json.Marshal(cfg)
	require.NoError(t, err)
	mapping := models.ToolMapping{ToolID: tool.ID, APIID: api.ID, MappingConfig: datatypes.JSON(raw)}
	require.NoError(t, f.db.Create(&mapping).Error)
}

func request(method string, params interface{}) *protocol.JSONRPCRequest {
	req := &protocol.JSONRPCRequest{JSONRPC: protocol.JSONRPCVersion, ID: float64(1), Method: method}
	if params != nil {
		raw, _ := json.Marshal(params)
		req.Params = raw
	}
	return req
}

func (f *fixture) dispatch(req *protocol.JSONRPCRequest) *protocol.JSONRPCResponse {
	return f.dispatcher.Dispatch(context.Background(), &f.mcp, "127.0.0.1", req)
}

func TestDispatch_InvalidEnvelope(t *testing.T) {
	f := newFixture(t)

	resp := f.dispatch(&protocol.JSONRPCRequest{JSONRPC: "1.0", ID: float64(1), Method: "ping"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.InvalidRequest, resp.Error.Code)

	resp = f.dispatch(&protocol.JSONRPCRequest{JSONRPC: protocol.JSONRPCVersion, ID: float64(1)})
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.InvalidRequest, resp.Error.Code)
}

func TestDispatch_NotificationGetsNoResponse(t *testing.T) {
	f := newFixture(t)

	resp := f.dispatch(&protocol.JSONRPCRequest{
		JSONRPC: protocol.JSONRPCVersion,
		Method:  protocol.NotificationInitialized,
	})
	assert.Nil(t, resp)
}

func TestDispatch_UnknownMethod(t *testing.T) {
	f := newFixture(t)

	resp := f.dispatch(request("prompts/list", nil))
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.MethodNotFound, resp.Error.Code)
}

func TestDispatch_Ping(t *testing.T) {
	f := newFixture(t)

	resp := f.dispatch(request(protocol.MethodPing, nil))
	require.Nil(t, resp.Error)
	assert.NotNil(t, resp.Result)
}

func TestInitialize_VersionNegotiation(t *testing.T) {
	tests := []struct {
		name      string
		requested string
		want      string
	}{
		{"newest version echoed", "2025-03-26", "2025-03-26"},
		{"older supported version echoed", "2024-11-05", "2024-11-05"},
		{"unknown version falls back to newest", "1999-01-01", "2025-03-26"},
		{"absent version falls back to newest", "", "2025-03-26"},
	}

	f := newFixture(t)
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			resp := f.dispatch(request(protocol.MethodInitialize, protocol.InitializeRequest{
				ProtocolVersion: test.requested,
				ClientInfo:      protocol.Implementation{Name: "test-client", Version: "1.0"},
			}))
			require.Nil(t, resp.Error)
			result := resp.Result.(protocol.InitializeResult)
			assert.Equal(t, test.want, result.ProtocolVersion)
		})
	}
}

func TestInitialize_CapabilitiesFollowToolCount(t *testing.T) {
	f := newFixture(t)

	// no enabled tools: prompts only
	resp := f.dispatch(request(protocol.MethodInitialize, nil))
	require.Nil(t, resp.Error)
	result := resp.Result.(protocol.InitializeResult)
	require.NotNil(t, result.Capabilities.Prompts)
	assert.False(t, result.Capabilities.Prompts.ListChanged)
	assert.Nil(t, result.Capabilities.Tools)
	assert.Nil(t, result.Capabilities.Resources)
	assert.Equal(t, "Demo tools", result.Instructions)

	// a disabled tool does not flip capabilities
	f.addTool(t, "off", false)
	resp = f.dispatch(request(protocol.MethodInitialize, nil))
	result = resp.Result.(protocol.InitializeResult)
	assert.Nil(t, result.Capabilities.Tools)

	// one enabled tool advertises tools and resources
	f.addTool(t, "echo", true)
	resp = f.dispatch(request(protocol.MethodInitialize, nil))
	result = resp.Result.(protocol.InitializeResult)
	require.NotNil(t, result.Capabilities.Tools)
	assert.False(t, result.Capabilities.Tools.ListChanged)
	require.NotNil(t, result.Capabilities.Resources)
	assert.False(t, result.Capabilities.Resources.Subscribe)
}

func TestListToolsAndResources_DualIdentity(t *testing.T) {
	f := newFixture(t)
	f.addTool(t, "beta", true)
	f.addTool(t, "alpha", true)
	f.addTool(t, "hidden", false)

	toolsResp := f.dispatch(request(protocol.MethodListTools, nil))
	require.Nil(t, toolsResp.Error)
	tools := toolsResp.Result.(protocol.ListToolsResult).Tools
	require.Len(t, tools, 2)
	// stable name ordering, disabled tools excluded
	assert.Equal(t, "alpha", tools[0].Name)
	assert.Equal(t, "beta", tools[1].Name)
	assert.Equal(t, "object", tools[0].InputSchema["type"])

	resResp := f.dispatch(request(protocol.MethodListResources, nil))
	require.Nil(t, resResp.Error)
	resources := resResp.Result.(protocol.ListResourcesResult).Resources
	require.Len(t, resources, 2)

	// every tool appears as a resource with the same schema as params
	for i := range tools {
		assert.Equal(t, tools[i].Name, resources[i].Name)
		assert.Equal(t, "mcp://demo/"+tools[i].Name, resources[i].URI)
		assert.Equal(t, "application/json", resources[i].MimeType)
		assert.Equal(t, tools[i].InputSchema, resources[i].Params)
	}
}

func TestCallTool_InvalidParams(t *testing.T) {
	f := newFixture(t)

	resp := f.dispatch(request(protocol.MethodCallTool, map[string]interface{}{}))
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.InvalidParams, resp.Error.Code)

	resp = f.dispatch(request(protocol.MethodCallTool, protocol.CallToolRequest{Name: "nope"}))
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.InvalidParams, resp.Error.Code)
}

func TestCallTool_Success(t *testing.T) {
	var received map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&received)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"echoed":true}`))
	}))
	defer server.Close()

	f := newFixture(t)
	tool := f.addTool(t, "echo", true)
	f.mapTool(t, tool, "POST", server.URL)

	resp := f.dispatch(request(protocol.MethodCallTool, protocol.CallToolRequest{
		Name:      "echo",
		Arguments: map[string]interface{}{"message": "hello"},
	}))
	require.Nil(t, resp.Error)

	result := resp.Result.(protocol.CallToolResult)
	assert.False(t, result.IsError)
	assert.Equal(t, "hello", received["msg"])
	require.Len(t, result.Content, 1)
	assert.Equal(t, "resource", result.Content[0].Type)
	require.NotNil(t, result.Content[0].Resource)
	assert.Equal(t, `{"echoed":true}`, result.Content[0].Resource.Text)

	// the usage record lands once the queue drains
	f.recorder.Close()
	var record models.UsageRecord
	require.NoError(t, f.db.Where("tool_name = ?", "echo").First(&record).Error)
	assert.True(t, record.Success)
	assert.Equal(t, f.mcp.ID, record.MCPID)
	assert.Equal(t, "127.0.0.1", record.ClientIP)
	require.NotNil(t, record.ResponseStatus)
	assert.Equal(t, http.StatusOK, *record.ResponseStatus)
}

func TestCallTool_WithoutMappingIsToolError(t *testing.T) {
	f := newFixture(t)
	f.addTool(t, "loose", true)

	resp := f.dispatch(request(protocol.MethodCallTool, protocol.CallToolRequest{Name: "loose"}))
	require.Nil(t, resp.Error)

	result := resp.Result.(protocol.CallToolResult)
	assert.True(t, result.IsError)
	require.Len(t, result.Content, 1)
	assert.Contains(t, result.Content[0].Text, "no API mapping")

	f.recorder.Close()
	var record models.UsageRecord
	require.NoError(t, f.db.Where("tool_name = ?", "loose").First(&record).Error)
	assert.False(t, record.Success)
	assert.Equal(t, "no API mapping configured", record.ErrorMessage)
}

func TestCallTool_DownstreamFailureIsToolError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	f := newFixture(t)
	tool := f.addTool(t, "flaky", true)
	f.mapTool(t, tool, "POST", server.URL)

	resp := f.dispatch(request(protocol.MethodCallTool, protocol.CallToolRequest{Name: "flaky"}))
	require.Nil(t, resp.Error)

	result := resp.Result.(protocol.CallToolResult)
	assert.True(t, result.IsError)
}

func TestReadResource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"via":"resource"}`))
	}))
	defer server.Close()

	f := newFixture(t)
	tool := f.addTool(t, "doc", true)
	f.mapTool(t, tool, "GET", server.URL)

	resp := f.dispatch(request(protocol.MethodReadResource, protocol.ReadResourceRequest{
		URI:    "mcp://demo/doc",
		Params: map[string]interface{}{"message": "hi"},
	}))
	require.Nil(t, resp.Error)

	result := resp.Result.(protocol.ReadResourceResult)
	require.Len(t, result.Contents, 1)
	assert.Equal(t, "mcp://demo/doc", result.Contents[0].URI)
	assert.Equal(t, `{"via":"resource"}`, result.Contents[0].Text)
}

func TestReadResource_UnknownURI(t *testing.T) {
	f := newFixture(t)

	resp := f.dispatch(request(protocol.MethodReadResource, protocol.ReadResourceRequest{URI: "mcp://demo/ghost"}))
	require.NotNil(t, resp.Error)
	assert.Equal(t, protocol.InvalidParams, resp.Error.Code)
}
