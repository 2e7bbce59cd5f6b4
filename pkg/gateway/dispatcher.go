// Package gateway implements the JSON-RPC dispatch loop of the protocol
// endpoint: capability negotiation, tool and resource listing, and tool
// invocation against downstream APIs.
package gateway

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/d4l-data4life/go-svc/pkg/logging"

	"github.com/lazaroMB/mcp-to-api/pkg/config"
	"github.com/lazaroMB/mcp-to-api/pkg/mcp/protocol"
	"github.com/lazaroMB/mcp-to-api/pkg/metrics"
	"github.com/lazaroMB/mcp-to-api/pkg/models"
	"github.com/lazaroMB/mcp-to-api/pkg/transform"
	"github.com/lazaroMB/mcp-to-api/pkg/usage"
)

// Dispatcher routes authenticated JSON-RPC requests for one resource
type Dispatcher struct {
	db       *gorm.DB
	executor *transform.Executor
	recorder *usage.Recorder
}

// NewDispatcher creates a dispatcher
func NewDispatcher(db *gorm.DB, executor *transform.Executor, recorder *usage.Recorder) *Dispatcher {
	return &Dispatcher{db: db, executor: executor, recorder: recorder}
}

// Dispatch handles one JSON-RPC request for the given resource. It returns
// nil for notifications, which expect no response body.
func (d *Dispatcher) Dispatch(ctx context.Context, mcp *models.MCP, clientIP string, req *protocol.JSONRPCRequest) *protocol.JSONRPCResponse {
	if req.JSONRPC != protocol.JSONRPCVersion || req.Method == "" {
		return protocol.NewError(req.ID, protocol.InvalidRequest, "invalid JSON-RPC request")
	}
	if req.IsNotification() {
		// only lifecycle notifications are expected; all are accepted silently
		logging.LogDebugf("Received notification %s for mcp %s", req.Method, mcp.Slug)
		return nil
	}

	switch req.Method {
	case protocol.MethodInitialize:
		return d.initialize(mcp, req)
	case protocol.MethodPing:
		return protocol.NewResult(req.ID, struct{}{})
	case protocol.MethodListTools:
		return d.listTools(mcp, req)
	case protocol.MethodListResources:
		return d.listResources(mcp, req)
	case protocol.MethodCallTool:
		return d.callTool(ctx, mcp, clientIP, req)
	case protocol.MethodReadResource:
		return d.readResource(ctx, mcp, clientIP, req)
	default:
		return protocol.NewError(req.ID, protocol.MethodNotFound, "method not found: "+req.Method)
	}
}

func (d *Dispatcher) initialize(mcp *models.MCP, req *protocol.JSONRPCRequest) *protocol.JSONRPCResponse {
	var params protocol.InitializeRequest
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return protocol.NewError(req.ID, protocol.InvalidParams, "malformed initialize params")
		}
	}

	version := protocol.SupportedProtocolVersions[0]
	for _, v := range protocol.SupportedProtocolVersions {
		if params.ProtocolVersion == v {
			version = v
			break
		}
	}

	var toolCount int64
	if err := d.db.Model(&models.Tool{}).
		Where("mcp_id = ? AND enabled = ?", mcp.ID, true).
		Count(&toolCount).Error; err != nil {
		logging.LogErrorf(err, "Failed to count tools for mcp %s", mcp.Slug)
		return protocol.NewError(req.ID, protocol.InternalError, "internal error")
	}

	// tools/resources are advertised only when at least one enabled tool
	// exists; prompts are always advertised as unsupported
	caps := protocol.ServerCapabilities{
		Prompts: &protocol.PromptsCapability{ListChanged: false},
	}
	if toolCount > 0 {
		caps.Tools = &protocol.ToolsCapability{ListChanged: false}
		caps.Resources = &protocol.ResourcesCapability{Subscribe: false, ListChanged: false}
	}

	return protocol.NewResult(req.ID, protocol.InitializeResult{
		ProtocolVersion: version,
		Capabilities:    caps,
		ServerInfo: protocol.Implementation{
			Name:    config.Name,
			Version: config.Version,
		},
		Instructions: mcp.Description,
	})
}

func (d *Dispatcher) enabledTools(mcp *models.MCP) ([]models.Tool, error) {
	var tools []models.Tool
	err := d.db.
		Where("mcp_id = ? AND enabled = ?", mcp.ID, true).
		Order("name ASC").
		Find(&tools).Error
	return tools, err
}

func (d *Dispatcher) listTools(mcp *models.MCP, req *protocol.JSONRPCRequest) *protocol.JSONRPCResponse {
	tools, err := d.enabledTools(mcp)
	if err != nil {
		logging.LogErrorf(err, "Failed to list tools for mcp %s", mcp.Slug)
		return protocol.NewError(req.ID, protocol.InternalError, "internal error")
	}

	out := make([]protocol.Tool, len(tools))
	for i, t := range tools {
		out[i] = protocol.Tool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.SchemaMap(),
		}
	}
	return protocol.NewResult(req.ID, protocol.ListToolsResult{Tools: out})
}

func (d *Dispatcher) listResources(mcp *models.MCP, req *protocol.JSONRPCRequest) *protocol.JSONRPCResponse {
	tools, err := d.enabledTools(mcp)
	if err != nil {
		logging.LogErrorf(err, "Failed to list resources for mcp %s", mcp.Slug)
		return protocol.NewError(req.ID, protocol.InternalError, "internal error")
	}

	// every tool is also a resource; the params field carries the input
	// schema so the callable shape is discoverable via either listing
	out := make([]protocol.Resource, len(tools))
	for i, t := range tools {
		out[i] = protocol.Resource{
			URI:         t.URI,
			Name:        t.Name,
			Description: t.Description,
			MimeType:    "application/json",
			Params:      t.SchemaMap(),
		}
	}
	return protocol.NewResult(req.ID, protocol.ListResourcesResult{Resources: out})
}

func (d *Dispatcher) callTool(ctx context.Context, mcp *models.MCP, clientIP string, req *protocol.JSONRPCRequest) *protocol.JSONRPCResponse {
	var params protocol.CallToolRequest
	if err := json.Unmarshal(req.Params, &params); err != nil || params.Name == "" {
		return protocol.NewError(req.ID, protocol.InvalidParams, "tools/call requires a tool name")
	}

	var tool models.Tool
	err := d.db.
		Where("mcp_id = ? AND name = ? AND enabled = ?", mcp.ID, params.Name, true).
		First(&tool).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return protocol.NewError(req.ID, protocol.InvalidParams, "unknown tool: "+params.Name)
		}
		logging.LogErrorf(err, "Failed to resolve tool %s", params.Name)
		return protocol.NewError(req.ID, protocol.InternalError, "internal error")
	}

	content, isError := d.invoke(ctx, mcp, &tool, clientIP, params.Arguments)
	return protocol.NewResult(req.ID, protocol.CallToolResult{Content: content, IsError: isError})
}

func (d *Dispatcher) readResource(ctx context.Context, mcp *models.MCP, clientIP string, req *protocol.JSONRPCRequest) *protocol.JSONRPCResponse {
	var params protocol.ReadResourceRequest
	if err := json.Unmarshal(req.Params, &params); err != nil || params.URI == "" {
		return protocol.NewError(req.ID, protocol.InvalidParams, "resources/read requires a uri")
	}

	var tool models.Tool
	err := d.db.
		Where("mcp_id = ? AND uri = ? AND enabled = ?", mcp.ID, params.URI, true).
		First(&tool).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return protocol.NewError(req.ID, protocol.InvalidParams, "unknown resource: "+params.URI)
		}
		logging.LogErrorf(err, "Failed to resolve resource %s", params.URI)
		return protocol.NewError(req.ID, protocol.InternalError, "internal error")
	}

	content, _ := d.invoke(ctx, mcp, &tool, clientIP, params.Params)

	contents := make([]protocol.ResourceContents, 0, len(content))
	for _, c := range content {
		if c.Resource != nil {
			contents = append(contents, *c.Resource)
			continue
		}
		contents = append(contents, protocol.ResourceContents{
			URI:  tool.URI,
			Text: c.Text,
		})
	}
	return protocol.NewResult(req.ID, protocol.ReadResourceResult{Contents: contents})
}

// invoke resolves the tool's mapping, transforms the arguments, executes
// the downstream call and records the outcome. Transformation and
// downstream failures become tool error content, never protocol faults.
func (d *Dispatcher) invoke(ctx context.Context, mcp *models.MCP, tool *models.Tool, clientIP string, args map[string]interface{}) ([]protocol.Content, bool) {
	start := time.Now()

	record := models.UsageRecord{
		MCPID:    mcp.ID,
		ToolID:   &tool.ID,
		ToolName: tool.Name,
		ClientIP: clientIP,
	}
	if len(args) > 0 {
		if raw, err := json.Marshal(args); err == nil {
			record.RequestArguments = raw
		}
	}

	finish := func(content []protocol.Content, isError bool) ([]protocol.Content, bool) {
		record.Success = !isError
		record.ResponseTimeMs = time.Since(start).Milliseconds()
		d.recorder.Record(record)
		metrics.ObserveToolInvocation(mcp.Slug, tool.Name, !isError, time.Since(start))
		return content, isError
	}

	var mapping models.ToolMapping
	err := d.db.Preload("API").Where("tool_id = ?", tool.ID).First(&mapping).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			record.ErrorMessage = "no API mapping configured"
			return finish(transform.ErrorContent(errors.Errorf("tool %q has no API mapping configured", tool.Name)))
		}
		logging.LogErrorf(err, "Failed to load mapping for tool %s", tool.Name)
		record.ErrorMessage = "mapping lookup failed"
		return finish(transform.ErrorContent(errors.New("failed to load tool configuration")))
	}
	record.APIID = &mapping.APIID

	cfg, err := mapping.Config()
	if err != nil {
		record.ErrorMessage = err.Error()
		return finish(transform.ErrorContent(errors.New("invalid mapping configuration")))
	}

	payload, err := transform.Apply(args, cfg)
	if err != nil {
		record.ErrorMessage = err.Error()
		return finish(transform.ErrorContent(err))
	}

	result, err := d.executor.Execute(ctx, &mapping.API, payload)
	if err != nil {
		record.ErrorMessage = err.Error()
		return finish(transform.ErrorContent(err))
	}
	record.ResponseStatus = &result.Status
	if !result.Succeeded() {
		record.ErrorMessage = string(result.Body)
	}

	return finish(transform.ToolContent(tool.URI, result))
}
