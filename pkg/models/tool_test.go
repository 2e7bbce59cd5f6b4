package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/lazaroMB/mcp-to-api/pkg/models"
)

func TestTool_SchemaMap(t *testing.T) {
	tests := []struct {
		name   string
		schema string
		want   map[string]interface{}
	}{
		{
			name:   "stored schema is returned",
			schema: `{"type":"object","properties":{"q":{"type":"string"}}}`,
			want: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{"q": map[string]interface{}{"type": "string"}},
			},
		},
		{
			name:   "empty schema defaults to object",
			schema: "",
			want:   map[string]interface{}{"type": "object"},
		},
		{
			name:   "malformed schema defaults to object",
			schema: `{not json`,
			want:   map[string]interface{}{"type": "object"},
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			tool := models.Tool{InputSchema: datatypes.JSON([]byte(test.schema))}
			assert.Equal(t, test.want, tool.SchemaMap())
		})
	}
}

func TestToolMapping_Config(t *testing.T) {
	mapping := models.ToolMapping{
		MappingConfig: datatypes.JSON([]byte(`{
			"field_mappings": [
				{"tool_field": "message", "api_field": "msg", "transformation": "direct"}
			],
			"static_fields": {"version": "v1"}
		}`)),
	}

	cfg, err := mapping.Config()
	require.NoError(t, err)
	require.Len(t, cfg.FieldMappings, 1)
	assert.Equal(t, "message", cfg.FieldMappings[0].ToolField)
	assert.Equal(t, "msg", cfg.FieldMappings[0].APIField)
	assert.Equal(t, models.TransformDirect, cfg.FieldMappings[0].Transformation)
	assert.Equal(t, "v1", cfg.StaticFields["version"])
}

func TestToolMapping_ConfigMalformed(t *testing.T) {
	mapping := models.ToolMapping{MappingConfig: datatypes.JSON([]byte(`[]`))}
	_, err := mapping.Config()
	assert.Error(t, err)
}

func TestEnabledFalsePersists(t *testing.T) {
	db := models.InitializeTestDB(t)

	user := models.User{}
	require.NoError(t, db.Create(&user).Error)

	// a resource and a tool created disabled must read back disabled
	mcp := models.MCP{Slug: "draft", Name: "Draft", Enabled: false, OwnerID: user.ID}
	require.NoError(t, db.Create(&mcp).Error)
	tool := models.Tool{MCPID: mcp.ID, Name: "echo", URI: "mcp://draft/echo", Enabled: false}
	require.NoError(t, db.Create(&tool).Error)

	var storedMCP models.MCP
	require.NoError(t, db.First(&storedMCP, "id = ?", mcp.ID).Error)
	assert.False(t, storedMCP.Enabled)

	var storedTool models.Tool
	require.NoError(t, db.First(&storedTool, "id = ?", tool.ID).Error)
	assert.False(t, storedTool.Enabled)
}

func TestTool_CascadeOnMCPDelete(t *testing.T) {
	db := models.InitializeTestDB(t)

	user := models.User{}
	require.NoError(t, db.Create(&user).Error)
	mcp := models.MCP{Slug: "cascade", Name: "Cascade", Enabled: true, OwnerID: user.ID}
	require.NoError(t, db.Create(&mcp).Error)
	tool := models.Tool{MCPID: mcp.ID, Name: "echo", URI: "mcp://cascade/echo", Enabled: true}
	require.NoError(t, db.Create(&tool).Error)

	require.NoError(t, db.Delete(&mcp).Error)

	var count int64
	require.NoError(t, db.Model(&models.Tool{}).Where("mcp_id = ?", mcp.ID).Count(&count).Error)
	assert.Zero(t, count)
}
