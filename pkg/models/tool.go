package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Transformation kinds supported by a field mapping
const (
	TransformDirect     = "direct"
	TransformConstant   = "constant"
	TransformExpression = "expression"
)

// Tool is a callable capability owned by an MCP. A single tool record is
// projected both as a protocol tool entry and a protocol resource entry, so
// the two listings can never diverge.
type Tool struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	MCPID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"mcpId"`
	Name        string         `gorm:"size:255;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description,omitempty"`
	InputSchema datatypes.JSON `gorm:"type:jsonb" json:"inputSchema"`
	URI         string         `gorm:"size:1000;not null" json:"uri"`
	Enabled     bool           `gorm:"not null" json:"enabled"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`

	// Associations
	MCP      MCP           `gorm:"foreignKey:MCPID" json:"mcp,omitempty"`
	Mappings []ToolMapping `gorm:"foreignKey:ToolID;constraint:OnDelete:CASCADE" json:"mappings,omitempty"`
}

// TableName specifies the table name for Tool model
func (Tool) TableName() string {
	return "tools"
}

// BeforeCreate hook to ensure ID is set
func (t *Tool) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// SchemaMap decodes the stored input schema, returning an empty object
// schema when none is set
func (t *Tool) SchemaMap() map[string]interface{} {
	schema := map[string]interface{}{}
	if len(t.InputSchema) > 0 {
		if err := json.Unmarshal(t.InputSchema, &schema); err != nil {
			return map[string]interface{}{"type": "object"}
		}
	}
	if len(schema) == 0 {
		schema["type"] = "object"
	}
	return schema
}

// FieldMapping translates one tool-call argument (or a constant, or an
// expression over one argument) into one downstream API payload field.
type FieldMapping struct {
	ToolField      string `json:"tool_field,omitempty"`
	APIField       string `json:"api_field"`
	Transformation string `json:"transformation"`
	Value          string `json:"value,omitempty"`
	Expression     string `json:"expression,omitempty"`
}

// MappingConfig is the declarative argument-mapping configuration stored on
// a ToolMapping row.
type MappingConfig struct {
	FieldMappings []FieldMapping    `json:"field_mappings"`
	StaticFields  map[string]string `json:"static_fields,omitempty"`
}

// ToolMapping binds a tool to a downstream API through a mapping config.
// At most one mapping per (tool, api) pair is consulted at invocation time.
type ToolMapping struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ToolID        uuid.UUID      `gorm:"type:uuid;not null;index:idx_tool_api,unique" json:"toolId"`
	APIID         uuid.UUID      `gorm:"type:uuid;not null;index:idx_tool_api,unique" json:"apiId"`
	MappingConfig datatypes.JSON `gorm:"type:jsonb;not null" json:"mappingConfig"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`

	// Associations
	API DownstreamAPI `gorm:"foreignKey:APIID" json:"api,omitempty"`
}

// TableName specifies the table name for ToolMapping model
func (ToolMapping) TableName() string {
	return "tool_mappings"
}

// BeforeCreate hook to ensure ID is set
func (m *ToolMapping) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Config decodes the stored mapping configuration
func (m *ToolMapping) Config() (MappingConfig, error) {
	var cfg MappingConfig
	if err := json.Unmarshal(m.MappingConfig, &cfg); err != nil {
		return cfg, errors.Wrap(err, "failed to decode mapping config")
	}
	return cfg, nil
}
