package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Visibility values for an MCP
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// MCP is a tenant-owned, sluggable collection of tools exposed as one
// OAuth-protected endpoint. The slug is immutable after creation because it
// is baked into the issuer URL of every token minted for the resource.
type MCP struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Slug        string    `gorm:"size:255;not null;uniqueIndex" json:"slug"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	Enabled     bool      `gorm:"not null" json:"enabled"`
	Visibility  string    `gorm:"size:32;not null;default:private" json:"visibility"`
	OwnerID     uuid.UUID `gorm:"type:uuid;not null;index" json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// Associations
	Tools []Tool `gorm:"foreignKey:MCPID;constraint:OnDelete:CASCADE" json:"tools,omitempty"`
}

// TableName specifies the table name for MCP model
func (MCP) TableName() string {
	return "mcps"
}

// BeforeCreate hook to ensure ID is set
func (m *MCP) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// IsPublic reports whether the resource is visible without a grant
func (m *MCP) IsPublic() bool {
	return m.Visibility == VisibilityPublic
}
