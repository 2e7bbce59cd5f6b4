package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UsageRecord is an append-only audit entry for one tool invocation.
// Writing it is best-effort; a failed insert never reaches the caller.
type UsageRecord struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	MCPID            uuid.UUID      `gorm:"type:uuid;not null;index" json:"mcpId"`
	ToolID           *uuid.UUID     `gorm:"type:uuid;index" json:"toolId,omitempty"`
	APIID            *uuid.UUID     `gorm:"type:uuid" json:"apiId,omitempty"`
	ToolName         string         `gorm:"size:255;not null" json:"toolName"`
	RequestArguments datatypes.JSON `gorm:"type:jsonb" json:"requestArguments,omitempty"`
	Success          bool           `gorm:"not null" json:"success"`
	ResponseStatus   *int           `json:"responseStatus,omitempty"`
	ResponseTimeMs   int64          `gorm:"not null" json:"responseTimeMs"`
	ErrorMessage     string         `gorm:"type:text" json:"errorMessage,omitempty"`
	ClientIP         string         `gorm:"size:64" json:"clientIp,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
}

// TableName specifies the table name for UsageRecord model
func (UsageRecord) TableName() string {
	return "usage_records"
}

// BeforeCreate hook to ensure ID is set
func (u *UsageRecord) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
