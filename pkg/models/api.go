package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DownstreamAPI is a declarative HTTP call template. It is independent of
// any tool; many tools may reuse one API definition.
type DownstreamAPI struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name          string         `gorm:"size:255;not null" json:"name"`
	Method        string         `gorm:"size:16;not null;default:GET" json:"method"`
	URL           string         `gorm:"size:2000;not null" json:"url"`
	Headers       datatypes.JSON `gorm:"type:jsonb" json:"headers,omitempty"`
	Cookies       datatypes.JSON `gorm:"type:jsonb" json:"cookies,omitempty"`
	URLParams     datatypes.JSON `gorm:"type:jsonb" json:"urlParams,omitempty"`
	PayloadSchema datatypes.JSON `gorm:"type:jsonb" json:"payloadSchema,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// TableName specifies the table name for DownstreamAPI model
func (DownstreamAPI) TableName() string {
	return "downstream_apis"
}

// BeforeCreate hook to ensure ID is set
func (a *DownstreamAPI) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

func decodeStringMap(raw datatypes.JSON) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	out := map[string]string{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

// HeaderMap decodes the stored header template
func (a *DownstreamAPI) HeaderMap() map[string]string {
	return decodeStringMap(a.Headers)
}

// CookieMap decodes the stored cookie template
func (a *DownstreamAPI) CookieMap() map[string]string {
	return decodeStringMap(a.Cookies)
}

// URLParamMap decodes the stored query parameter template
func (a *DownstreamAPI) URLParamMap() map[string]string {
	return decodeStringMap(a.URLParams)
}
