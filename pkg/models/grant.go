package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccessGrant allows a principal to obtain tokens for a private MCP.
// Resource owners bypass grant lookup entirely.
type AccessGrant struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	MCPID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"mcpId"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"userId"`
	GrantedBy uuid.UUID  `gorm:"type:uuid;not null" json:"grantedBy"`
	GrantedAt time.Time  `gorm:"not null" json:"grantedAt"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	RevokedAt *time.Time `json:"revokedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// TableName specifies the table name for AccessGrant model
func (AccessGrant) TableName() string {
	return "access_grants"
}

// BeforeCreate hook to ensure ID and GrantedAt are set
func (g *AccessGrant) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	if g.GrantedAt.IsZero() {
		g.GrantedAt = time.Now()
	}
	return nil
}

// IsValid reports whether the grant is unrevoked and unexpired.
// A nil ExpiresAt means the grant never expires.
func (g *AccessGrant) IsValid() bool {
	if g.RevokedAt != nil {
		return false
	}
	return g.ExpiresAt == nil || g.ExpiresAt.After(time.Now())
}
