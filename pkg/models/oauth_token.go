package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OAuthToken is an issued access token (with optional refresh token),
// bound to exactly one MCP. The access token string is globally unique, so
// introspection can look a row up by the token alone.
type OAuthToken struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	AccessToken  string     `gorm:"size:2000;not null;uniqueIndex" json:"accessToken"`
	RefreshToken *string    `gorm:"size:255;uniqueIndex" json:"refreshToken,omitempty"`
	TokenType    string     `gorm:"size:32;not null;default:Bearer" json:"tokenType"`
	ClientID     string     `gorm:"size:255;not null;index" json:"clientId"`
	UserID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"userId"`
	MCPID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"mcpId"`
	Scope        string     `gorm:"size:500" json:"scope"`
	ExpiresAt    time.Time  `gorm:"not null;index" json:"expiresAt"`
	RevokedAt    *time.Time `json:"revokedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// TableName specifies the table name for OAuthToken model
func (OAuthToken) TableName() string {
	return "oauth_tokens"
}

// BeforeCreate hook to ensure ID is set
func (t *OAuthToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// IsExpired checks if the access token has expired
func (t *OAuthToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// IsValid checks if the token is unrevoked and unexpired
func (t *OAuthToken) IsValid() bool {
	return t.RevokedAt == nil && !t.IsExpired()
}
