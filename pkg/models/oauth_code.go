package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CodeChallengeMethodS256 is the only PKCE challenge method accepted
const CodeChallengeMethodS256 = "S256"

// AuthorizationCode is a short-lived, single-use code issued during the
// authorization-code flow. PKCE (S256) is mandatory.
type AuthorizationCode struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Code                string    `gorm:"size:255;not null;uniqueIndex" json:"code"`
	ClientID            string    `gorm:"size:255;not null;index" json:"clientId"`
	UserID              uuid.UUID `gorm:"type:uuid;not null;index" json:"userId"`
	MCPID               uuid.UUID `gorm:"type:uuid;not null;index" json:"mcpId"`
	RedirectURI         string    `gorm:"size:2000;not null" json:"redirectUri"`
	Scope               string    `gorm:"size:500" json:"scope"`
	Resource            string    `gorm:"size:2000" json:"resource"`
	CodeChallenge       string    `gorm:"size:255;not null" json:"codeChallenge"`
	CodeChallengeMethod string    `gorm:"size:16;not null;default:S256" json:"codeChallengeMethod"`
	Used                bool      `gorm:"not null;default:false;index" json:"used"`
	ExpiresAt           time.Time `gorm:"not null;index" json:"expiresAt"`
	CreatedAt           time.Time `json:"createdAt"`
}

// TableName specifies the table name for AuthorizationCode model
func (AuthorizationCode) TableName() string {
	return "authorization_codes"
}

// BeforeCreate hook to ensure ID is set
func (c *AuthorizationCode) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// IsExpired checks if the authorization code has expired
func (c *AuthorizationCode) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}
