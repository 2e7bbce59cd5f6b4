package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Token endpoint auth methods accepted at registration
const (
	AuthMethodNone       = "none"
	AuthMethodSecretPost = "client_secret_post"
)

// OAuthClient is a dynamically registered OAuth client (RFC 7591 subset).
// Public clients (PKCE-only) carry no secret.
type OAuthClient struct {
	ID                      uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ClientID                string         `gorm:"size:255;not null;uniqueIndex" json:"client_id"`
	ClientSecretHash        *string        `gorm:"size:255" json:"-"`
	ClientName              string         `gorm:"size:255" json:"client_name,omitempty"`
	RedirectURIs            datatypes.JSON `gorm:"type:jsonb;not null" json:"redirect_uris"`
	TokenEndpointAuthMethod string         `gorm:"size:64;not null;default:none" json:"token_endpoint_auth_method"`
	CreatedAt               time.Time      `json:"created_at"`
	UpdatedAt               time.Time      `json:"updated_at"`
}

// TableName specifies the table name for OAuthClient model
func (OAuthClient) TableName() string {
	return "oauth_clients"
}

// BeforeCreate hook to ensure ID is set
func (c *OAuthClient) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// SetSecret hashes and stores the given client secret
func (c *OAuthClient) SetSecret(secret string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	h := string(hash)
	c.ClientSecretHash = &h
	return nil
}

// CheckSecret verifies a presented client secret against the stored hash.
// Clients without a secret accept only an empty presented secret.
func (c *OAuthClient) CheckSecret(secret string) bool {
	if c.ClientSecretHash == nil {
		return secret == ""
	}
	return bcrypt.CompareHashAndPassword([]byte(*c.ClientSecretHash), []byte(secret)) == nil
}

// RedirectURIList decodes the stored redirect URIs
func (c *OAuthClient) RedirectURIList() []string {
	var uris []string
	if len(c.RedirectURIs) > 0 {
		_ = json.Unmarshal(c.RedirectURIs, &uris)
	}
	return uris
}

// AllowsRedirectURI reports whether the exact URI was registered
func (c *OAuthClient) AllowsRedirectURI(uri string) bool {
	for _, u := range c.RedirectURIList() {
		if u == uri {
			return true
		}
	}
	return false
}
