package models

import (
	"gorm.io/gorm"
)

// MigrationFunc runs the schema migrations for all models
func MigrationFunc(conn *gorm.DB) error {
	// use conn.Debug().AutoMigrate(...) to enable debugging
	return conn.AutoMigrate(
		&User{},
		&MCP{},
		&Tool{},
		&DownstreamAPI{},
		&ToolMapping{},
		&AccessGrant{},
		&OAuthClient{},
		&AuthorizationCode{},
		&OAuthToken{},
		&UsageRecord{},
	)
}
