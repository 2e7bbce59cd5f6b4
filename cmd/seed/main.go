package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d4l-data4life/go-svc/pkg/logging"

	"github.com/lazaroMB/mcp-to-api/pkg/config"
	"github.com/lazaroMB/mcp-to-api/pkg/models"
)

// Seeds a local database with one demo MCP resource wired against a
// public echo API, so the gateway can be exercised end to end without
// any real downstream.
func main() {
	_ = godotenv.Load()
	config.SetupEnv()

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		viper.GetString("DB_HOST"),
		viper.GetString("DB_PORT"),
		viper.GetString("DB_USER"),
		viper.GetString("DB_PASS"),
		viper.GetString("DB_NAME"),
		viper.GetString("DB_SSL_MODE"),
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logging.LogErrorf(err, "Failed to connect to database")
		os.Exit(1)
	}
	if err := models.MigrationFunc(db); err != nil {
		logging.LogErrorf(err, "Failed to run migrations")
		os.Exit(1)
	}

	if err := seed(db); err != nil {
		logging.LogErrorf(err, "Failed to seed test data")
		os.Exit(1)
	}
	logging.LogInfof("Seed data inserted")
}

func seed(db *gorm.DB) error {
	owner := models.User{ID: uuid.MustParse("00000000-0000-0000-0000-000000000001")}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&owner).Error; err != nil {
		return err
	}

	mcp := models.MCP{
		Slug:        "demo",
		Name:        "Demo Gateway",
		Description: "Demo MCP resource backed by httpbin.org",
		Enabled:     true,
		Visibility:  models.VisibilityPublic,
		OwnerID:     owner.ID,
	}
	if err := db.Where(models.MCP{Slug: mcp.Slug}).FirstOrCreate(&mcp).Error; err != nil {
		return err
	}

	api := models.DownstreamAPI{
		Name:   "httpbin-anything",
		Method: "POST",
		URL:    "https://httpbin.org/anything",
	}
	if err := db.Where(models.DownstreamAPI{Name: api.Name}).FirstOrCreate(&api).Error; err != nil {
		return err
	}

	schema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"message": map[string]interface{}{"type": "string"},
			"count":   map[string]interface{}{"type": "number"},
		},
		"required": []string{"message"},
	}
	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return err
	}

	tool := models.Tool{
		MCPID:       mcp.ID,
		Name:        "echo",
		Description: "Echo a message through httpbin",
		InputSchema: datatypes.JSON(schemaJSON),
		URI:         "mcp://demo/echo",
		Enabled:     true,
	}
	if err := db.Where(models.Tool{MCPID: mcp.ID, Name: tool.Name}).FirstOrCreate(&tool).Error; err != nil {
		return err
	}

	mapping := models.MappingConfig{
		FieldMappings: []models.FieldMapping{
			{ToolField: "message", APIField: "msg", Transformation: models.TransformDirect},
			{ToolField: "count", APIField: "repeat", Transformation: models.TransformExpression, Expression: "value * 2"},
		},
		StaticFields: map[string]string{"source": "mcp-to-api"},
	}
	mappingJSON, err := json.Marshal(mapping)
	if err != nil {
		return err
	}
	toolMapping := models.ToolMapping{
		ToolID:        tool.ID,
		APIID:         api.ID,
		MappingConfig: datatypes.JSON(mappingJSON),
	}
	return db.Where(models.ToolMapping{ToolID: tool.ID, APIID: api.ID}).FirstOrCreate(&toolMapping).Error
}
