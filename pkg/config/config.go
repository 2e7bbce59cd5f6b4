package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/go-chi/cors"
	"github.com/spf13/viper"
)

// Build information. Populated at build-time.
var (
	Name      string = "mcp-to-api"
	Version   string
	Branch    string
	Commit    string
	BuildUser string
	GoVersion = runtime.Version()
)

const (
	// EnvPrefix is a prefix to all ENV variables used in this app
	EnvPrefix = "MCP_TO_API"

	// ##### GENERAL VARIABLES

	// Debug is a flag used to display debug messages
	Debug = false
	// DebugCORS is a flag used to display CORS debug messages
	DebugCORS = false
	// DefaultHost default host for the service
	DefaultHost = "localhost"
	// DefaultPort default port the service is served on
	DefaultPort = "8080"
	// DefaultBaseURL is the public base URL requests arrive at; issuer URLs
	// and discovery documents are derived from it
	DefaultBaseURL = "http://localhost:8080"
	// DefaultCorsHosts default cors hosts for local development
	DefaultCorsHosts = "https://localhost:3000 http://localhost:3456"

	// ##### DATABASE VARIABLES

	// DefaultDBHost default host for the database connection
	DefaultDBHost = "localhost"
	// DefaultDBPort default port for the database connection
	DefaultDBPort = "5432"
	// DefaultDBName default name for the database connection
	DefaultDBName = "mcp-to-api"
	// DefaultDBUser default user for the database connection
	DefaultDBUser = "postgres"
	// DefaultDBPassword default password for the database connection
	DefaultDBPassword = "postgres"
	// DefaultDBSSLMode default ssl mode for the database connection
	DefaultDBSSLMode = "disable"

	// ##### OAUTH VARIABLES

	// DefaultJWTSecret is the shared secret used to sign access and session
	// tokens. Must be overridden outside local development.
	DefaultJWTSecret = "local-development-secret" // #nosec
	// DefaultAuthCodeTTL is how long an authorization code stays exchangeable
	DefaultAuthCodeTTL = "10m"
	// DefaultAccessTokenTTL is the lifetime of issued access tokens
	DefaultAccessTokenTTL = "1h"
	// DefaultRefreshTokenTTL is the lifetime of issued refresh tokens
	DefaultRefreshTokenTTL = "720h"

	// ##### GATEWAY VARIABLES

	// DefaultDownstreamTimeout bounds every proxied API call
	DefaultDownstreamTimeout = "30s"
	// DefaultUsageQueueSize is the capacity of the usage recorder queue
	DefaultUsageQueueSize = 256
	// DefaultRegistryCacheTTL is how long resolved resources stay cached
	DefaultRegistryCacheTTL = "30s"
)

func bindEnvVariable(name string, fallback interface{}) {
	if fallback != "" {
		viper.SetDefault(name, fallback)
	}
	err := viper.BindEnv(name)
	if err != nil {
		// cannot use logging.LogError due to import cycle
		fmt.Printf("Error binding Env Variable: %v", err)
	}
}

// SetupEnv configures app to read ENV variables
func SetupEnv() {
	viper.SetEnvPrefix(EnvPrefix)
	// General
	bindEnvVariable("DEBUG", Debug)
	bindEnvVariable("DEBUG_CORS", DebugCORS)
	bindEnvVariable("HOST", DefaultHost)
	bindEnvVariable("PORT", DefaultPort)
	bindEnvVariable("BASE_URL", DefaultBaseURL)
	bindEnvVariable("CORS_HOSTS", DefaultCorsHosts)
	bindEnvVariable("HTTP_MAX_PARALLEL_REQUESTS", 8)
	bindEnvVariable("HTTP_REQUEST_TIMEOUT", "60s")
	// Database
	bindEnvVariable("DB_HOST", DefaultDBHost)
	bindEnvVariable("DB_PORT", DefaultDBPort)
	bindEnvVariable("DB_NAME", DefaultDBName)
	bindEnvVariable("DB_USER", DefaultDBUser)
	bindEnvVariable("DB_PASS", DefaultDBPassword)
	bindEnvVariable("DB_SSL_MODE", DefaultDBSSLMode)
	// OAuth
	bindEnvVariable("JWT_SECRET", DefaultJWTSecret)
	bindEnvVariable("AUTH_CODE_TTL", DefaultAuthCodeTTL)
	bindEnvVariable("ACCESS_TOKEN_TTL", DefaultAccessTokenTTL)
	bindEnvVariable("REFRESH_TOKEN_TTL", DefaultRefreshTokenTTL)
	// Gateway
	bindEnvVariable("DOWNSTREAM_TIMEOUT", DefaultDownstreamTimeout)
	bindEnvVariable("USAGE_QUEUE_SIZE", DefaultUsageQueueSize)
	bindEnvVariable("REGISTRY_CACHE_TTL", DefaultRegistryCacheTTL)
}

// BaseURL returns the configured public base URL without a trailing slash
func BaseURL() string {
	return strings.TrimRight(viper.GetString("BASE_URL"), "/")
}

// JWTSecret returns the shared token signing secret
func JWTSecret() []byte {
	return []byte(viper.GetString("JWT_SECRET"))
}

// CorsConfig stores default configuration for CORS middleware
func CorsConfig(corsHosts []string) cors.Options {
	return cors.Options{
		AllowedOrigins:   corsHosts,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Mcp-Session-Id"},
		ExposedHeaders:   []string{"Link", "Mcp-Session-Id"},
		AllowCredentials: true, // header "Access-Control-Allow-Credentials" is not present if this is set to false
		MaxAge:           300,  // Maximum value not ignored by any of major browsers,
		Debug:            viper.GetBool("DEBUG_CORS"),
	}
}
